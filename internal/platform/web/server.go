package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/flappy-gym/internal/agent"
	"github.com/vovakirdan/flappy-gym/internal/config"
	"github.com/vovakirdan/flappy-gym/internal/core"
	"github.com/vovakirdan/flappy-gym/internal/env"
	"github.com/vovakirdan/flappy-gym/internal/registry"
)

//go:embed static/index.html
var static embed.FS

// Config holds configuration for the watch server.
type Config struct {
	// Addr is the host:port to listen on (e.g., ":8080").
	Addr string

	// EnvID is the registered environment the agent plays.
	EnvID string

	// Agent is the agent name, see agent.Names.
	Agent string

	// FPS is the playback rate in ticks per second.
	FPS int

	// MaxSteps caps every episode, 0 = until crash.
	MaxSteps int

	// Seed of the first episode, incremented per episode. 0 = time based.
	Seed int64

	// Options configures every environment instance.
	Options registry.Options
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig(cfg config.FlappyConfig) Config {
	return Config{
		Addr:    ":8080",
		EnvID:   registry.SimpleID,
		Agent:   "heuristic",
		FPS:     core.DefaultTickRate,
		Options: registry.DefaultOptions(cfg),
	}
}

// Server plays episodes with one agent and streams every tick to all
// connected browsers.
type Server struct {
	cfg    Config
	hub    *Hub
	router *mux.Router
	agent  agent.Factory
	store  agent.EpisodeSaver
	logger *log.Logger
}

// NewServer validates cfg and sets up the routes. store may be nil.
func NewServer(cfg Config, store agent.EpisodeSaver, logger *log.Logger) (*Server, error) {
	if !registry.Exists(cfg.EnvID) {
		return nil, fmt.Errorf("web: unknown environment %q", cfg.EnvID)
	}
	factory, err := agent.Lookup(cfg.Agent, cfg.Options.Config)
	if err != nil {
		return nil, fmt.Errorf("web: %w", err)
	}
	if err := agent.Compatible(factory, cfg.EnvID, cfg.Options); err != nil {
		return nil, fmt.Errorf("web: %w", err)
	}
	if cfg.FPS <= 0 {
		cfg.FPS = core.DefaultTickRate
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	s := &Server{
		cfg:    cfg,
		hub:    NewHub(),
		router: mux.NewRouter(),
		agent:  factory,
		store:  store,
		logger: logger,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.HandleFunc("/", s.serveIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.serveWebsocket)
	s.router.HandleFunc("/healthz", s.serveHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/frame", s.serveFrame).Methods(http.MethodGet)
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the frame hub the player publishes to.
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) serveIndex(w http.ResponseWriter, _ *http.Request) {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page) //nolint:errcheck
}

func (s *Server) serveHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"env":     s.cfg.EnvID,
		"agent":   s.cfg.Agent,
		"clients": s.hub.Subscribers(),
	})
}

func (s *Server) serveFrame(w http.ResponseWriter, _ *http.Request) {
	frame, ok := s.hub.Last()
	if !ok {
		http.Error(w, "no frame yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, frame)
}

// serveWebsocket streams frames to one browser until it disconnects.
func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	updates, cancel := s.hub.Subscribe()
	defer cancel()

	cli, err := newClient(updates, w, r)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	s.logger.Info("viewer connected", "remote", r.RemoteAddr)
	if err := cli.Sync(); err != nil {
		s.logger.Warn("viewer dropped", "remote", r.RemoteAddr, "error", err)
		return
	}
	s.logger.Info("viewer left", "remote", r.RemoteAddr)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// Play runs episodes back to back until ctx is cancelled, publishing one
// frame per tick at the configured rate.
func (s *Server) Play(ctx context.Context) error {
	ticker := channerics.NewTicker(ctx.Done(), time.Second/time.Duration(s.cfg.FPS))
	best := 0

	for episode := 1; ; episode++ {
		seed := s.cfg.Seed + int64(episode-1)
		opts := s.cfg.Options
		opts.Seed = seed

		e, err := registry.Make(s.cfg.EnvID, opts)
		if err != nil {
			return fmt.Errorf("web: %w", err)
		}
		a := s.agent(seed)

		res, err := agent.PlayEpisode(ctx, e, a, s.cfg.MaxSteps, func(ts env.TimeStep) error {
			frame := NewFrame(e.Snapshot())
			frame.Episode = episode
			frame.Agent = a.Name()
			frame.Best = core.Max(best, ts.Score)
			s.hub.Publish(frame)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker:
				return nil
			}
		})
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("web: episode %d: %w", episode, err)
		}

		res.Seed = seed
		best = core.Max(best, res.Score)
		s.logger.Debug("episode finished", "episode", episode, "score", res.Score, "steps", res.Steps)

		if s.store != nil {
			if _, err := s.store.SaveEpisode(res.Record()); err != nil {
				s.logger.Warn("could not save episode", "episode", episode, "error", err)
			}
		}
	}
}

// ListenAndServe serves viewers and plays until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		s.logger.Info("starting web server", "address", s.cfg.Addr, "env", s.cfg.EnvID, "agent", s.cfg.Agent)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web: serve: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		return s.Play(groupCtx)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		s.logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
