package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vovakirdan/flappy-gym/internal/agent"
	"github.com/vovakirdan/flappy-gym/internal/config"
	"github.com/vovakirdan/flappy-gym/internal/games/flappy"
	"github.com/vovakirdan/flappy-gym/internal/logging"
	"github.com/vovakirdan/flappy-gym/internal/registry"
	"github.com/vovakirdan/flappy-gym/internal/storage"
)

func testConfig() Config {
	cfg := DefaultConfig(config.DefaultFlappyConfig())
	cfg.FPS = 1000
	cfg.Seed = 42
	return cfg
}

func newTestServer(t *testing.T, cfg Config, store *memSaver) *Server {
	t.Helper()
	var saver agent.EpisodeSaver
	if store != nil {
		saver = store
	}
	s, err := NewServer(cfg, saver, logging.Discard())
	if err != nil {
		t.Fatalf("NewServer() failed: %v", err)
	}
	return s
}

type memSaver struct {
	mu       sync.Mutex
	episodes []storage.Episode
}

func (m *memSaver) SaveEpisode(ep storage.Episode) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.episodes = append(m.episodes, ep)
	return int64(len(m.episodes)), nil
}

func (m *memSaver) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.episodes)
}

func TestNewFrame(t *testing.T) {
	cfg := config.DefaultFlappyConfig()
	sim := flappy.New(cfg, flappy.WithSeed(1))
	if _, err := sim.Reset(flappy.DefaultGeometry(cfg)); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}

	f := NewFrame(sim.Snapshot())
	if f.Tick != 0 || f.Score != 0 || !f.Alive {
		t.Errorf("NewFrame() = tick %d score %d alive %v, expected fresh episode", f.Tick, f.Score, f.Alive)
	}
	if len(f.Pairs) != 2 {
		t.Errorf("len(Pairs) = %d, expected 2", len(f.Pairs))
	}
	if f.World.Width != cfg.World.Width || f.World.Gap != cfg.World.PipeGap {
		t.Errorf("World = %+v, expected config geometry", f.World)
	}
	if f.Player.Rotation != 45 {
		t.Errorf("Player.Rotation = %v, expected 45", f.Player.Rotation)
	}

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	for _, field := range []string{`"pairs"`, `"groundY"`, `"playerSize"`, `"event":"none"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("frame JSON missing %s: %s", field, data)
		}
	}
}

func TestHubLatestWins(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe()
	defer cancel()

	for i := 1; i <= 5; i++ {
		hub.Publish(Frame{Tick: i})
	}

	got := <-ch
	if got.Tick != 5 {
		t.Errorf("received tick %d, expected 5", got.Tick)
	}
	select {
	case f := <-ch:
		t.Errorf("unexpected extra frame %d", f.Tick)
	default:
	}
}

func TestHubSubscribeReplaysLast(t *testing.T) {
	hub := NewHub()
	if _, ok := hub.Last(); ok {
		t.Error("Last() on empty hub should report false")
	}

	hub.Publish(Frame{Tick: 9})
	ch, cancel := hub.Subscribe()
	if got := <-ch; got.Tick != 9 {
		t.Errorf("late subscriber got tick %d, expected 9", got.Tick)
	}
	if hub.Subscribers() != 1 {
		t.Errorf("Subscribers() = %d, expected 1", hub.Subscribers())
	}

	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}
	if hub.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, expected 0", hub.Subscribers())
	}

	// Publishing with no subscribers must not block
	hub.Publish(Frame{Tick: 10})
}

func TestNewServerValidation(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		agent string
	}{
		{"unknown env", "Pong-v0", "heuristic"},
		{"unknown agent", registry.SimpleID, "oracle"},
		{"agent cannot read images", registry.ScreenID, "heuristic"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.EnvID = tc.env
			cfg.Agent = tc.agent
			if _, err := NewServer(cfg, nil, logging.Discard()); err == nil {
				t.Error("NewServer() should fail")
			}
		})
	}
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	tests := []struct {
		name     string
		path     string
		status   int
		contains string
	}{
		{"index", "/", http.StatusOK, "<canvas"},
		{"health", "/healthz", http.StatusOK, `"status":"ok"`},
		{"no frame yet", "/api/frame", http.StatusNotFound, "no frame"},
		{"unknown", "/nope", http.StatusNotFound, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if rec.Code != tc.status {
				t.Errorf("GET %s = %d, expected %d", tc.path, rec.Code, tc.status)
			}
			if !strings.Contains(rec.Body.String(), tc.contains) {
				t.Errorf("GET %s body missing %q", tc.path, tc.contains)
			}
		})
	}
}

func TestPlayPublishesAndSaves(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSteps = 5
	store := &memSaver{}
	s := newTestServer(t, cfg, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Play(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for store.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Play() = %v, expected nil after cancel", err)
	}
	if store.count() < 2 {
		t.Fatalf("saved %d episodes, expected at least 2", store.count())
	}

	store.mu.Lock()
	first, second := store.episodes[0], store.episodes[1]
	store.mu.Unlock()
	if first.Seed != 42 || second.Seed != 43 {
		t.Errorf("seeds = %d, %d, expected 42, 43", first.Seed, second.Seed)
	}
	if first.Steps != 5 || first.Agent != "heuristic" || first.EnvID != registry.SimpleID {
		t.Errorf("first episode = %+v, expected 5 heuristic steps", first)
	}

	frame, ok := s.Hub().Last()
	if !ok || frame.Episode < 2 {
		t.Errorf("Last() = %+v, %v, expected a frame from episode 2+", frame, ok)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/frame", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /api/frame = %d, expected 200", rec.Code)
	}
}

func TestWebsocketStream(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Play(ctx) //nolint:errcheck

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second)) //nolint:errcheck
	var frames []Frame
	for len(frames) < 3 {
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("ReadJSON() failed: %v", err)
		}
		frames = append(frames, f)
	}

	for i, f := range frames {
		if f.Agent != "heuristic" || f.Episode < 1 {
			t.Errorf("frame %d = agent %q episode %d", i, f.Agent, f.Episode)
		}
	}
	if frames[2].Episode == frames[0].Episode && frames[2].Tick <= frames[0].Tick {
		t.Errorf("ticks did not advance: %d then %d", frames[0].Tick, frames[2].Tick)
	}
}
