package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-gym/internal/platform/web"
	"github.com/vovakirdan/flappy-gym/internal/registry"
	"github.com/vovakirdan/flappy-gym/internal/storage"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream an agent playing to the browser",
	Long: `Let an agent play episodes back to back and stream every tick to
browsers over a websocket. Open the printed address to watch.

Endpoints:
  /            - Canvas viewer
  /ws          - Frame stream (JSON, one message per tick)
  /api/frame   - Latest frame
  /healthz     - Health check

Examples:
  flappygym watch
  flappygym watch --addr :9000 --agent random --fps 60
  flappygym watch --env FlappyBird-kinematic-v0 --agent random --save`,
	Args: cobra.NoArgs,
	Run:  runWatch,
}

func init() {
	watchCmd.Flags().String("addr", ":8080", "HTTP listen address (host:port)")
	watchCmd.Flags().String("env", registry.SimpleID, "Environment id (see 'flappygym list')")
	watchCmd.Flags().String("agent", "heuristic", "Agent name (see 'flappygym list')")
	watchCmd.Flags().Int("max-steps", 0, "Step cap per episode (0 = until crash)")
	watchCmd.Flags().Bool("save", false, "Record watched episodes in the database")
}

func runWatch(_ *cobra.Command, _ []string) {
	cfg := web.DefaultConfig(flappyCf)
	cfg.Addr = vp.GetString("addr")
	cfg.EnvID = vp.GetString("env")
	cfg.Agent = vp.GetString("agent")
	cfg.MaxSteps = vp.GetInt("max-steps")
	cfg.FPS = global.FPS
	cfg.Seed = global.Seed

	var server *web.Server
	var err error
	if vp.GetBool("save") {
		store, openErr := storage.Open(global.DB)
		if openErr != nil {
			fatalf("opening scores database: %v", openErr)
		}
		defer store.Close()
		server, err = web.NewServer(cfg, store, logger)
	} else {
		server, err = web.NewServer(cfg, nil, logger)
	}
	if err != nil {
		fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	host := cfg.Addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	fmt.Printf("Watch at http://%s\n", host)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.ListenAndServe(ctx); err != nil {
		fatalf("%v", err)
	}
}
