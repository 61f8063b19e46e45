package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-gym/internal/platform/tui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SSH server",
	Long: `Start an SSH server that allows users to connect and play.

Each SSH connection gets its own session with a menu to play, watch an
agent, or browse the scoreboard. Scores are stored per-server (all users
share the same board).

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.flappygym/host_key

Examples:
  flappygym serve                           # Listen on :23234 with auto-generated key
  flappygym serve --ssh :2222               # Listen on port 2222
  flappygym serve --host-key ./my_host_key  # Use specific host key
  flappygym serve --db ./scores.db          # Use specific database

Users can connect with:
  ssh localhost -p 23234`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().String("ssh", ":23234", "SSH server address (host:port)")
	serveCmd.Flags().String("host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().Int("idle-timeout", 30, "Idle timeout in minutes before disconnecting")
}

func runServe(_ *cobra.Command, _ []string) {
	cfg := tui.DefaultSSHServerConfig()
	cfg.Address = vp.GetString("ssh")
	cfg.HostKeyPath = vp.GetString("host-key")
	cfg.DBPath = global.DB
	cfg.IdleTimeout = time.Duration(vp.GetInt("idle-timeout")) * time.Minute
	cfg.TickRate = global.FPS
	cfg.Game = flappyCf
	cfg.LogLevel = global.LogLevel

	server, err := tui.NewSSHServer(cfg)
	if err != nil {
		fatalf("creating server: %v", err)
	}

	fmt.Printf("Starting flappygym SSH server on %s\n", server.Addr())
	fmt.Println("Press Ctrl+C to stop")

	if err := server.ListenAndServe(); err != nil {
		fatalf("server: %v", err)
	}
}
