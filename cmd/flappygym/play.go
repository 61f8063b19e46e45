package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/flappy-gym/internal/core"
	"github.com/vovakirdan/flappy-gym/internal/games/flappy"
	"github.com/vovakirdan/flappy-gym/internal/platform/tui"
	"github.com/vovakirdan/flappy-gym/internal/storage"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal",
	Long: `Start a Flappy Bird round in the terminal.

Controls:
  Space/Up/W  - Flap
  P           - Pause
  R           - Restart (after a crash)
  Esc/B       - Leave (while paused or after a crash)
  Ctrl+S      - Save a text screenshot
  Q/Ctrl+C    - Quit

Examples:
  flappygym play
  flappygym play --seed 42
  flappygym play --config ./my-flappy.yaml`,
	Args: cobra.NoArgs,
	Run:  runPlay,
}

func runPlay(_ *cobra.Command, _ []string) {
	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	cfg := core.RuntimeConfig{
		ScreenW:  width,
		ScreenH:  height,
		TickRate: global.FPS,
		Seed:     global.Seed,
	}

	store, err := storage.Open(global.DB)
	if err != nil {
		logger.Warn("could not open scores database", "error", err)
		// Continue without storage - game still works
		store = nil
	}

	runErr := tui.Run(flappy.NewGame(flappyCf), store, cfg, logger)

	// Close store before potential exit
	if store != nil {
		store.Close()
	}

	if runErr != nil {
		fatalf("running game: %v", runErr)
	}
}
