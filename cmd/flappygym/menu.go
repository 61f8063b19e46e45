package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/flappy-gym/internal/core"
	"github.com/vovakirdan/flappy-gym/internal/platform/tui"
	"github.com/vovakirdan/flappy-gym/internal/storage"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Start with an interactive menu",
	Long: `Start flappygym in interactive menu mode, the same session SSH users get.

Pick a round to play, watch a built-in agent play in the terminal, or browse
the scoreboard. Leaving any view returns to the menu.

Controls:
  Up/Down/j/k  - Navigate menu
  Enter/Space  - Select
  Tab          - Scoreboard
  Q            - Quit

Examples:
  flappygym menu
  flappygym menu --fps 60
  flappygym menu --db ./scores.db`,
	Args: cobra.NoArgs,
	Run:  runMenu,
}

func runMenu(_ *cobra.Command, _ []string) {
	store, err := storage.Open(global.DB)
	if err != nil {
		logger.Warn("could not open scores database", "error", err)
		store = nil
	}

	width, height := 80, 24
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

	runErr := tui.RunSession(flappyCf, store, cfg, logger)

	if store != nil {
		store.Close()
	}

	if runErr != nil {
		fatalf("running menu: %v", runErr)
	}
}
