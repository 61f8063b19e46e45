package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/flappy-gym/internal/platform/tui"
	"github.com/vovakirdan/flappy-gym/internal/storage"
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show high scores and recorded episodes",
	Long: `Display the top 10 human scores and a summary of recorded agent
episodes per environment. With --tui, browse every board interactively.

Examples:
  flappygym scores
  flappygym scores --tui
  flappygym scores --clear`,
	Args: cobra.NoArgs,
	Run:  runScores,
}

func init() {
	scoresCmd.Flags().Bool("tui", false, "Browse the scoreboard interactively")
	scoresCmd.Flags().Bool("clear", false, "Delete all human scores")
}

func runScores(_ *cobra.Command, _ []string) {
	store, err := storage.Open(global.DB)
	if err != nil {
		fatalf("opening scores database: %v", err)
	}
	defer store.Close()

	if vp.GetBool("clear") {
		if err := store.ClearScores(tui.HumanBoardID); err != nil {
			fatalf("clearing scores: %v", err)
		}
		fmt.Println("Human scores cleared.")
		return
	}

	if vp.GetBool("tui") {
		width, height := 80, 24
		if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
			width, height = w, h
		}
		if err := tui.RunScoreboard(store, width, height); err != nil {
			fatalf("running scoreboard: %v", err)
		}
		return
	}

	printHumanScores(store)
	fmt.Println()
	printEpisodeStats(store)
}

func printHumanScores(store *storage.Store) {
	scores, err := store.TopScores(tui.HumanBoardID, 10)
	if err != nil {
		fatalf("retrieving scores: %v", err)
	}

	fmt.Println("High Scores - Human play")
	fmt.Println()

	if len(scores) == 0 {
		fmt.Println("No scores recorded yet.")
		fmt.Println("Play 'flappygym play' to set the first high score!")
		return
	}

	fmt.Printf("  %-4s  %-10s  %s\n", "Rank", "Score", "Date")
	fmt.Printf("  %-4s  %-10s  %s\n", "----", "-----", "----")
	for i, entry := range scores {
		fmt.Printf("  %-4d  %-10d  %s\n", i+1, entry.Score, entry.CreatedAt.Format("2006-01-02 15:04"))
	}
}

func printEpisodeStats(store *storage.Store) {
	stats, err := store.EpisodeStats()
	if err != nil {
		fatalf("retrieving episodes: %v", err)
	}

	fmt.Println("Agent episodes")
	fmt.Println()

	if len(stats) == 0 {
		fmt.Println("No episodes recorded yet.")
		fmt.Println("Try 'flappygym run' to record some.")
		return
	}

	fmt.Printf("  %-26s  %-10s  %-8s  %-5s  %-9s  %s\n", "Environment", "Agent", "Episodes", "Best", "Avg", "Last run")
	fmt.Printf("  %-26s  %-10s  %-8s  %-5s  %-9s  %s\n", "-----------", "-----", "--------", "----", "---", "--------")
	for _, st := range stats {
		fmt.Printf("  %-26s  %-10s  %-8d  %-5d  %-9.2f  %s\n",
			st.EnvID, st.Agent, st.Episodes, st.Best, st.AvgScore, st.LastRun.Format("2006-01-02 15:04"))
	}

	fmt.Println()
	seen := make(map[string]bool)
	for _, st := range stats {
		if seen[st.EnvID] {
			continue
		}
		seen[st.EnvID] = true

		best, err := store.BestEpisode(st.EnvID)
		if errors.Is(err, storage.ErrNoEpisodes) {
			continue
		}
		if err != nil {
			fatalf("retrieving best episode: %v", err)
		}
		fmt.Printf("Best on %s: %d by %s (seed %d, %d steps)\n", best.EnvID, best.Score, best.Agent, best.Seed, best.Steps)
	}
}
