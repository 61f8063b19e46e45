package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-gym/internal/agent"
	"github.com/vovakirdan/flappy-gym/internal/registry"
	"github.com/vovakirdan/flappy-gym/internal/storage"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run agent episodes",
	Long: `Play a batch of episodes with a built-in agent and record the results.

Episode i is seeded with --seed + i, so a fixed --seed reproduces the whole
batch regardless of --workers.

Examples:
  flappygym run
  flappygym run --env FlappyBird-kinematic-v0 --agent random --episodes 50
  flappygym run --episodes 1000 --workers 8 --max-steps 5000 --seed 1
  flappygym run --no-save --verbose`,
	Args: cobra.NoArgs,
	Run:  runAgents,
}

func init() {
	runCmd.Flags().String("env", registry.SimpleID, "Environment id (see 'flappygym list')")
	runCmd.Flags().String("agent", "heuristic", "Agent name (see 'flappygym list')")
	runCmd.Flags().Int("episodes", 10, "Number of episodes")
	runCmd.Flags().Int("workers", 1, "Episodes played in parallel")
	runCmd.Flags().Int("max-steps", 0, "Step cap per episode (0 = until crash)")
	runCmd.Flags().Bool("raw", false, "Do not normalize simple observations")
	runCmd.Flags().Bool("no-save", false, "Do not record episodes in the database")
	runCmd.Flags().Bool("verbose", false, "Print every episode")
}

func runAgents(_ *cobra.Command, _ []string) {
	envID := vp.GetString("env")
	if !registry.Exists(envID) {
		fatalf("unknown environment %q\nRun 'flappygym list' to see available environments.", envID)
	}
	factory, err := agent.Lookup(vp.GetString("agent"), flappyCf)
	if err != nil {
		fatalf("%v", err)
	}

	opts := registry.DefaultOptions(flappyCf)
	opts.Normalize = !vp.GetBool("raw")

	runner := &agent.Runner{
		EnvID:    envID,
		Options:  opts,
		Agent:    factory,
		Workers:  vp.GetInt("workers"),
		MaxSteps: vp.GetInt("max-steps"),
		BaseSeed: global.Seed,
		Logger:   logger,
	}

	if !vp.GetBool("no-save") {
		store, openErr := storage.Open(global.DB)
		if openErr != nil {
			logger.Warn("could not open scores database, episodes will not be saved", "error", openErr)
		} else {
			defer store.Close()
			runner.Store = store
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	episodes := vp.GetInt("episodes")
	logger.Info("running episodes", "env", envID, "agent", vp.GetString("agent"), "episodes", episodes, "workers", runner.Workers)

	results, err := runner.Run(ctx, episodes)
	if err != nil {
		fatalf("run: %v", err)
	}

	if vp.GetBool("verbose") {
		fmt.Printf("  %-6s  %-20s  %-7s  %s\n", "#", "Seed", "Score", "Steps")
		fmt.Printf("  %-6s  %-20s  %-7s  %s\n", "-", "----", "-----", "-----")
		for i, r := range results {
			steps := fmt.Sprintf("%d", r.Steps)
			if r.Truncated {
				steps += " (capped)"
			}
			fmt.Printf("  %-6d  %-20d  %-7d  %s\n", i+1, r.Seed, r.Score, steps)
		}
		fmt.Println()
	}

	sum := agent.Summarize(results)
	fmt.Printf("%s / %s\n", envID, vp.GetString("agent"))
	fmt.Printf("  Episodes:   %d\n", sum.Episodes)
	fmt.Printf("  Best:       %d\n", sum.Best)
	fmt.Printf("  Mean score: %.2f\n", sum.Mean)
	fmt.Printf("  Mean steps: %.1f\n", sum.MeanSteps)
}
