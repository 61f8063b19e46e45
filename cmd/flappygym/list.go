package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-gym/internal/agent"
	"github.com/vovakirdan/flappy-gym/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List environments and agents",
	Long:  `Shows every registered environment id and the built-in agents.`,
	Args:  cobra.NoArgs,
	Run:   runList,
}

func runList(_ *cobra.Command, _ []string) {
	envs := registry.List()

	fmt.Println("Environments:")
	fmt.Println()

	// Calculate column widths
	maxIDLen := 2 // "ID" header
	for _, e := range envs {
		if len(e.ID) > maxIDLen {
			maxIDLen = len(e.ID)
		}
	}

	fmt.Printf("  %-*s  %s\n", maxIDLen, "ID", "Description")
	fmt.Printf("  %-*s  %s\n", maxIDLen, "--", "-----------")
	for _, e := range envs {
		fmt.Printf("  %-*s  %s\n", maxIDLen, e.ID, e.Description)
	}

	fmt.Println()
	fmt.Println("Agents:")
	fmt.Println()
	for _, name := range agent.Names() {
		fmt.Printf("  %s\n", name)
	}

	fmt.Println()
	fmt.Println("Run 'flappygym run --env <id> --agent <name>' to play episodes.")
}
