package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "orchid",
	Short: "Agent orchestration for the terminal",
	Long: `Orchid routes free-text requests to specialized agents, transfers
control between them with validated handoffs, executes multi-step
workflows, and drives dependency-ordered batch execution of task lists.

Agents and workflows are defined as YAML files under .orchid/ in the
project root.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(workflowCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(todoCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(versionCmd)
}
