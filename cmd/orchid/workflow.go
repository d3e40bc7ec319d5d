package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/awalsh128/orchid/internal/scheduler"
	"github.com/awalsh128/orchid/internal/workflow"
	"github.com/awalsh128/orchid/pkg/models"
)

var workflowInput string

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Run and inspect workflows",
}

var workflowRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Execute a workflow definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildServices()
		if err != nil {
			return err
		}
		defer s.Close()

		def, ok := s.store.Workflow(args[0])
		if !ok {
			names := s.store.Workflows()
			if len(names) == 0 {
				return fmt.Errorf("unknown workflow %q (no workflows defined in %s)", args[0], defsDir(mustGetwd()))
			}
			return fmt.Errorf("unknown workflow %q (available: %s)", args[0], strings.Join(names, ", "))
		}
		if def.Timeout == 0 {
			def.Timeout = s.cfg.Workflow.DefaultTimeout
		}

		session := scheduler.NewSession(s.sink)
		runner := newAgentRunner(s, session, consoleApprover())
		exec := workflow.New(runner, s.sink)

		report := exec.Run(cmd.Context(), def, workflowInput)

		if err := s.db.SaveWorkflowReport(report); err != nil {
			fmt.Fprintf(os.Stderr, "warning: report not persisted: %v\n", err)
		}
		printReport(report)

		if report.Status != models.RunStatusCompleted {
			return fmt.Errorf("workflow %s %s: %s", def.Name, report.Status, report.Err)
		}
		return nil
	},
}

var workflowListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available workflow definitions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildServices()
		if err != nil {
			return err
		}
		defer s.Close()

		names := s.store.Workflows()
		if len(names) == 0 {
			fmt.Println("No workflows defined.")
			return nil
		}
		for _, name := range names {
			def, _ := s.store.Workflow(name)
			fmt.Printf("%s  %s\n", color.New(color.Bold).Sprint(name), def.Description)
		}
		return nil
	},
}

func init() {
	workflowRunCmd.Flags().StringVar(&workflowInput, "input", "", "Initial input available to steps as ${workflow.input}")
	workflowCmd.AddCommand(workflowRunCmd)
	workflowCmd.AddCommand(workflowListCmd)
}

// printReport writes a per-step summary in completion order.
func printReport(report *models.WorkflowReport) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	for _, key := range report.Order {
		result := report.Results[key]
		switch result.Status {
		case models.StepStatusSuccess:
			fmt.Printf("%s %s\n", green("ok"), key)
		case models.StepStatusSkipped:
			fmt.Printf("%s %s\n", yellow("skip"), key)
		case models.StepStatusError:
			fmt.Printf("%s %s: %s\n", red("fail"), key, result.Err)
		}
	}
	fmt.Printf("run %s: %s in %s\n", report.RunID, report.Status, report.Duration.Round(time.Millisecond))
}

func mustGetwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}
