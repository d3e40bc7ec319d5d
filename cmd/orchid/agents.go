package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the configured agents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildServices()
		if err != nil {
			return err
		}
		defer s.Close()

		agents := s.registry.All()
		if len(agents) == 0 {
			fmt.Printf("No agents defined in %s.\n", defsDir(mustGetwd()))
			return nil
		}

		bold := color.New(color.Bold).SprintFunc()
		dim := color.New(color.Faint).SprintFunc()
		def, hasDefault := s.registry.Default()

		for _, agent := range agents {
			marker := " "
			if hasDefault && agent.Name == def.Name {
				marker = "*"
			}
			fmt.Printf("%s %s (%s)\n", marker, bold(agent.Name), agent.Title)
			if len(agent.Triggers.Keywords) > 0 {
				fmt.Printf("    keywords: %s\n", dim(strings.Join(agent.Triggers.Keywords, ", ")))
			}
			if len(agent.Handoffs) > 0 {
				targets := make([]string, 0, len(agent.Handoffs))
				for _, h := range agent.Handoffs {
					targets = append(targets, h.To)
				}
				fmt.Printf("    handoffs: %s\n", dim(strings.Join(targets, ", ")))
			}
		}
		return nil
	},
}
