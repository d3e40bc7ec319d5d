package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/awalsh128/orchid/internal/router"
	"github.com/awalsh128/orchid/internal/scheduler"
	"github.com/awalsh128/orchid/pkg/models"
)

var (
	runAgent   string
	runNoRoute bool
)

var runCmd = &cobra.Command{
	Use:   "run \"request\"",
	Short: "Route a request to an agent and execute it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]

		s, err := buildServices()
		if err != nil {
			return err
		}
		defer s.Close()

		agent, err := selectAgent(cmd, s, input)
		if err != nil {
			return err
		}

		session := scheduler.NewSession(s.sink)
		d := newDriver(s, session, consoleApprover())

		result, err := d.converse(cmd.Context(), agent, input)
		if err != nil {
			return err
		}

		if result.Output != "" {
			fmt.Println(result.Output)
		}
		persistSession(s, session, agent.Name)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runAgent, "agent", "", "Skip routing and use this agent")
	runCmd.Flags().BoolVar(&runNoRoute, "no-route", false, "Skip routing and use the default agent")
}

// selectAgent applies the explicit override, the no-route flag, or the
// configured routing strategy, falling back to the default agent when
// nothing matches.
func selectAgent(cmd *cobra.Command, s *services, input string) (models.AgentDefinition, error) {
	if runAgent != "" {
		agent, ok := s.registry.Get(runAgent)
		if !ok {
			return models.AgentDefinition{}, fmt.Errorf("unknown agent %q", runAgent)
		}
		return agent, nil
	}
	if runNoRoute {
		agent, ok := s.registry.Default()
		if !ok {
			return models.AgentDefinition{}, errors.New("no agents defined")
		}
		return agent, nil
	}

	decision, err := s.router.Route(cmd.Context(), input, s.registry.All(), s.cfg.Routing.RouteStrategy())
	if err != nil {
		if errors.Is(err, router.ErrNoMatch) {
			agent, ok := s.registry.Default()
			if !ok {
				return models.AgentDefinition{}, errors.New("no agent matched and no default agent is set")
			}
			return agent, nil
		}
		return models.AgentDefinition{}, err
	}

	agent, _ := s.registry.Get(decision.Agent)
	return agent, nil
}

// consoleApprover prompts on stdin for gated tool calls.
func consoleApprover() scheduler.Approver {
	reader := bufio.NewReader(os.Stdin)
	return func(call models.ToolCall) bool {
		fmt.Printf("Allow %s with input %s? [y/N] ", call.Name, string(call.Args))
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}

// persistSession records the finished session, best effort.
func persistSession(s *services, session *scheduler.Session, agent string) {
	in, out, _ := s.model.Tracker().Totals()
	err := s.db.CreateSession(&models.Session{
		ID:          session.ID,
		ActiveAgent: agent,
		StartedAt:   session.StartedAt(),
		TokensIn:    in,
		TokensOut:   out,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: session not persisted: %v\n", err)
	}
}
