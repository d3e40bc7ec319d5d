package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/awalsh128/orchid/internal/scheduler"
	"github.com/awalsh128/orchid/pkg/models"
)

// planFile is the on-disk shape of a plan: a named list of todos.
type planFile struct {
	Name  string         `yaml:"name"`
	Todos []*models.Todo `yaml:"todos"`
}

var planCmd = &cobra.Command{
	Use:   "plan <file>",
	Short: "Load a plan file and persist its todos for execution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildServices()
		if err != nil {
			return err
		}
		defer s.Close()

		plan, err := loadPlan(args[0])
		if err != nil {
			return err
		}

		// Validate dependencies before anything is persisted. A cycle
		// or unknown reference means no valid execution order exists.
		graph := scheduler.NewGraph()
		if err := graph.Build(plan.Todos); err != nil {
			return fmt.Errorf("invalid plan: %w", err)
		}

		session := scheduler.NewSession(s.sink)
		if err := s.db.CreateSession(&models.Session{
			ID:        session.ID,
			StartedAt: session.StartedAt(),
		}); err != nil {
			return err
		}
		if err := s.db.SaveTodos(session.ID, plan.Todos); err != nil {
			return err
		}

		order, _ := graph.TopologicalOrder()
		fmt.Printf("Plan %q: %d todos saved to session %s\n", plan.Name, len(plan.Todos), session.ID)
		fmt.Println("Execution order:")
		for i, id := range order {
			todo := graph.Get(id)
			fmt.Printf("  %d. %s: %s\n", i+1, id, todo.Description)
		}
		fmt.Println("\nRun them with: orchid todo run --all")
		return nil
	},
}

// loadPlan parses and normalizes the plan file. Todos arrive pending
// unless the file says otherwise.
func loadPlan(path string) (*planFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var plan planFile
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", path, err)
	}
	if len(plan.Todos) == 0 {
		return nil, fmt.Errorf("plan %s contains no todos", path)
	}

	now := time.Now()
	for _, todo := range plan.Todos {
		if todo.Status == "" {
			todo.Status = models.TodoStatusPending
		}
		if !todo.Status.Valid() {
			return nil, fmt.Errorf("todo %s has unknown status %q", todo.ID, todo.Status)
		}
		if todo.CreatedAt.IsZero() {
			todo.CreatedAt = now
		}
	}
	return &plan, nil
}
