package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/awalsh128/orchid/internal/scheduler"
	"github.com/awalsh128/orchid/internal/state"
	"github.com/awalsh128/orchid/pkg/models"
)

var (
	todoSession  string
	todoRunAll   bool
	todoAutoEdit bool
)

var todoCmd = &cobra.Command{
	Use:   "todo",
	Short: "Run and inspect persisted todos",
}

var todoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List todos of the most recent plan",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildServices()
		if err != nil {
			return err
		}
		defer s.Close()

		sessionID, todos, err := loadTodos(s.db)
		if err != nil {
			return err
		}

		fmt.Printf("Session %s:\n", sessionID)
		for _, todo := range todos {
			fmt.Printf("  %s %s: %s\n", statusBadge(todo.Status), todo.ID, todo.Description)
		}
		return nil
	},
}

var todoRunCmd = &cobra.Command{
	Use:   "run [id]",
	Short: "Execute todos in dependency order",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !todoRunAll && len(args) == 0 {
			return errors.New("name a todo id or pass --all")
		}

		s, err := buildServices()
		if err != nil {
			return err
		}
		defer s.Close()

		sessionID, todos, err := loadTodos(s.db)
		if err != nil {
			return err
		}

		graph := scheduler.NewGraph()
		if err := graph.Build(todos); err != nil {
			return err
		}

		session := scheduler.NewSession(s.sink)
		runner := newAgentRunner(s, session, consoleApprover())
		batch := scheduler.NewBatchScheduler(graph, session, runner, s.sink)

		mode := models.QueueModeDefault
		if todoAutoEdit {
			mode = models.QueueModeAutoEdit
		}

		var runErr error
		if todoRunAll {
			var queue models.ExecutionQueue
			queue, runErr = batch.RunBatch(cmd.Context(), mode)
			fmt.Printf("batch finished: %d/%d todos\n", queue.CurrentIndex, queue.TotalCount)
		} else {
			runErr = batch.ExecuteOne(cmd.Context(), args[0], mode)
			if runErr == nil {
				if todo := batch.AutoCompleteSingleInProgress(); todo != nil {
					fmt.Printf("marked %s completed\n", todo.ID)
				}
			}
		}

		persistTodos(s.db, sessionID, graph.Todos())
		return runErr
	},
}

func init() {
	todoCmd.PersistentFlags().StringVar(&todoSession, "session", "", "Session holding the todos (default: most recent)")
	todoRunCmd.Flags().BoolVar(&todoRunAll, "all", false, "Run every pending todo in dependency order")
	todoRunCmd.Flags().BoolVar(&todoAutoEdit, "auto-edit", false, "Execute gated tool calls without asking")
	todoCmd.AddCommand(todoListCmd)
	todoCmd.AddCommand(todoRunCmd)
}

// loadTodos finds the requested session's todos, defaulting to the most
// recent session that has any.
func loadTodos(db *state.DB) (string, []*models.Todo, error) {
	if todoSession != "" {
		todos, err := db.GetTodos(todoSession)
		if err != nil {
			return "", nil, err
		}
		if len(todos) == 0 {
			return "", nil, fmt.Errorf("session %s has no todos", todoSession)
		}
		return todoSession, todos, nil
	}

	sessions, err := db.ListSessions()
	if err != nil {
		return "", nil, err
	}
	for _, sess := range sessions {
		todos, err := db.GetTodos(sess.ID)
		if err != nil {
			return "", nil, err
		}
		if len(todos) > 0 {
			return sess.ID, todos, nil
		}
	}
	return "", nil, errors.New("no todos found; create some with: orchid plan <file>")
}

// persistTodos writes back every todo's status, best effort.
func persistTodos(db *state.DB, sessionID string, todos []*models.Todo) {
	for _, todo := range todos {
		if err := db.UpdateTodoStatus(sessionID, todo); err != nil {
			fmt.Fprintf(os.Stderr, "warning: todo %s not persisted: %v\n", todo.ID, err)
		}
	}
}

func statusBadge(status models.TodoStatus) string {
	switch status {
	case models.TodoStatusCompleted:
		return color.GreenString("[done]")
	case models.TodoStatusInProgress:
		return color.YellowString("[busy]")
	case models.TodoStatusCancelled:
		return color.RedString("[cancelled]")
	default:
		return "[pending]"
	}
}
