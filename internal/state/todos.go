package state

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/awalsh128/orchid/pkg/models"
)

// Todo CRUD operations. Dependencies are stored as a JSON array.

// SaveTodos replaces the todo set for a session in one transaction, so
// a partially-written plan never becomes visible.
func (db *DB) SaveTodos(sessionID string, todos []*models.Todo) error {
	return db.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM todos WHERE session_id = ?", sessionID); err != nil {
			return fmt.Errorf("clear todos: %w", err)
		}
		for _, todo := range todos {
			deps, err := json.Marshal(todo.Dependencies)
			if err != nil {
				return fmt.Errorf("marshal dependencies for %s: %w", todo.ID, err)
			}
			var completedAt any
			if todo.CompletedAt != nil {
				completedAt = formatTime(*todo.CompletedAt)
			}
			_, err = tx.Exec(`
				INSERT INTO todos (id, session_id, description, dependencies, status, risks, estimated_time, created_at, completed_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, todo.ID, sessionID, todo.Description, string(deps), string(todo.Status),
				todo.Risks, todo.EstimatedTime, formatTime(todo.CreatedAt), completedAt)
			if err != nil {
				return fmt.Errorf("insert todo %s: %w", todo.ID, err)
			}
		}
		return nil
	})
}

// UpdateTodoStatus persists one todo's status transition.
func (db *DB) UpdateTodoStatus(sessionID string, todo *models.Todo) error {
	var completedAt any
	if todo.CompletedAt != nil {
		completedAt = formatTime(*todo.CompletedAt)
	}
	res, err := db.Exec(`
		UPDATE todos SET status = ?, completed_at = ?
		WHERE session_id = ? AND id = ?
	`, string(todo.Status), completedAt, sessionID, todo.ID)
	if err != nil {
		return fmt.Errorf("update todo %s: %w", todo.ID, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("update todo: no todo %s in session %s", todo.ID, sessionID)
	}
	return nil
}

// GetTodos returns a session's todos in insertion order.
func (db *DB) GetTodos(sessionID string) ([]*models.Todo, error) {
	rows, err := db.Query(`
		SELECT id, description, dependencies, status, risks, estimated_time, created_at, completed_at
		FROM todos WHERE session_id = ? ORDER BY rowid
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get todos: %w", err)
	}
	defer rows.Close()

	var todos []*models.Todo
	for rows.Next() {
		var todo models.Todo
		var deps, status, createdAt string
		var risks, estimated, completedAt sql.NullString
		if err := rows.Scan(&todo.ID, &todo.Description, &deps, &status, &risks, &estimated, &createdAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		if deps != "" && deps != "null" {
			if err := json.Unmarshal([]byte(deps), &todo.Dependencies); err != nil {
				return nil, fmt.Errorf("unmarshal dependencies for %s: %w", todo.ID, err)
			}
		}
		todo.Status = models.TodoStatus(status)
		todo.Risks = risks.String
		todo.EstimatedTime = estimated.String
		if todo.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse todo created_at: %w", err)
		}
		todo.CompletedAt = parseNullableTime(completedAt)
		todos = append(todos, &todo)
	}
	return todos, rows.Err()
}
