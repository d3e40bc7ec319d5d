package models

import "time"

// TodoStatus represents the current state of a todo.
type TodoStatus string

const (
	// TodoStatusPending indicates the todo has not started.
	TodoStatusPending TodoStatus = "pending"
	// TodoStatusInProgress indicates the todo is being worked on.
	TodoStatusInProgress TodoStatus = "in_progress"
	// TodoStatusCompleted indicates the todo finished successfully.
	TodoStatusCompleted TodoStatus = "completed"
	// TodoStatusCancelled indicates the todo was cancelled mid-run.
	TodoStatusCancelled TodoStatus = "cancelled"
)

// Valid returns true if the status is a known value.
func (s TodoStatus) Valid() bool {
	switch s {
	case TodoStatusPending, TodoStatusInProgress, TodoStatusCompleted, TodoStatusCancelled:
		return true
	default:
		return false
	}
}

// Todo is a discrete, dependency-tracked unit of work derived from a plan.
// Todos are mutated in place as execution proceeds and never deleted
// during a run, only status-transitioned.
type Todo struct {
	// ID is the unique identifier for this todo.
	ID string `yaml:"id" json:"id"`
	// Description is what the work entails.
	Description string `yaml:"description" json:"description"`
	// Dependencies lists todo IDs that must complete before this one.
	Dependencies []string `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	// Status is the current state of the todo.
	Status TodoStatus `yaml:"status" json:"status"`
	// Risks describes known hazards of this work.
	Risks string `yaml:"risks,omitempty" json:"risks,omitempty"`
	// EstimatedTime is a rough effort estimate.
	EstimatedTime string `yaml:"estimated_time,omitempty" json:"estimated_time,omitempty"`
	// CreatedAt is when the todo was created.
	CreatedAt time.Time `yaml:"created_at,omitempty" json:"created_at,omitempty"`
	// CompletedAt is when the todo completed, if applicable.
	CompletedAt *time.Time `yaml:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// QueueMode controls approval behavior during a batch run.
type QueueMode string

const (
	// QueueModeDefault requires manual approval for gated tool calls.
	QueueModeDefault QueueMode = "default"
	// QueueModeAutoEdit auto-approves edit-class tool calls.
	QueueModeAutoEdit QueueMode = "auto_edit"
)

// Valid returns true if the mode is a known value.
func (m QueueMode) Valid() bool {
	return m == QueueModeDefault || m == QueueModeAutoEdit
}

// ExecutionQueue tracks one batch run over the todo set. At most one
// queue may be active per session. The queue owns no Todo objects, only
// references by ID.
type ExecutionQueue struct {
	// Active is true while a batch run is in progress.
	Active bool `json:"active"`
	// Mode is the approval mode for this batch.
	Mode QueueMode `json:"mode"`
	// CurrentIndex is the number of todos completed so far in this batch.
	CurrentIndex int `json:"current_index"`
	// TotalCount is the number of todos scheduled when the batch started.
	TotalCount int `json:"total_count"`
	// ExecutingTodoID is the ID of the todo currently in progress.
	ExecutingTodoID string `json:"executing_todo_id,omitempty"`
}
