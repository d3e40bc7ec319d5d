package models

import "encoding/json"

// ToolCallStatus represents the lifecycle state of one tool invocation.
type ToolCallStatus string

const (
	// ToolCallValidating indicates the call is being checked against policy.
	ToolCallValidating ToolCallStatus = "validating"
	// ToolCallScheduled indicates the call passed validation and is queued.
	ToolCallScheduled ToolCallStatus = "scheduled"
	// ToolCallAwaitingApproval indicates the call needs user or policy approval.
	ToolCallAwaitingApproval ToolCallStatus = "awaiting_approval"
	// ToolCallExecuting indicates the tool is running.
	ToolCallExecuting ToolCallStatus = "executing"
	// ToolCallSuccess indicates the tool finished normally.
	ToolCallSuccess ToolCallStatus = "success"
	// ToolCallError indicates the tool failed.
	ToolCallError ToolCallStatus = "error"
	// ToolCallCancelled indicates the call was cancelled before completion.
	ToolCallCancelled ToolCallStatus = "cancelled"
)

// Valid returns true if the status is a known value.
func (s ToolCallStatus) Valid() bool {
	switch s {
	case ToolCallValidating, ToolCallScheduled, ToolCallAwaitingApproval,
		ToolCallExecuting, ToolCallSuccess, ToolCallError, ToolCallCancelled:
		return true
	default:
		return false
	}
}

// Terminal returns true for states a call can never leave.
func (s ToolCallStatus) Terminal() bool {
	switch s {
	case ToolCallSuccess, ToolCallError, ToolCallCancelled:
		return true
	default:
		return false
	}
}

// ToolCall tracks one model-issued tool invocation from request to the
// submission of its result back to the model. Calls are dropped from the
// tracked set once their response has been submitted.
type ToolCall struct {
	// CallID is unique per invocation.
	CallID string `json:"call_id"`
	// TurnID groups calls issued by the same model turn.
	TurnID string `json:"turn_id"`
	// Name is the tool name requested by the model.
	Name string `json:"name"`
	// Args is the raw JSON input for the tool.
	Args json.RawMessage `json:"args"`
	// Status is the current lifecycle state.
	Status ToolCallStatus `json:"status"`
	// Result is the tool output once the call settles.
	Result string `json:"result,omitempty"`
	// IsError is true when Result describes a failure.
	IsError bool `json:"is_error,omitempty"`
	// ResponseSubmitted is true once the result went back to the model.
	// Submitted calls are excluded from all future response batches.
	ResponseSubmitted bool `json:"response_submitted"`
}
