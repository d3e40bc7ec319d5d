package models

import "time"

// StepStatus represents the outcome of one workflow step.
type StepStatus string

const (
	// StepStatusSuccess indicates the step completed normally.
	StepStatusSuccess StepStatus = "success"
	// StepStatusError indicates the step failed after all retries.
	StepStatusError StepStatus = "error"
	// StepStatusSkipped indicates the step's when-condition was false.
	StepStatusSkipped StepStatus = "skipped"
)

// Valid returns true if the status is a known value.
func (s StepStatus) Valid() bool {
	switch s {
	case StepStatusSuccess, StepStatusError, StepStatusSkipped:
		return true
	default:
		return false
	}
}

// RunStatus represents the state of one workflow run.
type RunStatus string

const (
	// RunStatusPending indicates the run has not started.
	RunStatusPending RunStatus = "pending"
	// RunStatusRunning indicates steps are being dispatched.
	RunStatusRunning RunStatus = "running"
	// RunStatusCompleted indicates every dispatched step settled and the
	// run finished without a fatal error.
	RunStatusCompleted RunStatus = "completed"
	// RunStatusFailed indicates an abort policy stopped the run.
	RunStatusFailed RunStatus = "failed"
	// RunStatusAborted indicates the run was cancelled or timed out.
	RunStatusAborted RunStatus = "aborted"
)

// Valid returns true if the status is a known value.
func (s RunStatus) Valid() bool {
	switch s {
	case RunStatusPending, RunStatusRunning, RunStatusCompleted,
		RunStatusFailed, RunStatusAborted:
		return true
	default:
		return false
	}
}

// OnErrorPolicy controls what a parallel group does when members fail.
type OnErrorPolicy string

const (
	// OnErrorAbort fails the whole workflow with the aggregated errors.
	OnErrorAbort OnErrorPolicy = "abort"
	// OnErrorContinue proceeds with whatever partial results exist.
	OnErrorContinue OnErrorPolicy = "continue"
)

// Valid returns true if the policy is a known value.
func (p OnErrorPolicy) Valid() bool {
	return p == OnErrorAbort || p == OnErrorContinue
}

// Step is a single unit of a workflow: one agent invocation or raw task.
type Step struct {
	// ID is unique within the workflow.
	ID string `yaml:"id" json:"id"`
	// Agent names the agent to invoke, or an action for raw tasks.
	Agent string `yaml:"agent" json:"agent"`
	// Input is a template resolved against earlier step results.
	Input string `yaml:"input" json:"input"`
	// When is an optional condition template; a falsy result skips the step.
	When string `yaml:"when,omitempty" json:"when,omitempty"`
	// Retries is how many times a failed step is re-attempted.
	Retries int `yaml:"retries,omitempty" json:"retries,omitempty"`
}

// ErrorPolicy governs failure handling for a parallel group.
type ErrorPolicy struct {
	// OnError selects abort or continue when successes fall short.
	OnError OnErrorPolicy `yaml:"on_error" json:"on_error"`
	// MinSuccess is the minimum member successes required.
	// Zero means all members must succeed.
	MinSuccess int `yaml:"min_success,omitempty" json:"min_success,omitempty"`
}

// ParallelGroup fans out member steps concurrently and waits for all
// of them to settle before the workflow proceeds.
type ParallelGroup struct {
	// ID is unique within the workflow.
	ID string `yaml:"id" json:"id"`
	// Steps are the members dispatched concurrently.
	Steps []Step `yaml:"steps" json:"steps"`
	// Policy controls failure handling for the group.
	Policy ErrorPolicy `yaml:"policy" json:"policy"`
}

// WorkflowEntry is a closed variant: exactly one of Step or Group is set.
// Variants are validated at load time, not at use time.
type WorkflowEntry struct {
	// Step is set for a sequential step entry.
	Step *Step `yaml:"step,omitempty" json:"step,omitempty"`
	// Group is set for a parallel group entry.
	Group *ParallelGroup `yaml:"group,omitempty" json:"group,omitempty"`
}

// ID returns the identifier of whichever variant is set.
func (e WorkflowEntry) ID() string {
	if e.Step != nil {
		return e.Step.ID
	}
	if e.Group != nil {
		return e.Group.ID
	}
	return ""
}

// WorkflowDefinition is an ordered pipeline of steps and parallel groups.
// Loaded once per run and read-only during execution.
type WorkflowDefinition struct {
	// Name identifies the workflow.
	Name string `yaml:"name" json:"name"`
	// Description explains what the workflow does.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// Entries execute strictly in declaration order.
	Entries []WorkflowEntry `yaml:"entries" json:"entries"`
	// Timeout bounds the whole run; zero means no limit.
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// StepResult is the write-once record of one executed step. Later steps
// read it through template substitution, keyed by step ID (and by
// "groupID.stepID" for parallel sub-steps).
type StepResult struct {
	// StepID identifies the step that produced this result.
	StepID string `json:"step_id"`
	// Status is the step outcome.
	Status StepStatus `json:"status"`
	// Output is the step's text output; empty for failed sub-steps.
	Output string `json:"output"`
	// Data holds structured key/value output for template lookup.
	Data map[string]string `json:"data,omitempty"`
	// Err is the failure message, if any.
	Err string `json:"error,omitempty"`
	// Attempts is how many times the step ran, including retries.
	Attempts int `json:"attempts,omitempty"`
}

// WorkflowReport is the terminal outcome of one run. Every run produces
// a report; outcomes are never silently dropped.
type WorkflowReport struct {
	// RunID is the unique identifier of this run.
	RunID string `json:"run_id"`
	// Workflow is the definition name.
	Workflow string `json:"workflow"`
	// Status is the final run status.
	Status RunStatus `json:"status"`
	// Results holds per-step results keyed by lookup key.
	Results map[string]*StepResult `json:"results"`
	// Order lists result keys in completion order for stable reporting.
	Order []string `json:"order"`
	// Err is the fatal error for failed or aborted runs.
	Err string `json:"error,omitempty"`
	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`
	// Duration is the total wall-clock run time.
	Duration time.Duration `json:"duration"`
}
