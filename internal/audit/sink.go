// Package audit delivers orchestration outcomes to the display layer.
// The core calls the sink but never blocks on it; rendering choices
// belong to the sink implementation.
package audit

import "github.com/awalsh128/orchid/pkg/models"

// Sink receives orchestration events for rendering or logging.
// Implementations must be safe for concurrent use and must not block.
type Sink interface {
	// RouteDecided reports the outcome of one routing call.
	RouteDecided(input string, decision models.RouteDecision)
	// RouteMissed reports a routing call that found no agent.
	RouteMissed(input string, strategy models.RouteStrategy)
	// HandoffAccepted reports a validated transfer.
	HandoffAccepted(req models.HandoffRequest)
	// HandoffRejected reports a declined transfer with its reason.
	HandoffRejected(req models.HandoffRequest, reason error)
	// StepSettled reports one workflow step result.
	StepSettled(workflow string, result models.StepResult)
	// WorkflowFinished reports the terminal outcome of a run.
	WorkflowFinished(report models.WorkflowReport)
	// ToolCallTransition reports a tool call status change.
	ToolCallTransition(call models.ToolCall, from models.ToolCallStatus)
	// BatchProgress reports todo batch advancement.
	BatchProgress(queue models.ExecutionQueue)
}

// Nop is a Sink that discards every event.
type Nop struct{}

func (Nop) RouteDecided(string, models.RouteDecision)                  {}
func (Nop) RouteMissed(string, models.RouteStrategy)                   {}
func (Nop) HandoffAccepted(models.HandoffRequest)                      {}
func (Nop) HandoffRejected(models.HandoffRequest, error)               {}
func (Nop) StepSettled(string, models.StepResult)                      {}
func (Nop) WorkflowFinished(models.WorkflowReport)                     {}
func (Nop) ToolCallTransition(models.ToolCall, models.ToolCallStatus)  {}
func (Nop) BatchProgress(models.ExecutionQueue)                        {}
