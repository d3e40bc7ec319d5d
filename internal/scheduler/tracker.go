package scheduler

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/awalsh128/orchid/internal/audit"
	"github.com/awalsh128/orchid/pkg/models"
)

// legalTransitions maps each tool call status to the statuses it may
// move to. Cancellation from any pre-terminal state is handled in
// Transition directly.
var legalTransitions = map[models.ToolCallStatus][]models.ToolCallStatus{
	models.ToolCallValidating:       {models.ToolCallScheduled, models.ToolCallError},
	models.ToolCallScheduled:        {models.ToolCallAwaitingApproval, models.ToolCallExecuting},
	models.ToolCallAwaitingApproval: {models.ToolCallExecuting},
	models.ToolCallExecuting:        {models.ToolCallSuccess, models.ToolCallError},
}

// Tracker owns the set of outstanding tool calls for one session. All
// status mutation goes through its reaction methods, preserving the
// single-writer invariant per call.
type Tracker struct {
	mu    sync.Mutex
	calls map[string]*models.ToolCall
	order []string
	sink  audit.Sink
}

// NewTracker creates an empty tracker. sink may be nil.
func NewTracker(sink audit.Sink) *Tracker {
	if sink == nil {
		sink = audit.Nop{}
	}
	return &Tracker{
		calls: make(map[string]*models.ToolCall),
		sink:  sink,
	}
}

// Track registers a model-issued call in the validating state.
func (t *Tracker) Track(turnID, callID, name string, args json.RawMessage) models.ToolCall {
	t.mu.Lock()
	defer t.mu.Unlock()

	call := &models.ToolCall{
		CallID: callID,
		TurnID: turnID,
		Name:   name,
		Args:   args,
		Status: models.ToolCallValidating,
	}
	t.calls[callID] = call
	t.order = append(t.order, callID)
	debugLog("[tracker] tracking call %s (%s) for turn %s", callID, name, turnID)
	return *call
}

// Transition moves a call to a new status. Cancellation is allowed from
// any pre-terminal state; every other move must be legal per the
// lifecycle table.
func (t *Tracker) Transition(callID string, to models.ToolCallStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transitionLocked(callID, to)
}

func (t *Tracker) transitionLocked(callID string, to models.ToolCallStatus) error {
	call, ok := t.calls[callID]
	if !ok {
		return fmt.Errorf("unknown tool call %s", callID)
	}

	from := call.Status
	if to == models.ToolCallCancelled {
		if from.Terminal() {
			return fmt.Errorf("tool call %s already terminal (%s)", callID, from)
		}
	} else {
		legal := false
		for _, next := range legalTransitions[from] {
			if next == to {
				legal = true
				break
			}
		}
		if !legal {
			return fmt.Errorf("illegal tool call transition %s → %s for %s", from, to, callID)
		}
	}

	call.Status = to
	debugLog("[tracker] call %s: %s → %s", callID, from, to)
	t.sink.ToolCallTransition(*call, from)
	return nil
}

// Settle records the execution outcome of a call and moves it to
// success or error.
func (t *Tracker) Settle(callID, result string, isError bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	call, ok := t.calls[callID]
	if !ok {
		return fmt.Errorf("unknown tool call %s", callID)
	}
	call.Result = result
	call.IsError = isError

	to := models.ToolCallSuccess
	if isError {
		to = models.ToolCallError
	}
	return t.transitionLocked(callID, to)
}

// Fail records a validation failure: the call moves directly from
// validating to error with the given message. Failed calls are still
// submitted back to the model so it can react.
func (t *Tracker) Fail(callID, message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	call, ok := t.calls[callID]
	if !ok {
		return fmt.Errorf("unknown tool call %s", callID)
	}
	call.Result = message
	call.IsError = true
	return t.transitionLocked(callID, models.ToolCallError)
}

// ReleaseAwaiting moves awaiting_approval calls accepted by match into
// executing and returns them. A nil match releases every waiting call,
// which is what an auto-approval mode switch does.
func (t *Tracker) ReleaseAwaiting(match func(models.ToolCall) bool) []models.ToolCall {
	t.mu.Lock()
	defer t.mu.Unlock()

	var released []models.ToolCall
	for _, id := range t.order {
		call, ok := t.calls[id]
		if !ok || call.Status != models.ToolCallAwaitingApproval {
			continue
		}
		if match != nil && !match(*call) {
			continue
		}
		if err := t.transitionLocked(id, models.ToolCallExecuting); err == nil {
			released = append(released, *call)
		}
	}
	return released
}

// CancelPending flips every pre-terminal call to cancelled and returns
// the affected call IDs. Used on user interrupt; in-flight external
// executions are not force-killed, only their results discarded.
func (t *Tracker) CancelPending() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var cancelled []string
	for _, id := range t.order {
		call, ok := t.calls[id]
		if !ok || call.Status.Terminal() {
			continue
		}
		if err := t.transitionLocked(id, models.ToolCallCancelled); err == nil {
			cancelled = append(cancelled, id)
		}
	}
	return cancelled
}

// Get returns a copy of the tracked call and whether it exists.
func (t *Tracker) Get(callID string) (models.ToolCall, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	call, ok := t.calls[callID]
	if !ok {
		return models.ToolCall{}, false
	}
	return *call, true
}

// Awaiting returns copies of all calls waiting for approval, in
// creation order.
func (t *Tracker) Awaiting() []models.ToolCall {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []models.ToolCall
	for _, id := range t.order {
		if call, ok := t.calls[id]; ok && call.Status == models.ToolCallAwaitingApproval {
			out = append(out, *call)
		}
	}
	return out
}

// PendingSubmission returns the turn's terminal calls whose responses
// have not yet been submitted, in creation order.
func (t *Tracker) PendingSubmission(turnID string) []models.ToolCall {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []models.ToolCall
	for _, id := range t.order {
		call, ok := t.calls[id]
		if !ok || call.TurnID != turnID {
			continue
		}
		if call.Status.Terminal() && !call.ResponseSubmitted {
			out = append(out, *call)
		}
	}
	return out
}

// MarkSubmitted flags the calls as submitted and drops them from the
// tracked set. Submission is idempotent: a call marked here is excluded
// from every future PendingSubmission batch.
func (t *Tracker) MarkSubmitted(callIDs []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range callIDs {
		call, ok := t.calls[id]
		if !ok {
			continue
		}
		call.ResponseSubmitted = true
		delete(t.calls, id)
	}

	remaining := t.order[:0]
	for _, id := range t.order {
		if _, ok := t.calls[id]; ok {
			remaining = append(remaining, id)
		}
	}
	t.order = remaining
}

// Outstanding returns the number of tracked calls.
func (t *Tracker) Outstanding() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}
