package models

import "testing"

func TestToolCallStatusValid(t *testing.T) {
	valid := []ToolCallStatus{
		ToolCallValidating, ToolCallScheduled, ToolCallAwaitingApproval,
		ToolCallExecuting, ToolCallSuccess, ToolCallError, ToolCallCancelled,
	}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("expected %q to be valid", s)
		}
	}

	if ToolCallStatus("done").Valid() {
		t.Error("expected unknown status to be invalid")
	}
}

func TestToolCallStatusTerminal(t *testing.T) {
	terminal := []ToolCallStatus{ToolCallSuccess, ToolCallError, ToolCallCancelled}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("expected %q to be terminal", s)
		}
	}

	nonTerminal := []ToolCallStatus{
		ToolCallValidating, ToolCallScheduled, ToolCallAwaitingApproval, ToolCallExecuting,
	}
	for _, s := range nonTerminal {
		if s.Terminal() {
			t.Errorf("expected %q to be non-terminal", s)
		}
	}
}

func TestWorkflowEntryID(t *testing.T) {
	step := WorkflowEntry{Step: &Step{ID: "build"}}
	if step.ID() != "build" {
		t.Errorf("expected step entry ID 'build', got %q", step.ID())
	}

	group := WorkflowEntry{Group: &ParallelGroup{ID: "checks"}}
	if group.ID() != "checks" {
		t.Errorf("expected group entry ID 'checks', got %q", group.ID())
	}

	empty := WorkflowEntry{}
	if empty.ID() != "" {
		t.Errorf("expected empty entry ID, got %q", empty.ID())
	}
}
