package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/awalsh128/orchid/internal/handoff"
	"github.com/awalsh128/orchid/internal/llm"
	"github.com/awalsh128/orchid/internal/scheduler"
	"github.com/awalsh128/orchid/internal/tool"
	"github.com/awalsh128/orchid/pkg/models"
)

// handoffToolName is the extra tool offered to agents that declare
// transfers.
const handoffToolName = "Handoff"

// driver runs conversations: one agent turn at a time, following
// accepted handoffs until an agent finishes without transferring.
type driver struct {
	s       *services
	session *scheduler.Session
	approve scheduler.Approver
}

func newDriver(s *services, session *scheduler.Session, approve scheduler.Approver) *driver {
	return &driver{s: s, session: session, approve: approve}
}

// converse runs the turn loop for agent on input. When a turn accepts a
// handoff, the conversation continues with the target agent; the
// handoff manager's depth limit bounds the chain.
func (d *driver) converse(ctx context.Context, agent models.AgentDefinition, input string) (*scheduler.TurnResult, error) {
	hr := &handoffRunner{base: d.s.tools, mgr: d.s.handoffs}
	hr.current = models.HandoffRequest{From: agent.Name}

	for {
		hr.setAgent(agent)
		engine := scheduler.NewTurnEngine(scheduler.TurnEngineConfig{
			Model:      d.s.model,
			Tools:      hr,
			Session:    d.session,
			Sink:       d.s.sink,
			Approve:    d.approve,
			ExtraTools: handoffSpec(agent),
		})

		result, err := engine.RunTurn(ctx, agent, input, nil)
		if err != nil {
			return result, err
		}

		accepted := hr.take()
		if accepted == nil {
			return result, nil
		}

		next, ok := d.s.registry.Get(accepted.To)
		if !ok {
			// Manager validated existence; losing the agent between
			// acceptance and lookup means the registry changed under us.
			return result, fmt.Errorf("agent %s disappeared after accepted handoff", accepted.To)
		}

		input = handoffInput(agent.Name, accepted, input, result.Output)
		agent = next
	}
}

// handoffInput builds the target agent's opening input. When the
// transfer includes context, the previous agent's output travels with
// the request.
func handoffInput(from string, req *models.HandoffRequest, original, output string) string {
	msg := fmt.Sprintf("Transferred from agent %q.\n\nOriginal request: %s", from, original)
	if req.IncludeContext && output != "" {
		msg += "\n\nWork so far:\n" + output
	}
	return msg
}

// handoffSpec returns the Handoff tool spec for agents that declare
// transfers, or nil for agents that may not transfer.
func handoffSpec(agent models.AgentDefinition) []llm.ToolSpec {
	if len(agent.Handoffs) == 0 {
		return nil
	}

	targets := make([]string, 0, len(agent.Handoffs))
	desc := "Transfer this task to another agent. Allowed targets:"
	for _, h := range agent.Handoffs {
		targets = append(targets, h.To)
		desc += fmt.Sprintf("\n- %s: %s", h.To, h.Condition)
	}

	return []llm.ToolSpec{{
		Name:        handoffToolName,
		Description: desc,
		Properties: map[string]interface{}{
			"to": map[string]interface{}{
				"type":        "string",
				"enum":        targets,
				"description": "Target agent name",
			},
			"reason": map[string]interface{}{
				"type":        "string",
				"description": "Why the task is being transferred",
			},
		},
		Required: []string{"to"},
	}}
}

// handoffRunner wraps the tool runner and services Handoff calls
// through the handoff manager. Other tools pass through untouched.
type handoffRunner struct {
	base tool.Runner
	mgr  *handoff.Manager

	mu       sync.Mutex
	current  models.HandoffRequest
	declared []models.HandoffSpec
	pending  *models.HandoffRequest
}

// setAgent points the runner at the agent whose turn is running, so
// Handoff calls resolve against that agent's declared transfers.
func (h *handoffRunner) setAgent(agent models.AgentDefinition) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.declared = agent.Handoffs
}

func (h *handoffRunner) Execute(ctx context.Context, name string, args json.RawMessage) tool.Result {
	if name != handoffToolName {
		return h.base.Execute(ctx, name, args)
	}

	var call struct {
		To     string `json:"to"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(args, &call); err != nil {
		return tool.Result{Content: fmt.Sprintf("invalid handoff arguments: %v", err), IsError: true}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	req := h.current
	req.To = call.To
	req.IncludeContext = h.includeContext(call.To)

	accepted, err := h.mgr.Request(req)
	if err != nil {
		return tool.Result{Content: fmt.Sprintf("handoff declined: %v", err), IsError: true}
	}

	// The accepted target initiates any further transfer in this chain.
	h.current = models.HandoffRequest{
		From:          accepted.To,
		Chain:         accepted.Chain,
		Depth:         accepted.Depth,
		CorrelationID: accepted.CorrelationID,
	}
	h.pending = &accepted
	return tool.Result{Content: fmt.Sprintf("transfer to %s accepted", call.To)}
}

// includeContext reads the declaring HandoffSpec for the target.
// Callers hold h.mu.
func (h *handoffRunner) includeContext(to string) bool {
	for _, spec := range h.declared {
		if spec.To == to {
			return spec.IncludeContext
		}
	}
	return false
}

// take returns and clears the most recently accepted transfer.
func (h *handoffRunner) take() *models.HandoffRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	accepted := h.pending
	h.pending = nil
	return accepted
}
