package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/awalsh128/orchid/internal/audit"
	"github.com/awalsh128/orchid/internal/llm"
	"github.com/awalsh128/orchid/internal/tool"
	"github.com/awalsh128/orchid/pkg/models"
)

// defaultMaxIterations bounds model calls per turn loop.
const defaultMaxIterations = 50

// Approver decides whether a gated tool call may execute in the default
// queue mode. A false return cancels the call.
type Approver func(call models.ToolCall) bool

// TurnResult contains the results of one turn loop.
type TurnResult struct {
	// Output is the final assistant text.
	Output string
	// ToolCalls counts tool invocations across all iterations.
	ToolCalls int
	// Iterations counts model calls made.
	Iterations int
	// TokensIn and TokensOut accumulate usage.
	TokensIn  int64
	TokensOut int64
	// Cancelled is true when the turn stopped on the session's flag.
	Cancelled bool
}

// TurnEngine runs the model call and tool execution cycle for one agent.
// It consumes the finite event sequence of each model call, tracks the
// lifecycle of every issued tool call, and submits exactly one
// aggregated response per batch back to the model.
type TurnEngine struct {
	model   llm.Service
	tools   tool.Runner
	session *Session
	sink    audit.Sink
	approve Approver

	extraTools []llm.ToolSpec
	extraNames map[string]bool

	maxIterations int
}

// TurnEngineConfig contains configuration for the turn engine.
type TurnEngineConfig struct {
	Model   llm.Service
	Tools   tool.Runner
	Session *Session
	Sink    audit.Sink
	// Approve handles manual confirmation in the default mode.
	// When nil, gated calls are cancelled instead of executed.
	Approve Approver
	// ExtraTools are offered to the model in addition to the built-in
	// set and bypass the agent's tool policy. The configured Runner
	// must handle their names.
	ExtraTools []llm.ToolSpec
	// MaxIterations bounds model calls per turn (0 = default).
	MaxIterations int
}

// NewTurnEngine creates a turn engine.
func NewTurnEngine(cfg TurnEngineConfig) *TurnEngine {
	maxIter := cfg.MaxIterations
	if maxIter == 0 {
		maxIter = defaultMaxIterations
	}
	sink := cfg.Sink
	if sink == nil {
		sink = audit.Nop{}
	}
	extraNames := make(map[string]bool, len(cfg.ExtraTools))
	for _, spec := range cfg.ExtraTools {
		extraNames[spec.Name] = true
	}
	return &TurnEngine{
		model:         cfg.Model,
		tools:         cfg.Tools,
		session:       cfg.Session,
		sink:          sink,
		approve:       cfg.Approve,
		extraTools:    cfg.ExtraTools,
		extraNames:    extraNames,
		maxIterations: maxIter,
	}
}

// RunTurn executes the turn loop for one agent on the given input.
// history carries prior conversation for shared-context agents.
func (e *TurnEngine) RunTurn(ctx context.Context, agent models.AgentDefinition, input string, history []llm.Message) (*TurnResult, error) {
	result := &TurnResult{}

	specs := append(tool.FilterSpecs(tool.Specs(), agent.ToolPolicy), e.extraTools...)
	messages := append(append([]llm.Message(nil), history...), llm.Message{Role: "user", Content: input})

	for result.Iterations < e.maxIterations {
		if e.session.Cancelled() {
			result.Cancelled = true
			return result, context.Canceled
		}
		result.Iterations++

		events, err := e.model.GenerateTurn(ctx, llm.TurnRequest{
			System:   agent.SystemPrompt,
			Messages: messages,
			Tools:    specs,
		})
		if err != nil {
			return result, fmt.Errorf("generate turn: %w", err)
		}

		// Each model call's tool batch is one submission unit.
		turnID := uuid.NewString()
		var text string
		var requests []llm.ToolCallRequest
		var endTurn bool

		for ev := range events {
			switch ev.Type {
			case llm.EventContent:
				text += ev.Text
			case llm.EventToolCall:
				requests = append(requests, *ev.ToolCall)
			case llm.EventFinished:
				endTurn = ev.EndTurn
				result.TokensIn += ev.TokensIn
				result.TokensOut += ev.TokensOut
			case llm.EventError:
				return result, fmt.Errorf("model stream: %w", ev.Err)
			}
		}

		if endTurn && len(requests) == 0 {
			result.Output = text
			return result, nil
		}

		// Validate and schedule every issued call before dispatching.
		tracker := e.session.Tracker()
		for _, req := range requests {
			result.ToolCalls++
			tracker.Track(turnID, req.ID, req.Name, req.Args)
			if !e.extraNames[req.Name] && !agent.ToolPolicy.Permits(req.Name) {
				tracker.Fail(req.ID, fmt.Sprintf("tool %s is not permitted for agent %s", req.Name, agent.Name))
				continue
			}
			tracker.Transition(req.ID, models.ToolCallScheduled)
		}

		e.dispatch(ctx, turnID, requests)

		// One aggregated response submission per batch; calls already
		// flagged submitted are excluded.
		batch := tracker.PendingSubmission(turnID)
		assistant := llm.Message{Role: "assistant", Content: text, ToolCalls: requests}
		reply := llm.Message{Role: "user"}
		ids := make([]string, 0, len(batch))
		for _, call := range batch {
			content := call.Result
			isError := call.IsError
			if call.Status == models.ToolCallCancelled {
				if content == "" {
					content = "tool call cancelled"
				}
				isError = true
			}
			reply.ToolResults = append(reply.ToolResults, llm.ToolResultPayload{
				CallID:  call.CallID,
				Content: content,
				IsError: isError,
			})
			ids = append(ids, call.CallID)
		}
		tracker.MarkSubmitted(ids)

		messages = append(messages, assistant)
		if len(reply.ToolResults) > 0 {
			messages = append(messages, reply)
		}

		if e.session.Cancelled() {
			result.Cancelled = true
			result.Output = text
			return result, context.Canceled
		}
	}

	return result, fmt.Errorf("max iterations (%d) reached", e.maxIterations)
}

// dispatch executes the batch's scheduled calls in order, applying the
// approval gate. Gated calls wait for approval in the default mode and
// run immediately under auto-approval.
func (e *TurnEngine) dispatch(ctx context.Context, turnID string, requests []llm.ToolCallRequest) {
	tracker := e.session.Tracker()

	for _, req := range requests {
		if e.session.Cancelled() {
			tracker.CancelPending()
			return
		}

		call, ok := tracker.Get(req.ID)
		if !ok || call.Status != models.ToolCallScheduled {
			continue
		}

		if tool.Gated(call.Name) && e.session.Mode() != models.QueueModeAutoEdit {
			tracker.Transition(call.CallID, models.ToolCallAwaitingApproval)
			call, _ = tracker.Get(call.CallID)

			if e.approve == nil || !e.approve(call) {
				tracker.Transition(call.CallID, models.ToolCallCancelled)
				continue
			}
			released := tracker.ReleaseAwaiting(func(c models.ToolCall) bool {
				return c.CallID == call.CallID
			})
			if len(released) == 0 {
				continue
			}
		} else {
			tracker.Transition(call.CallID, models.ToolCallExecuting)
		}

		res := e.tools.Execute(ctx, call.Name, call.Args)
		tracker.Settle(call.CallID, res.Content, res.IsError)
	}
}

// EnableAutoApprove switches waiting calls loose: every call sitting in
// awaiting_approval transitions to executing without further user input
// and is run to completion.
func (e *TurnEngine) EnableAutoApprove(ctx context.Context) []models.ToolCall {
	tracker := e.session.Tracker()
	released := tracker.ReleaseAwaiting(nil)
	for _, call := range released {
		res := e.tools.Execute(ctx, call.Name, call.Args)
		tracker.Settle(call.CallID, res.Content, res.IsError)
	}
	return released
}
