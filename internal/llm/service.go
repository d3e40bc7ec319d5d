// Package llm provides the model service used by the router and the
// tool-call scheduler: agent classification and turn generation against
// the Anthropic API, with optional AWS Bedrock transport.
package llm

import (
	"context"
	"encoding/json"

	"github.com/awalsh128/orchid/pkg/models"
)

// EventType discriminates turn events.
type EventType string

const (
	// EventContent carries assistant text.
	EventContent EventType = "content"
	// EventToolCall carries a model-issued tool invocation request.
	EventToolCall EventType = "tool_call"
	// EventFinished terminates the sequence for one model call.
	EventFinished EventType = "finished"
	// EventError terminates the sequence with a failure.
	EventError EventType = "error"
)

// ToolCallRequest is a model-issued request to invoke a tool.
type ToolCallRequest struct {
	// ID is the model's identifier for this invocation.
	ID string
	// Name is the requested tool.
	Name string
	// Args is the raw JSON input.
	Args json.RawMessage
}

// ToolResultPayload carries one settled tool result back to the model.
type ToolResultPayload struct {
	// CallID matches the ToolCallRequest ID.
	CallID string
	// Content is the tool output or error text.
	Content string
	// IsError marks failed executions.
	IsError bool
}

// Message is one conversation entry in neutral form. The client maps
// these onto the SDK wire types.
type Message struct {
	// Role is "user" or "assistant".
	Role string
	// Content is the text content, if any.
	Content string
	// ToolCalls holds assistant tool_use blocks.
	ToolCalls []ToolCallRequest
	// ToolResults holds user tool_result blocks.
	ToolResults []ToolResultPayload
}

// ToolSpec describes one tool offered to the model.
type ToolSpec struct {
	// Name is the tool name.
	Name string
	// Description explains the tool to the model.
	Description string
	// Properties is the JSON schema properties object for the input.
	Properties map[string]interface{}
	// Required lists mandatory input fields.
	Required []string
}

// TurnEvent is one element of the finite event sequence produced by a
// single model call.
type TurnEvent struct {
	// Type discriminates the event.
	Type EventType
	// Text is set for content events.
	Text string
	// ToolCall is set for tool_call events.
	ToolCall *ToolCallRequest
	// Err is set for error events.
	Err error
	// EndTurn is set on finished events when the model stopped without
	// requesting tools; the turn loop terminates.
	EndTurn bool
	// TokensIn and TokensOut report usage on finished events.
	TokensIn  int64
	TokensOut int64
}

// TurnRequest describes one model call.
type TurnRequest struct {
	// System is the system prompt.
	System string
	// Messages is the conversation so far.
	Messages []Message
	// Tools are the tool schemas offered for this call.
	Tools []ToolSpec
	// MaxTokens bounds the response; zero uses the service default.
	MaxTokens int64
}

// Service is the model collaborator consumed by the orchestration core.
type Service interface {
	// Classify picks an agent for the input from the candidate list.
	Classify(ctx context.Context, input string, candidates []models.AgentDefinition) (models.RouteDecision, error)
	// GenerateTurn makes one model call and returns its finite event
	// sequence. The channel is closed after the terminal event.
	GenerateTurn(ctx context.Context, req TurnRequest) (<-chan TurnEvent, error)
}
