package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/awalsh128/orchid/pkg/models"
)

// ErrNoSelection indicates the model replied that no candidate fits.
// It is a valid classification outcome, not a transport failure.
var ErrNoSelection = errors.New("classifier selected no agent")

// classifySystemPrompt instructs the model to act as a request classifier.
const classifySystemPrompt = `You are a request classifier for a terminal assistant.
Pick the single best agent for the user request from the candidate list.
Respond with only a JSON object of the form {"agent": "<name>"}.
If no candidate fits, use {"agent": ""}.`

// Classify asks the model to pick an agent for the input. The returned
// decision carries only the agent name; the router assigns confidence
// and strategy.
func (c *Client) Classify(ctx context.Context, input string, candidates []models.AgentDefinition) (models.RouteDecision, error) {
	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 256,
		System:    []anthropic.TextBlockParam{{Text: classifySystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildClassifyPrompt(input, candidates))),
		},
	})
	if err != nil {
		return models.RouteDecision{}, fmt.Errorf("classify call: %w", err)
	}

	c.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var text string
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += variant.Text
		}
	}

	agent, err := parseClassification(text)
	if err != nil {
		return models.RouteDecision{}, err
	}
	return models.RouteDecision{Agent: agent}, nil
}

// buildClassifyPrompt renders the candidate list and user request.
func buildClassifyPrompt(input string, candidates []models.AgentDefinition) string {
	var b strings.Builder
	b.WriteString("Candidate agents:\n")
	for _, a := range candidates {
		fmt.Fprintf(&b, "- %s", a.Name)
		if a.Title != "" {
			fmt.Fprintf(&b, " (%s)", a.Title)
		}
		if len(a.Triggers.Keywords) > 0 {
			fmt.Fprintf(&b, ": handles %s", strings.Join(a.Triggers.Keywords, ", "))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nUser request:\n%s\n", input)
	return b.String()
}

// parseClassification extracts the agent name from the model's JSON
// reply, tolerating surrounding prose or code fences.
func parseClassification(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("classification reply has no JSON object: %q", text)
	}

	var payload struct {
		Agent string `json:"agent"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return "", fmt.Errorf("parse classification: %w", err)
	}
	if payload.Agent == "" {
		return "", ErrNoSelection
	}
	return payload.Agent, nil
}
