package models

// RouteStrategy selects how the router picks an agent for an input.
type RouteStrategy string

const (
	// StrategyRule uses only static signal scoring.
	StrategyRule RouteStrategy = "rule"
	// StrategyLLM always asks the model service to classify the input.
	StrategyLLM RouteStrategy = "llm"
	// StrategyHybrid tries rule scoring first and falls back to the model.
	StrategyHybrid RouteStrategy = "hybrid"
)

// Valid returns true if the strategy is a known value.
func (s RouteStrategy) Valid() bool {
	switch s {
	case StrategyRule, StrategyLLM, StrategyHybrid:
		return true
	default:
		return false
	}
}

// RouteDecision is the outcome of one routing call. It is created per
// call and never persisted.
type RouteDecision struct {
	// Agent is the name of the selected agent.
	Agent string `json:"agent"`
	// Confidence is the selection confidence in the range 0-100.
	Confidence int `json:"confidence"`
	// Strategy is the strategy that produced this decision.
	Strategy RouteStrategy `json:"strategy"`
	// MatchedSignals lists the keywords and patterns that matched.
	MatchedSignals []string `json:"matched_signals,omitempty"`
}
