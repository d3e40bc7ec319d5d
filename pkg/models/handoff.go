package models

// MaxHandoffDepth is the maximum number of transfers in one handoff chain.
const MaxHandoffDepth = 5

// HandoffRequest describes a transfer of an in-flight task between agents.
// It is created at transfer time and consumed immediately; only the
// correlation ID survives across the whole chain.
type HandoffRequest struct {
	// From is the agent currently holding the task.
	From string `json:"from"`
	// To is the agent the task should transfer to.
	To string `json:"to"`
	// Chain is the transfer history so far, starting with the first agent.
	// To must never appear in Chain before the request is accepted.
	Chain []string `json:"chain"`
	// Depth is the number of transfers already performed.
	Depth int `json:"depth"`
	// CorrelationID threads one handoff chain together for audit.
	// Minted at the first handoff in a chain, inherited afterwards.
	CorrelationID string `json:"correlation_id"`
	// IncludeContext copies the conversation context to the target's turn.
	IncludeContext bool `json:"include_context"`
}
