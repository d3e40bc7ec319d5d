package models

import "time"

// Session scopes one interactive run of the assistant. The session owns
// the active ExecutionQueue and the tracked tool-call set; both are
// created on first use and destroyed on completion or cancellation.
type Session struct {
	// ID is the unique identifier for this session.
	ID string `json:"id"`
	// ActiveAgent is the agent currently handling the conversation.
	ActiveAgent string `json:"active_agent"`
	// StartedAt is when the session began.
	StartedAt time.Time `json:"started_at"`
	// TokensIn is the number of input tokens consumed so far.
	TokensIn int64 `json:"tokens_in"`
	// TokensOut is the number of output tokens produced so far.
	TokensOut int64 `json:"tokens_out"`
}
