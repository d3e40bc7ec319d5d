package llm

import "sync"

// TokenTracker accumulates token usage across model calls.
type TokenTracker struct {
	mu        sync.Mutex
	tokensIn  int64
	tokensOut int64
	calls     int
}

// NewTokenTracker creates an empty tracker.
func NewTokenTracker() *TokenTracker {
	return &TokenTracker{}
}

// Add records usage from one model call.
func (t *TokenTracker) Add(in, out int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tokensIn += in
	t.tokensOut += out
	t.calls++
}

// Totals returns accumulated input tokens, output tokens, and call count.
func (t *TokenTracker) Totals() (in, out int64, calls int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tokensIn, t.tokensOut, t.calls
}
