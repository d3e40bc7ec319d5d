// Package handoff validates and executes transfers of an in-flight task
// between agents. Validation is pure and runs before any side effect,
// so a rejected transfer never leaves partially-mutated state.
package handoff

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/awalsh128/orchid/internal/audit"
	"github.com/awalsh128/orchid/internal/registry"
	"github.com/awalsh128/orchid/pkg/models"
)

// ErrCircularHandoff indicates the target already appears in the chain.
var ErrCircularHandoff = errors.New("circular handoff")

// ErrDepthExceeded indicates the chain is at its maximum length.
var ErrDepthExceeded = errors.New("handoff depth exceeded")

// ErrUnknownAgent indicates the target names no registered agent.
var ErrUnknownAgent = errors.New("unknown handoff target")

// ContextCopier copies conversation context into the target agent's
// turn when a transfer requests it.
type ContextCopier interface {
	CopyContext(from, to string) error
}

// Manager validates and records agent-to-agent transfers.
type Manager struct {
	registry *registry.Registry
	sink     audit.Sink
	copier   ContextCopier
}

// New creates a handoff manager. sink may be nil to disable audit
// emission; copier may be nil when context copying is unavailable.
func New(reg *registry.Registry, sink audit.Sink, copier ContextCopier) *Manager {
	if sink == nil {
		sink = audit.Nop{}
	}
	return &Manager{registry: reg, sink: sink, copier: copier}
}

// Validate runs the cycle, depth, and existence checks without side
// effects. The checks run in that order so a request failing several
// reports the most structural problem first.
func (m *Manager) Validate(req models.HandoffRequest) error {
	for _, hop := range req.Chain {
		if hop == req.To {
			return fmt.Errorf("%w: %s already in chain %v", ErrCircularHandoff, req.To, req.Chain)
		}
	}
	if req.From == req.To {
		return fmt.Errorf("%w: self-transfer to %s", ErrCircularHandoff, req.To)
	}
	if req.Depth+1 > models.MaxHandoffDepth {
		return fmt.Errorf("%w: depth %d at limit %d", ErrDepthExceeded, req.Depth, models.MaxHandoffDepth)
	}
	if !m.registry.Has(req.To) {
		return fmt.Errorf("%w: %q", ErrUnknownAgent, req.To)
	}
	return nil
}

// Request validates the transfer and, on acceptance, returns the
// advanced request: target appended to the chain, depth incremented,
// correlation ID threaded through (minted here on the first transfer
// of a chain). Context copying happens only after validation passes.
func (m *Manager) Request(req models.HandoffRequest) (models.HandoffRequest, error) {
	// The initiating agent starts the chain.
	if len(req.Chain) == 0 {
		req.Chain = []string{req.From}
	}

	if err := m.Validate(req); err != nil {
		m.sink.HandoffRejected(req, err)
		return models.HandoffRequest{}, err
	}

	accepted := req
	accepted.Chain = append(append([]string(nil), req.Chain...), req.To)
	accepted.Depth = req.Depth + 1
	if accepted.CorrelationID == "" {
		accepted.CorrelationID = uuid.NewString()
	}

	if accepted.IncludeContext && m.copier != nil {
		if err := m.copier.CopyContext(req.From, req.To); err != nil {
			m.sink.HandoffRejected(req, err)
			return models.HandoffRequest{}, fmt.Errorf("copy context: %w", err)
		}
	}

	m.sink.HandoffAccepted(accepted)
	return accepted, nil
}
