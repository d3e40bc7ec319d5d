package handoff

import (
	"errors"
	"testing"

	"github.com/awalsh128/orchid/internal/registry"
	"github.com/awalsh128/orchid/pkg/models"
)

type recordingCopier struct {
	calls int
	err   error
}

func (c *recordingCopier) CopyContext(from, to string) error {
	c.calls++
	return c.err
}

func testRegistry(t *testing.T, names ...string) *registry.Registry {
	t.Helper()
	agents := make([]models.AgentDefinition, len(names))
	for i, n := range names {
		agents[i] = models.AgentDefinition{Name: n}
	}
	reg, err := registry.New(agents)
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}
	return reg
}

func TestRequestAccepted(t *testing.T) {
	m := New(testRegistry(t, "main", "reviewer"), nil, nil)

	accepted, err := m.Request(models.HandoffRequest{From: "main", To: "reviewer"})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	if len(accepted.Chain) != 2 || accepted.Chain[0] != "main" || accepted.Chain[1] != "reviewer" {
		t.Errorf("unexpected chain: %v", accepted.Chain)
	}
	if accepted.Depth != 1 {
		t.Errorf("expected depth 1, got %d", accepted.Depth)
	}
	if accepted.CorrelationID == "" {
		t.Error("expected a correlation ID to be minted")
	}
}

func TestRequestPreservesCorrelationID(t *testing.T) {
	m := New(testRegistry(t, "main", "reviewer", "deployer"), nil, nil)

	first, err := m.Request(models.HandoffRequest{From: "main", To: "reviewer"})
	if err != nil {
		t.Fatalf("first Request: %v", err)
	}

	second, err := m.Request(models.HandoffRequest{
		From:          "reviewer",
		To:            "deployer",
		Chain:         first.Chain,
		Depth:         first.Depth,
		CorrelationID: first.CorrelationID,
	})
	if err != nil {
		t.Fatalf("second Request: %v", err)
	}
	if second.CorrelationID != first.CorrelationID {
		t.Errorf("correlation ID changed across chain: %q vs %q", second.CorrelationID, first.CorrelationID)
	}
}

func TestRequestRejectsCycle(t *testing.T) {
	m := New(testRegistry(t, "main", "reviewer"), nil, nil)

	_, err := m.Request(models.HandoffRequest{
		From:  "reviewer",
		To:    "main",
		Chain: []string{"main", "reviewer"},
		Depth: 1,
	})
	if !errors.Is(err, ErrCircularHandoff) {
		t.Fatalf("expected ErrCircularHandoff, got %v", err)
	}
}

func TestRequestRejectsSelfTransfer(t *testing.T) {
	m := New(testRegistry(t, "main"), nil, nil)

	_, err := m.Request(models.HandoffRequest{From: "main", To: "main"})
	if !errors.Is(err, ErrCircularHandoff) {
		t.Fatalf("expected ErrCircularHandoff for self-transfer, got %v", err)
	}
}

func TestRequestRejectsDepthExceeded(t *testing.T) {
	m := New(testRegistry(t, "a", "b", "c", "d", "e", "f", "g"), nil, nil)

	_, err := m.Request(models.HandoffRequest{
		From:  "f",
		To:    "g",
		Chain: []string{"a", "b", "c", "d", "e", "f"},
		Depth: 5,
	})
	if !errors.Is(err, ErrDepthExceeded) {
		t.Fatalf("expected ErrDepthExceeded, got %v", err)
	}
}

func TestRequestRejectsUnknownAgent(t *testing.T) {
	m := New(testRegistry(t, "main"), nil, nil)

	_, err := m.Request(models.HandoffRequest{From: "main", To: "ghost"})
	if !errors.Is(err, ErrUnknownAgent) {
		t.Fatalf("expected ErrUnknownAgent, got %v", err)
	}
}

func TestValidationBeforeSideEffects(t *testing.T) {
	copier := &recordingCopier{}
	m := New(testRegistry(t, "main"), nil, copier)

	_, err := m.Request(models.HandoffRequest{From: "main", To: "ghost", IncludeContext: true})
	if err == nil {
		t.Fatal("expected rejection")
	}
	if copier.calls != 0 {
		t.Errorf("context copied despite rejection: %d calls", copier.calls)
	}
}

func TestContextCopiedOnlyWhenRequested(t *testing.T) {
	copier := &recordingCopier{}
	m := New(testRegistry(t, "main", "reviewer"), nil, copier)

	if _, err := m.Request(models.HandoffRequest{From: "main", To: "reviewer"}); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if copier.calls != 0 {
		t.Error("context copied without IncludeContext")
	}

	if _, err := m.Request(models.HandoffRequest{From: "main", To: "reviewer", IncludeContext: true}); err != nil {
		t.Fatalf("Request with context: %v", err)
	}
	if copier.calls != 1 {
		t.Errorf("expected 1 context copy, got %d", copier.calls)
	}
}

// Chains built by sequential accepted handoffs never duplicate agents
// and never exceed the initial agent plus five transfers.
func TestSequentialChainInvariants(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f", "g"}
	m := New(testRegistry(t, names...), nil, nil)

	req := models.HandoffRequest{From: "a", To: "b"}
	var accepted models.HandoffRequest
	var err error

	hops := 0
	for i := 1; i < len(names); i++ {
		accepted, err = m.Request(req)
		if err != nil {
			break
		}
		hops++

		seen := make(map[string]bool)
		for _, hop := range accepted.Chain {
			if seen[hop] {
				t.Fatalf("duplicate %q in chain %v", hop, accepted.Chain)
			}
			seen[hop] = true
		}
		if len(accepted.Chain) > models.MaxHandoffDepth+1 {
			t.Fatalf("chain too long: %v", accepted.Chain)
		}

		if i+1 < len(names) {
			req = models.HandoffRequest{
				From:          names[i],
				To:            names[i+1],
				Chain:         accepted.Chain,
				Depth:         accepted.Depth,
				CorrelationID: accepted.CorrelationID,
			}
		}
	}

	if hops != models.MaxHandoffDepth {
		t.Errorf("expected exactly %d accepted transfers, got %d", models.MaxHandoffDepth, hops)
	}
	if !errors.Is(err, ErrDepthExceeded) {
		t.Errorf("expected final transfer to exceed depth, got %v", err)
	}
}
