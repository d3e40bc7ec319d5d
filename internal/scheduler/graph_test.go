package scheduler

import (
	"errors"
	"testing"

	"github.com/awalsh128/orchid/pkg/models"
)

func todoSet() []*models.Todo {
	return []*models.Todo{
		{ID: "step-1", Status: models.TodoStatusPending},
		{ID: "step-2", Dependencies: []string{"step-1"}, Status: models.TodoStatusPending},
		{ID: "step-3", Dependencies: []string{"step-1"}, Status: models.TodoStatusPending},
	}
}

func buildGraph(t *testing.T, todos []*models.Todo) *DependencyGraph {
	t.Helper()
	g := NewGraph()
	if err := g.Build(todos); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestBuildDetectsCycle(t *testing.T) {
	g := NewGraph()
	err := g.Build([]*models.Todo{
		{ID: "a", Dependencies: []string{"b"}},
		{ID: "b", Dependencies: []string{"a"}},
	})
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
}

func TestBuildRejectsUnknownDependency(t *testing.T) {
	g := NewGraph()
	err := g.Build([]*models.Todo{
		{ID: "a", Dependencies: []string{"ghost"}},
	})
	if err == nil {
		t.Fatal("expected error for unknown dependency")
	}
}

func TestBuildRejectsDuplicateID(t *testing.T) {
	g := NewGraph()
	err := g.Build([]*models.Todo{{ID: "a"}, {ID: "a"}})
	if err == nil {
		t.Fatal("expected error for duplicate id")
	}
}

func TestTopologicalOrder(t *testing.T) {
	g := buildGraph(t, todoSet())

	order, err := g.TopologicalOrder()
	if err != nil {
		t.Fatalf("TopologicalOrder: %v", err)
	}
	if len(order) != 3 {
		t.Fatalf("expected 3 ids, got %v", order)
	}
	if order[0] != "step-1" {
		t.Errorf("expected step-1 first, got %v", order)
	}

	pos := make(map[string]int)
	for i, id := range order {
		pos[id] = i
	}
	if pos["step-2"] < pos["step-1"] || pos["step-3"] < pos["step-1"] {
		t.Errorf("dependencies out of order: %v", order)
	}
}

func TestTopologicalOrderIdempotent(t *testing.T) {
	g := buildGraph(t, todoSet())

	first, err := g.TopologicalOrder()
	if err != nil {
		t.Fatalf("first order: %v", err)
	}
	second, err := g.TopologicalOrder()
	if err != nil {
		t.Fatalf("second order: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("order length changed: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("order not stable: %v vs %v", first, second)
		}
	}

	// Rebuilding from the already-sorted order yields the same sequence.
	var sorted []*models.Todo
	for _, id := range first {
		sorted = append(sorted, &models.Todo{ID: id, Dependencies: g.Dependencies(id), Status: models.TodoStatusPending})
	}
	g2 := buildGraph(t, sorted)
	third, err := g2.TopologicalOrder()
	if err != nil {
		t.Fatalf("third order: %v", err)
	}
	for i := range first {
		if first[i] != third[i] {
			t.Fatalf("order changed on sorted input: %v vs %v", first, third)
		}
	}
}

func TestTopologicalOrderBreaksTiesByDeclaration(t *testing.T) {
	// Every fan-out member becomes ready at once when root completes;
	// declaration order must decide their sequence on every call.
	todos := []*models.Todo{
		{ID: "root", Status: models.TodoStatusPending},
		{ID: "fan-5", Dependencies: []string{"root"}, Status: models.TodoStatusPending},
		{ID: "fan-2", Dependencies: []string{"root"}, Status: models.TodoStatusPending},
		{ID: "fan-9", Dependencies: []string{"root"}, Status: models.TodoStatusPending},
		{ID: "fan-1", Dependencies: []string{"root"}, Status: models.TodoStatusPending},
		{ID: "fan-7", Dependencies: []string{"root"}, Status: models.TodoStatusPending},
		{ID: "fan-3", Dependencies: []string{"root"}, Status: models.TodoStatusPending},
	}
	want := []string{"root", "fan-5", "fan-2", "fan-9", "fan-1", "fan-7", "fan-3"}

	for run := 0; run < 20; run++ {
		g := buildGraph(t, todos)
		order, err := g.TopologicalOrder()
		if err != nil {
			t.Fatalf("run %d: TopologicalOrder: %v", run, err)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Fatalf("run %d: order = %v, want %v", run, order, want)
			}
		}
	}
}

func TestReadyRespectsDependencies(t *testing.T) {
	todos := todoSet()
	g := buildGraph(t, todos)

	ready := g.Ready()
	if len(ready) != 1 || ready[0] != "step-1" {
		t.Fatalf("expected only step-1 ready, got %v", ready)
	}

	todos[0].Status = models.TodoStatusCompleted
	ready = g.Ready()
	if len(ready) != 2 {
		t.Fatalf("expected 2 ready after step-1 completed, got %v", ready)
	}
}

func TestCheckDependencies(t *testing.T) {
	todos := todoSet()
	g := buildGraph(t, todos)

	err := g.CheckDependencies("step-2")
	if !errors.Is(err, ErrUnmetDependency) {
		t.Fatalf("expected ErrUnmetDependency, got %v", err)
	}

	todos[0].Status = models.TodoStatusCompleted
	if err := g.CheckDependencies("step-2"); err != nil {
		t.Errorf("expected dependencies met, got %v", err)
	}

	if err := g.CheckDependencies("ghost"); err == nil {
		t.Error("expected error for unknown todo")
	}
}
