package scheduler

import (
	"errors"
	"fmt"
	"sync"

	"github.com/awalsh128/orchid/pkg/models"
)

// ErrCycleDetected indicates a circular dependency in the todo graph.
// It is fatal: no valid execution order exists.
var ErrCycleDetected = errors.New("circular dependency detected")

// ErrUnmetDependency indicates a todo was asked to run before all of
// its dependencies completed. It is recoverable; the caller resolves
// the dependency first.
var ErrUnmetDependency = errors.New("unmet dependency")

// DependencyGraph is a directed acyclic graph of todo dependencies.
// Todos are nodes, and edges represent "blocked by" relationships.
type DependencyGraph struct {
	mu sync.RWMutex
	// nodes maps todo ID to the todo itself.
	nodes map[string]*models.Todo
	// edges maps todo ID to IDs of todos it depends on (is blocked by).
	edges map[string][]string
	// order preserves declaration order for deterministic tie-breaking.
	order []string
}

// NewGraph creates a new empty dependency graph.
func NewGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[string]*models.Todo),
		edges: make(map[string][]string),
	}
}

// Build constructs the graph from a slice of todos. It fails eagerly if
// a dependency references an unknown todo or if a cycle exists, before
// anything is dispatched.
func (g *DependencyGraph) Build(todos []*models.Todo) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	debugLog("[graph.Build] building graph from %d todos", len(todos))

	// First pass: register all todos as nodes.
	for _, todo := range todos {
		if _, dup := g.nodes[todo.ID]; dup {
			return fmt.Errorf("duplicate todo id %s", todo.ID)
		}
		g.nodes[todo.ID] = todo
		g.edges[todo.ID] = nil
		g.order = append(g.order, todo.ID)
	}

	// Second pass: build edges from Dependencies fields.
	for _, todo := range todos {
		for _, depID := range todo.Dependencies {
			if _, exists := g.nodes[depID]; !exists {
				return fmt.Errorf("todo %s depends on unknown todo %s", todo.ID, depID)
			}
			g.edges[todo.ID] = append(g.edges[todo.ID], depID)
		}
	}

	if _, err := g.topologicalOrderLocked(); err != nil {
		return err
	}

	debugLog("[graph.Build] graph built successfully with %d nodes", len(g.nodes))
	return nil
}

// TopologicalOrder returns todo IDs in an order where all dependencies
// come before the todos that depend on them. The order is deterministic:
// among ready nodes, declaration order wins. Returns ErrCycleDetected if
// the graph contains a cycle.
func (g *DependencyGraph) TopologicalOrder() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.topologicalOrderLocked()
}

// topologicalOrderLocked runs Kahn's algorithm: repeatedly remove
// zero-indegree nodes; if nodes remain when none has indegree zero, the
// graph is cyclic. Caller must hold the lock.
func (g *DependencyGraph) topologicalOrderLocked() ([]string, error) {
	// indegree counts unprocessed dependencies per node.
	indegree := make(map[string]int, len(g.nodes))
	dependents := make(map[string][]string, len(g.nodes))
	rank := make(map[string]int, len(g.order))
	for i, id := range g.order {
		rank[id] = i
		deps := g.edges[id]
		indegree[id] = len(deps)
		for _, depID := range deps {
			dependents[depID] = append(dependents[depID], id)
		}
	}

	// push keeps the queue sorted by declaration rank so ties among
	// simultaneously-ready nodes always break the same way.
	push := func(queue []string, id string) []string {
		i := len(queue)
		for i > 0 && rank[queue[i-1]] > rank[id] {
			i--
		}
		queue = append(queue, "")
		copy(queue[i+1:], queue[i:])
		queue[i] = id
		return queue
	}

	var queue []string
	for _, id := range g.order {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	result := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		result = append(result, id)

		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = push(queue, dep)
			}
		}
	}

	if len(result) != len(g.nodes) {
		return nil, ErrCycleDetected
	}
	return result, nil
}

// Ready returns todo IDs that are pending with every dependency
// completed, in topological rank order.
func (g *DependencyGraph) Ready() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rank, err := g.topologicalOrderLocked()
	if err != nil {
		return nil
	}

	var ready []string
	for _, id := range rank {
		todo := g.nodes[id]
		if todo.Status != models.TodoStatusPending {
			continue
		}
		if g.depsCompletedLocked(id) {
			ready = append(ready, id)
		}
	}

	debugLog("[graph.Ready] %d of %d todos ready: %v", len(ready), len(g.nodes), ready)
	return ready
}

// CheckDependencies returns ErrUnmetDependency (wrapped with the
// offending IDs) unless every dependency of id is completed.
func (g *DependencyGraph) CheckDependencies(id string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, exists := g.nodes[id]; !exists {
		return fmt.Errorf("unknown todo %s", id)
	}

	var unmet []string
	for _, depID := range g.edges[id] {
		if dep, exists := g.nodes[depID]; !exists || dep.Status != models.TodoStatusCompleted {
			unmet = append(unmet, depID)
		}
	}
	if len(unmet) > 0 {
		return fmt.Errorf("%w: todo %s requires %v", ErrUnmetDependency, id, unmet)
	}
	return nil
}

// depsCompletedLocked reports whether every dependency of id completed.
// Caller must hold the lock.
func (g *DependencyGraph) depsCompletedLocked(id string) bool {
	for _, depID := range g.edges[id] {
		dep, exists := g.nodes[depID]
		if !exists || dep.Status != models.TodoStatusCompleted {
			return false
		}
	}
	return true
}

// Get returns the todo for a given ID, or nil if not found.
func (g *DependencyGraph) Get(id string) *models.Todo {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[id]
}

// Size returns the number of todos in the graph.
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Dependencies returns the IDs of todos that the given todo depends on.
func (g *DependencyGraph) Dependencies(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges[id]
}

// Todos returns all todos in declaration order.
func (g *DependencyGraph) Todos() []*models.Todo {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]*models.Todo, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}
