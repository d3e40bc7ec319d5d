// Package registry holds the immutable set of agent definitions for a
// session. Agents keep their declaration order, which the router uses
// for tie-breaking.
package registry

import (
	"fmt"

	"github.com/awalsh128/orchid/pkg/models"
)

// Registry is the declaration-ordered set of loaded agents.
type Registry struct {
	agents  []models.AgentDefinition
	byName  map[string]int
	defName string
}

// New builds a registry from definitions in declaration order.
// The first agent is the default unless SetDefault overrides it.
// Duplicate names are rejected.
func New(agents []models.AgentDefinition) (*Registry, error) {
	r := &Registry{
		agents: agents,
		byName: make(map[string]int, len(agents)),
	}
	for i, a := range agents {
		if a.Name == "" {
			return nil, fmt.Errorf("agent at index %d has no name", i)
		}
		if _, dup := r.byName[a.Name]; dup {
			return nil, fmt.Errorf("duplicate agent name %q", a.Name)
		}
		r.byName[a.Name] = i
	}
	if len(agents) > 0 {
		r.defName = agents[0].Name
	}
	return r, nil
}

// SetDefault changes the fallback agent used when routing finds no match.
func (r *Registry) SetDefault(name string) error {
	if _, ok := r.byName[name]; !ok {
		return fmt.Errorf("unknown agent %q", name)
	}
	r.defName = name
	return nil
}

// Get returns the definition for name and whether it exists.
func (r *Registry) Get(name string) (models.AgentDefinition, bool) {
	i, ok := r.byName[name]
	if !ok {
		return models.AgentDefinition{}, false
	}
	return r.agents[i], true
}

// Has returns true if an agent with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Default returns the fallback agent. ok is false for an empty registry.
func (r *Registry) Default() (models.AgentDefinition, bool) {
	return r.Get(r.defName)
}

// All returns the agents in declaration order. Callers must not mutate
// the returned slice.
func (r *Registry) All() []models.AgentDefinition {
	return r.agents
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	return len(r.agents)
}
