// Package store loads agent and workflow definitions from YAML files
// and validates them at load time, so the router, handoff manager, and
// workflow executor can treat every definition as well-formed.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/awalsh128/orchid/pkg/models"
)

// agentFile is the on-disk shape of one agent definition file.
type agentFile struct {
	Agent models.AgentDefinition `yaml:"agent"`
}

// workflowFile is the on-disk shape of one workflow definition file.
// Entries are written as flat maps with either a step or group key; the
// closed WorkflowEntry variant is produced after validation.
type workflowFile struct {
	Workflow workflowSpec `yaml:"workflow"`
}

type workflowSpec struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Timeout     string      `yaml:"timeout"`
	Entries     []entrySpec `yaml:"entries"`
}

type entrySpec struct {
	Step  *models.Step          `yaml:"step"`
	Group *models.ParallelGroup `yaml:"group"`
}

// Store holds the loaded definition set. It is safe for concurrent
// readers; reload swaps the maps wholesale under the lock.
type Store struct {
	dir string

	mu        sync.RWMutex
	agents    map[string]models.AgentDefinition
	agentIDs  []string
	workflows map[string]models.WorkflowDefinition
}

// Open loads every definition under dir: agents/*.yaml and
// workflows/*.yaml. Validation failures abort the load; a store is
// never left holding a partially-valid set.
func Open(dir string) (*Store, error) {
	s := &Store{dir: dir}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads every definition file and swaps the loaded set in one
// step. On error the previous set stays in place.
func (s *Store) Reload() error {
	agents, order, err := loadAgents(filepath.Join(s.dir, "agents"))
	if err != nil {
		return err
	}
	workflows, err := loadWorkflows(filepath.Join(s.dir, "workflows"))
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.agents = agents
	s.agentIDs = order
	s.workflows = workflows
	s.mu.Unlock()
	return nil
}

// Agents returns the loaded agent definitions in file order.
func (s *Store) Agents() []models.AgentDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AgentDefinition, 0, len(s.agentIDs))
	for _, name := range s.agentIDs {
		out = append(out, s.agents[name])
	}
	return out
}

// Workflow returns the named workflow definition.
func (s *Store) Workflow(name string) (models.WorkflowDefinition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.workflows[name]
	return def, ok
}

// Workflows returns the loaded workflow names, sorted.
func (s *Store) Workflows() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.workflows))
	for name := range s.workflows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// loadAgents reads every agents/*.yaml file. File order (sorted by
// name) becomes the agents' declaration order for routing tie-breaks.
func loadAgents(dir string) (map[string]models.AgentDefinition, []string, error) {
	paths, err := yamlFiles(dir)
	if err != nil {
		return nil, nil, err
	}

	agents := make(map[string]models.AgentDefinition, len(paths))
	var order []string
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		var file agentFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		agent := file.Agent
		if err := ValidateAgent(agent); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		if _, dup := agents[agent.Name]; dup {
			return nil, nil, fmt.Errorf("%s: duplicate agent name %q", path, agent.Name)
		}
		agents[agent.Name] = agent
		order = append(order, agent.Name)
	}
	return agents, order, nil
}

// loadWorkflows reads every workflows/*.yaml file.
func loadWorkflows(dir string) (map[string]models.WorkflowDefinition, error) {
	paths, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}

	workflows := make(map[string]models.WorkflowDefinition, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var file workflowFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		def, err := buildWorkflow(file.Workflow)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if _, dup := workflows[def.Name]; dup {
			return nil, fmt.Errorf("%s: duplicate workflow name %q", path, def.Name)
		}
		workflows[def.Name] = def
	}
	return workflows, nil
}

// yamlFiles lists *.yaml and *.yml files under dir, sorted. A missing
// directory is an empty set, not an error.
func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// ValidateAgent checks one agent definition: a name, a known context
// mode, priority in range, and trigger patterns that compile. Routing
// assumes patterns are valid, so a bad pattern fails the load here.
func ValidateAgent(agent models.AgentDefinition) error {
	if strings.TrimSpace(agent.Name) == "" {
		return fmt.Errorf("agent has no name")
	}
	if agent.ContextMode != "" && !agent.ContextMode.Valid() {
		return fmt.Errorf("agent %s: unknown context mode %q", agent.Name, agent.ContextMode)
	}
	if agent.Triggers.Priority < 0 || agent.Triggers.Priority > 100 {
		return fmt.Errorf("agent %s: priority %d out of range 0-100", agent.Name, agent.Triggers.Priority)
	}
	for _, pattern := range agent.Triggers.Patterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("agent %s: invalid trigger pattern %q: %w", agent.Name, pattern, err)
		}
	}
	for _, h := range agent.Handoffs {
		if strings.TrimSpace(h.To) == "" {
			return fmt.Errorf("agent %s: handoff with empty target", agent.Name)
		}
	}
	return nil
}

// buildWorkflow validates the spec and converts it to a definition with
// closed entry variants: exactly one of step or group per entry, unique
// IDs, known error policies, and a reachable min_success.
func buildWorkflow(spec workflowSpec) (models.WorkflowDefinition, error) {
	var def models.WorkflowDefinition
	if strings.TrimSpace(spec.Name) == "" {
		return def, fmt.Errorf("workflow has no name")
	}

	var timeout time.Duration
	if spec.Timeout != "" {
		parsed, err := time.ParseDuration(spec.Timeout)
		if err != nil {
			return def, fmt.Errorf("workflow %s: invalid timeout %q: %w", spec.Name, spec.Timeout, err)
		}
		timeout = parsed
	}

	seen := make(map[string]bool)
	claim := func(id string) error {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("workflow %s: entry with empty id", spec.Name)
		}
		if seen[id] {
			return fmt.Errorf("workflow %s: duplicate step id %q", spec.Name, id)
		}
		seen[id] = true
		return nil
	}

	entries := make([]models.WorkflowEntry, 0, len(spec.Entries))
	for i, e := range spec.Entries {
		switch {
		case e.Step != nil && e.Group != nil:
			return def, fmt.Errorf("workflow %s: entry %d sets both step and group", spec.Name, i)
		case e.Step == nil && e.Group == nil:
			return def, fmt.Errorf("workflow %s: entry %d sets neither step nor group", spec.Name, i)
		case e.Step != nil:
			if err := claim(e.Step.ID); err != nil {
				return def, err
			}
			if e.Step.Retries < 0 {
				return def, fmt.Errorf("workflow %s: step %s has negative retries", spec.Name, e.Step.ID)
			}
			entries = append(entries, models.WorkflowEntry{Step: e.Step})
		default:
			if err := validateGroup(spec.Name, e.Group, claim); err != nil {
				return def, err
			}
			entries = append(entries, models.WorkflowEntry{Group: e.Group})
		}
	}

	def = models.WorkflowDefinition{
		Name:        spec.Name,
		Description: spec.Description,
		Timeout:     timeout,
		Entries:     entries,
	}
	return def, nil
}

func validateGroup(workflow string, group *models.ParallelGroup, claim func(string) error) error {
	if err := claim(group.ID); err != nil {
		return err
	}
	if len(group.Steps) == 0 {
		return fmt.Errorf("workflow %s: group %s has no members", workflow, group.ID)
	}
	for _, step := range group.Steps {
		if err := claim(group.ID + "." + step.ID); err != nil {
			return err
		}
		if step.Retries < 0 {
			return fmt.Errorf("workflow %s: step %s.%s has negative retries", workflow, group.ID, step.ID)
		}
	}
	if group.Policy.OnError != "" && !group.Policy.OnError.Valid() {
		return fmt.Errorf("workflow %s: group %s has unknown on_error policy %q", workflow, group.ID, group.Policy.OnError)
	}
	if group.Policy.MinSuccess < 0 || group.Policy.MinSuccess > len(group.Steps) {
		return fmt.Errorf("workflow %s: group %s min_success %d out of range 0-%d",
			workflow, group.ID, group.Policy.MinSuccess, len(group.Steps))
	}
	return nil
}
