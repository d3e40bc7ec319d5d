package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/awalsh128/orchid/pkg/models"
)

const coderAgent = `agent:
  name: coder
  title: Code Writer
  context_mode: isolated
  triggers:
    keywords: [implement, refactor]
    patterns: ['fix\s+bug']
    priority: 50
  tool_policy:
    deny: [Bash]
  handoffs:
    - to: reviewer
      condition: code is ready for review
      include_context: true
  system_prompt: You write code.
`

const reviewWorkflow = `workflow:
  name: review
  description: lint then summarize
  timeout: 5m
  entries:
    - step:
        id: plan
        agent: coder
        input: ${workflow.input}
    - group:
        id: checks
        policy:
          on_error: continue
          min_success: 1
        steps:
          - id: lint
            agent: coder
            input: lint ${plan.output}
          - id: unit
            agent: coder
            input: test ${plan.output}
    - step:
        id: summary
        agent: coder
        input: ${checks.lint.output}
        when: ${plan.output}
        retries: 2
`

func writeDefs(t *testing.T, agents, workflows map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for sub, files := range map[string]map[string]string{"agents": agents, "workflows": workflows} {
		if len(files) == 0 {
			continue
		}
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			t.Fatal(err)
		}
		for name, content := range files {
			if err := os.WriteFile(filepath.Join(dir, sub, name), []byte(content), 0644); err != nil {
				t.Fatal(err)
			}
		}
	}
	return dir
}

func TestOpenLoadsDefinitions(t *testing.T) {
	dir := writeDefs(t,
		map[string]string{"coder.yaml": coderAgent},
		map[string]string{"review.yaml": reviewWorkflow},
	)

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	agents := s.Agents()
	if len(agents) != 1 || agents[0].Name != "coder" {
		t.Fatalf("agents = %v", agents)
	}
	if agents[0].Triggers.Priority != 50 || len(agents[0].Triggers.Keywords) != 2 {
		t.Errorf("triggers not loaded: %+v", agents[0].Triggers)
	}
	if agents[0].ToolPolicy.Permits("Bash") {
		t.Error("deny list not loaded")
	}
	if len(agents[0].Handoffs) != 1 || !agents[0].Handoffs[0].IncludeContext {
		t.Errorf("handoffs not loaded: %+v", agents[0].Handoffs)
	}

	wf, ok := s.Workflow("review")
	if !ok {
		t.Fatal("workflow review not loaded")
	}
	if wf.Timeout != 5*time.Minute {
		t.Errorf("timeout = %s", wf.Timeout)
	}
	if len(wf.Entries) != 3 || wf.Entries[1].Group == nil {
		t.Fatalf("entries = %+v", wf.Entries)
	}
	group := wf.Entries[1].Group
	if group.Policy.OnError != models.OnErrorContinue || group.Policy.MinSuccess != 1 {
		t.Errorf("policy = %+v", group.Policy)
	}
	if got := wf.Entries[2].Step.Retries; got != 2 {
		t.Errorf("retries = %d", got)
	}
}

func TestOpenMissingDirectoriesIsEmpty(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(s.Agents()) != 0 || len(s.Workflows()) != 0 {
		t.Error("expected empty store")
	}
}

func TestOpenRejectsInvalidDefinitions(t *testing.T) {
	cases := []struct {
		name      string
		agents    map[string]string
		workflows map[string]string
		wantErr   string
	}{
		{
			name:    "bad trigger pattern",
			agents:  map[string]string{"a.yaml": "agent:\n  name: a\n  triggers:\n    patterns: ['[']\n"},
			wantErr: "invalid trigger pattern",
		},
		{
			name:    "priority out of range",
			agents:  map[string]string{"a.yaml": "agent:\n  name: a\n  triggers:\n    priority: 150\n"},
			wantErr: "out of range",
		},
		{
			name: "duplicate agent name",
			agents: map[string]string{
				"a.yaml": "agent:\n  name: a\n",
				"b.yaml": "agent:\n  name: a\n",
			},
			wantErr: "duplicate agent name",
		},
		{
			name: "entry with both variants",
			workflows: map[string]string{"w.yaml": `workflow:
  name: w
  entries:
    - step:
        id: s1
        agent: a
        input: x
      group:
        id: g1
        steps:
          - id: s2
            agent: a
            input: y
`},
			wantErr: "both step and group",
		},
		{
			name: "duplicate step id",
			workflows: map[string]string{"w.yaml": `workflow:
  name: w
  entries:
    - step: {id: s1, agent: a, input: x}
    - step: {id: s1, agent: a, input: y}
`},
			wantErr: "duplicate step id",
		},
		{
			name: "min_success above group size",
			workflows: map[string]string{"w.yaml": `workflow:
  name: w
  entries:
    - group:
        id: g
        policy: {min_success: 3}
        steps:
          - {id: s1, agent: a, input: x}
`},
			wantErr: "out of range",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := writeDefs(t, tc.agents, tc.workflows)
			_, err := Open(dir)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestReloadKeepsPreviousSetOnError(t *testing.T) {
	dir := writeDefs(t, map[string]string{"coder.yaml": coderAgent}, nil)
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	bad := filepath.Join(dir, "agents", "bad.yaml")
	if err := os.WriteFile(bad, []byte("agent:\n  name: ''\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if len(s.Agents()) != 1 || s.Agents()[0].Name != "coder" {
		t.Error("previous definition set must survive a failed reload")
	}
}

func TestWatchReloadsOnDefinitionChange(t *testing.T) {
	dir := writeDefs(t, map[string]string{"coder.yaml": coderAgent}, nil)
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	reloaded := make(chan struct{}, 8)
	w, err := s.Watch(func() { reloaded <- struct{}{} }, nil)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	second := strings.ReplaceAll(coderAgent, "coder", "tester")
	if err := os.WriteFile(filepath.Join(dir, "agents", "tester.yaml"), []byte(second), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed after definition write")
	}

	names := make(map[string]bool)
	for _, a := range s.Agents() {
		names[a.Name] = true
	}
	if !names["coder"] || !names["tester"] {
		t.Errorf("expected coder and tester after reload, got %v", names)
	}
}

func TestWatchKeepsPreviousSetOnBadWrite(t *testing.T) {
	dir := writeDefs(t, map[string]string{"coder.yaml": coderAgent}, nil)
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	failed := make(chan error, 8)
	w, err := s.Watch(nil, func(err error) { failed <- err })
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	bad := filepath.Join(dir, "agents", "bad.yaml")
	if err := os.WriteFile(bad, []byte("agent:\n  name: ''\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-failed:
	case <-time.After(5 * time.Second):
		t.Fatal("no reload error observed after bad write")
	}
	if len(s.Agents()) != 1 || s.Agents()[0].Name != "coder" {
		t.Error("previous definition set must survive a failed live reload")
	}
}
