package tool

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/awalsh128/orchid/pkg/models"
)

func TestFilterSpecs(t *testing.T) {
	specs := Specs()

	filtered := FilterSpecs(specs, models.ToolPolicy{Allow: []string{"Read", "ListDir"}})
	if len(filtered) != 2 {
		t.Fatalf("expected 2 specs, got %d", len(filtered))
	}
	for _, s := range filtered {
		if s.Name != "Read" && s.Name != "ListDir" {
			t.Errorf("unexpected spec %q", s.Name)
		}
	}

	denied := FilterSpecs(specs, models.ToolPolicy{Deny: []string{"Bash"}})
	for _, s := range denied {
		if s.Name == "Bash" {
			t.Error("Bash should be denied")
		}
	}
	if len(denied) != len(specs)-1 {
		t.Errorf("expected %d specs, got %d", len(specs)-1, len(denied))
	}
}

func TestGated(t *testing.T) {
	for _, name := range []string{"Write", "Edit", "Bash"} {
		if !Gated(name) {
			t.Errorf("expected %s to be gated", name)
		}
	}
	for _, name := range []string{"Read", "ListDir"} {
		if Gated(name) {
			t.Errorf("expected %s to be ungated", name)
		}
	}
}

func TestExecuteReadWrite(t *testing.T) {
	dir := t.TempDir()
	e := NewExecutor(dir)

	args, _ := json.Marshal(map[string]string{
		"file_path": "notes.txt",
		"content":   "line one\nline two",
	})
	res := e.Execute(context.Background(), "Write", args)
	if res.IsError {
		t.Fatalf("Write failed: %s", res.Content)
	}

	args, _ = json.Marshal(map[string]string{"file_path": "notes.txt"})
	res = e.Execute(context.Background(), "Read", args)
	if res.IsError {
		t.Fatalf("Read failed: %s", res.Content)
	}
	if !strings.Contains(res.Content, "line one") {
		t.Errorf("unexpected read output: %s", res.Content)
	}
}

func TestExecuteEditRequiresUnique(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dup.txt")
	if err := os.WriteFile(path, []byte("x x"), 0644); err != nil {
		t.Fatal(err)
	}
	e := NewExecutor(dir)

	args, _ := json.Marshal(map[string]interface{}{
		"file_path":  "dup.txt",
		"old_string": "x",
		"new_string": "y",
	})
	res := e.Execute(context.Background(), "Edit", args)
	if !res.IsError {
		t.Fatal("expected error for non-unique old_string")
	}

	args, _ = json.Marshal(map[string]interface{}{
		"file_path":   "dup.txt",
		"old_string":  "x",
		"new_string":  "y",
		"replace_all": true,
	})
	res = e.Execute(context.Background(), "Edit", args)
	if res.IsError {
		t.Fatalf("Edit with replace_all failed: %s", res.Content)
	}

	content, _ := os.ReadFile(path)
	if string(content) != "y y" {
		t.Errorf("expected 'y y', got %q", content)
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	e := NewExecutor(t.TempDir())
	res := e.Execute(context.Background(), "Teleport", nil)
	if !res.IsError {
		t.Error("expected error for unknown tool")
	}
}

// shellRecorder captures RunShell invocations in place of a real shell.
type shellRecorder struct {
	workDir string
	command string
	output  string
}

func (r *shellRecorder) Run(ctx context.Context, workDir string, name string, args ...string) ([]byte, error) {
	return []byte(r.output), nil
}

func (r *shellRecorder) RunShell(ctx context.Context, workDir string, command string) ([]byte, error) {
	r.workDir = workDir
	r.command = command
	return []byte(r.output), nil
}

func TestExecuteBashRunsThroughRunner(t *testing.T) {
	recorder := &shellRecorder{output: "3 files"}
	e := &Executor{workDir: "/work", runner: recorder}

	res := e.Execute(context.Background(), "Bash", json.RawMessage(`{"command":"ls | wc -l"}`))
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Content)
	}
	if res.Content != "3 files" {
		t.Errorf("content = %q", res.Content)
	}
	if recorder.command != "ls | wc -l" || recorder.workDir != "/work" {
		t.Errorf("runner saw command=%q workDir=%q", recorder.command, recorder.workDir)
	}
}
