package git

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeRunner records invocations and returns scripted output.
type fakeRunner struct {
	output string
	err    error
	args   []string
}

func (f *fakeRunner) Run(ctx context.Context, workDir string, name string, args ...string) ([]byte, error) {
	f.args = append([]string{name}, args...)
	return []byte(f.output), f.err
}

func (f *fakeRunner) RunShell(ctx context.Context, workDir string, command string) ([]byte, error) {
	return f.Run(ctx, workDir, "bash", "-c", command)
}

func TestCurrentBranchTrimsOutput(t *testing.T) {
	runner := &fakeRunner{output: "main\n"}
	repo := NewRepo("/tmp/repo", runner)

	branch, err := repo.CurrentBranch(context.Background())
	if err != nil {
		t.Fatalf("CurrentBranch failed: %v", err)
	}
	if branch != "main" {
		t.Errorf("branch = %q, want main", branch)
	}
	want := "git rev-parse --abbrev-ref HEAD"
	if got := strings.Join(runner.args, " "); got != want {
		t.Errorf("command = %q, want %q", got, want)
	}
}

func TestDiffDefaultsToHead(t *testing.T) {
	runner := &fakeRunner{output: "diff output"}
	repo := NewRepo("/tmp/repo", runner)

	if _, err := repo.Diff(context.Background(), ""); err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	want := "git diff HEAD"
	if got := strings.Join(runner.args, " "); got != want {
		t.Errorf("command = %q, want %q", got, want)
	}
}

func TestChangedFilesSplitsLines(t *testing.T) {
	runner := &fakeRunner{output: "a.go\nb/c.go\n"}
	repo := NewRepo("/tmp/repo", runner)

	files, err := repo.ChangedFiles(context.Background(), "main")
	if err != nil {
		t.Fatalf("ChangedFiles failed: %v", err)
	}
	if len(files) != 2 || files[0] != "a.go" || files[1] != "b/c.go" {
		t.Errorf("files = %v, want [a.go b/c.go]", files)
	}
}

func TestChangedFilesEmptyTree(t *testing.T) {
	runner := &fakeRunner{output: ""}
	repo := NewRepo("/tmp/repo", runner)

	files, err := repo.ChangedFiles(context.Background(), "")
	if err != nil {
		t.Fatalf("ChangedFiles failed: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("files = %v, want none", files)
	}
}

func TestErrorsIncludeCommandOutput(t *testing.T) {
	runner := &fakeRunner{output: "fatal: not a git repository", err: errors.New("exit status 128")}
	repo := NewRepo("/tmp/repo", runner)

	_, err := repo.Status(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "not a git repository") {
		t.Errorf("error %q should include git output", err)
	}
}
