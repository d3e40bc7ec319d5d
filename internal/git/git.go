// Package git exposes read-only repository inspection for the GitStatus
// and GitDiff tools. Mutation stays with the agent's Bash tool, where
// the approval gate applies.
package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/awalsh128/orchid/internal/exec"
)

// Inspector answers questions about a repository's current state.
type Inspector interface {
	// CurrentBranch returns the name of the checked-out branch.
	CurrentBranch(ctx context.Context) (string, error)
	// Status returns the output of git status --porcelain.
	Status(ctx context.Context) (string, error)
	// Diff returns the diff of the working tree against base, or
	// against HEAD when base is empty.
	Diff(ctx context.Context, base string) (string, error)
	// ChangedFiles lists files changed relative to base.
	ChangedFiles(ctx context.Context, base string) ([]string, error)
}

// Repo implements Inspector by shelling out to git.
type Repo struct {
	path   string
	runner exec.CommandRunner
}

// NewRepo creates an inspector for the repository at path. runner may
// be nil, in which case commands run through os/exec.
func NewRepo(path string, runner exec.CommandRunner) *Repo {
	if runner == nil {
		runner = exec.NewRunner()
	}
	return &Repo{path: path, runner: runner}
}

// run executes a git command and returns trimmed output.
func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	out, err := r.runner.Run(ctx, r.path, "git", args...)
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, string(out))
	}
	return strings.TrimSpace(string(out)), nil
}

func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	return r.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
}

func (r *Repo) Status(ctx context.Context) (string, error) {
	return r.run(ctx, "status", "--porcelain")
}

func (r *Repo) Diff(ctx context.Context, base string) (string, error) {
	if base == "" {
		return r.run(ctx, "diff", "HEAD")
	}
	return r.run(ctx, "diff", base)
}

func (r *Repo) ChangedFiles(ctx context.Context, base string) ([]string, error) {
	if base == "" {
		base = "HEAD"
	}
	out, err := r.run(ctx, "diff", "--name-only", base)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// Verify Repo implements Inspector at compile time.
var _ Inspector = (*Repo)(nil)
