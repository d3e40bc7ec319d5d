// Package tool executes model-issued tool calls. The scheduler invokes
// the runner only once a call has left the approval gate.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/awalsh128/orchid/internal/exec"
	"github.com/awalsh128/orchid/internal/git"
)

// Result represents the outcome of a tool execution.
type Result struct {
	Content string
	IsError bool
}

// Runner executes a tool by name with raw JSON input.
type Runner interface {
	Execute(ctx context.Context, name string, args json.RawMessage) Result
}

// Executor runs the built-in tool set against a working directory.
type Executor struct {
	workDir string
	runner  exec.CommandRunner
	repo    git.Inspector
}

// NewExecutor creates a tool executor for the given working directory.
// The directory doubles as the repository root for the git tools.
func NewExecutor(workDir string) *Executor {
	runner := exec.NewRunner()
	return &Executor{workDir: workDir, runner: runner, repo: git.NewRepo(workDir, runner)}
}

// Execute runs a tool by name with the given JSON input.
func (e *Executor) Execute(ctx context.Context, name string, args json.RawMessage) Result {
	switch name {
	case "Read":
		return e.execRead(args)
	case "Write":
		return e.execWrite(args)
	case "Edit":
		return e.execEdit(args)
	case "Bash":
		return e.execBash(ctx, args)
	case "ListDir":
		return e.execListDir(args)
	case "GitStatus":
		return e.execGitStatus(ctx)
	case "GitDiff":
		return e.execGitDiff(ctx, args)
	default:
		return Result{Content: fmt.Sprintf("Unknown tool: %s", name), IsError: true}
	}
}

func (e *Executor) execRead(args json.RawMessage) Result {
	var params struct {
		FilePath string `json:"file_path"`
		Offset   int    `json:"offset"`
		Limit    int    `json:"limit"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return Result{Content: fmt.Sprintf("Invalid parameters: %v", err), IsError: true}
	}

	path := e.resolvePath(params.FilePath)
	content, err := os.ReadFile(path)
	if err != nil {
		return Result{Content: fmt.Sprintf("Failed to read file: %v", err), IsError: true}
	}

	lines := strings.Split(string(content), "\n")

	start := 0
	if params.Offset > 0 {
		start = params.Offset - 1 // Convert to 0-indexed
		if start >= len(lines) {
			return Result{Content: "Offset beyond end of file", IsError: true}
		}
	}

	end := len(lines)
	if params.Limit > 0 && start+params.Limit < end {
		end = start + params.Limit
	}

	// Format with line numbers (cat -n style)
	var result strings.Builder
	for i := start; i < end; i++ {
		fmt.Fprintf(&result, "%6d\t%s\n", i+1, lines[i])
	}

	return Result{Content: result.String()}
}

func (e *Executor) execWrite(args json.RawMessage) Result {
	var params struct {
		FilePath string `json:"file_path"`
		Content  string `json:"content"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return Result{Content: fmt.Sprintf("Invalid parameters: %v", err), IsError: true}
	}

	path := e.resolvePath(params.FilePath)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return Result{Content: fmt.Sprintf("Failed to create directory: %v", err), IsError: true}
	}

	if err := os.WriteFile(path, []byte(params.Content), 0644); err != nil {
		return Result{Content: fmt.Sprintf("Failed to write file: %v", err), IsError: true}
	}

	return Result{Content: fmt.Sprintf("Successfully wrote %d bytes to %s", len(params.Content), params.FilePath)}
}

func (e *Executor) execEdit(args json.RawMessage) Result {
	var params struct {
		FilePath   string `json:"file_path"`
		OldString  string `json:"old_string"`
		NewString  string `json:"new_string"`
		ReplaceAll bool   `json:"replace_all"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return Result{Content: fmt.Sprintf("Invalid parameters: %v", err), IsError: true}
	}

	path := e.resolvePath(params.FilePath)
	content, err := os.ReadFile(path)
	if err != nil {
		return Result{Content: fmt.Sprintf("Failed to read file: %v", err), IsError: true}
	}

	text := string(content)
	count := strings.Count(text, params.OldString)
	if count == 0 {
		return Result{Content: "old_string not found in file", IsError: true}
	}
	if count > 1 && !params.ReplaceAll {
		return Result{Content: fmt.Sprintf("old_string appears %d times; must be unique unless replace_all is true", count), IsError: true}
	}

	var updated string
	if params.ReplaceAll {
		updated = strings.ReplaceAll(text, params.OldString, params.NewString)
	} else {
		updated = strings.Replace(text, params.OldString, params.NewString, 1)
	}

	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		return Result{Content: fmt.Sprintf("Failed to write file: %v", err), IsError: true}
	}

	return Result{Content: fmt.Sprintf("Edited %s (%d replacement(s))", params.FilePath, count)}
}

func (e *Executor) execBash(ctx context.Context, args json.RawMessage) Result {
	var params struct {
		Command string `json:"command"`
		Timeout int    `json:"timeout"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return Result{Content: fmt.Sprintf("Invalid parameters: %v", err), IsError: true}
	}

	timeout := 120 * time.Second
	if params.Timeout > 0 {
		timeout = time.Duration(params.Timeout) * time.Millisecond
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := e.runner.RunShell(cmdCtx, e.workDir, params.Command)
	if cmdCtx.Err() == context.DeadlineExceeded {
		return Result{Content: fmt.Sprintf("Command timed out after %s", timeout), IsError: true}
	}
	if err != nil {
		return Result{Content: fmt.Sprintf("%s\nCommand failed: %v", out, err), IsError: true}
	}

	return Result{Content: string(out)}
}

func (e *Executor) execListDir(args json.RawMessage) Result {
	var params struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return Result{Content: fmt.Sprintf("Invalid parameters: %v", err), IsError: true}
	}

	path := e.resolvePath(params.Path)
	entries, err := os.ReadDir(path)
	if err != nil {
		return Result{Content: fmt.Sprintf("Failed to list directory: %v", err), IsError: true}
	}

	var result strings.Builder
	for _, entry := range entries {
		if entry.IsDir() {
			fmt.Fprintf(&result, "%s/\n", entry.Name())
		} else {
			fmt.Fprintf(&result, "%s\n", entry.Name())
		}
	}

	return Result{Content: result.String()}
}

func (e *Executor) execGitStatus(ctx context.Context) Result {
	branch, err := e.repo.CurrentBranch(ctx)
	if err != nil {
		return Result{Content: fmt.Sprintf("Failed to read repository: %v", err), IsError: true}
	}
	status, err := e.repo.Status(ctx)
	if err != nil {
		return Result{Content: fmt.Sprintf("Failed to read status: %v", err), IsError: true}
	}
	if status == "" {
		return Result{Content: fmt.Sprintf("On branch %s, working tree clean", branch)}
	}
	return Result{Content: fmt.Sprintf("On branch %s\n%s", branch, status)}
}

func (e *Executor) execGitDiff(ctx context.Context, args json.RawMessage) Result {
	var params struct {
		Base      string `json:"base"`
		NamesOnly bool   `json:"names_only"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return Result{Content: fmt.Sprintf("Invalid parameters: %v", err), IsError: true}
	}

	if params.NamesOnly {
		files, err := e.repo.ChangedFiles(ctx, params.Base)
		if err != nil {
			return Result{Content: fmt.Sprintf("Failed to list changed files: %v", err), IsError: true}
		}
		return Result{Content: strings.Join(files, "\n")}
	}

	diff, err := e.repo.Diff(ctx, params.Base)
	if err != nil {
		return Result{Content: fmt.Sprintf("Failed to diff: %v", err), IsError: true}
	}
	return Result{Content: diff}
}

// resolvePath makes relative paths relative to the working directory.
func (e *Executor) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.workDir, path)
}
