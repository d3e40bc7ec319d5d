package tool

import (
	"github.com/awalsh128/orchid/internal/llm"
	"github.com/awalsh128/orchid/pkg/models"
)

// Specs returns the schemas for the built-in tool set.
func Specs() []llm.ToolSpec {
	return []llm.ToolSpec{
		{
			Name:        "Read",
			Description: "Read a file from the filesystem. Returns file contents with line numbers.",
			Properties: map[string]interface{}{
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the file to read",
				},
				"offset": map[string]interface{}{
					"type":        "integer",
					"description": "Line number to start reading from (1-indexed, optional)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of lines to read (optional)",
				},
			},
			Required: []string{"file_path"},
		},
		{
			Name:        "Write",
			Description: "Write content to a file. Creates parent directories if needed.",
			Properties: map[string]interface{}{
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the file to write",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Content to write to the file",
				},
			},
			Required: []string{"file_path", "content"},
		},
		{
			Name:        "Edit",
			Description: "Edit a file by replacing text. The old_string must be unique unless replace_all is true.",
			Properties: map[string]interface{}{
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the file to edit",
				},
				"old_string": map[string]interface{}{
					"type":        "string",
					"description": "The exact text to find and replace",
				},
				"new_string": map[string]interface{}{
					"type":        "string",
					"description": "The text to replace it with",
				},
				"replace_all": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, replace all occurrences (default: false)",
				},
			},
			Required: []string{"file_path", "old_string", "new_string"},
		},
		{
			Name:        "Bash",
			Description: "Execute a bash command and return the output.",
			Properties: map[string]interface{}{
				"command": map[string]interface{}{
					"type":        "string",
					"description": "The bash command to execute",
				},
				"timeout": map[string]interface{}{
					"type":        "integer",
					"description": "Timeout in milliseconds (optional, default 120000)",
				},
			},
			Required: []string{"command"},
		},
		{
			Name:        "ListDir",
			Description: "List contents of a directory.",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Directory path to list",
				},
			},
			Required: []string{"path"},
		},
		{
			Name:        "GitStatus",
			Description: "Show the current branch and uncommitted changes in the working tree.",
			Properties:  map[string]interface{}{},
		},
		{
			Name:        "GitDiff",
			Description: "Show the diff of the working tree against a base ref (default HEAD).",
			Properties: map[string]interface{}{
				"base": map[string]interface{}{
					"type":        "string",
					"description": "Ref to diff against (optional, default HEAD)",
				},
				"names_only": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, list changed file names instead of the full diff",
				},
			},
		},
	}
}

// FilterSpecs returns only the specs the agent's tool policy permits.
func FilterSpecs(specs []llm.ToolSpec, policy models.ToolPolicy) []llm.ToolSpec {
	var out []llm.ToolSpec
	for _, s := range specs {
		if policy.Permits(s.Name) {
			out = append(out, s)
		}
	}
	return out
}

// Gated returns true for tools that mutate state and therefore need
// approval before executing in the default queue mode.
func Gated(name string) bool {
	switch name {
	case "Write", "Edit", "Bash":
		return true
	default:
		return false
	}
}
