package workflow

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/awalsh128/orchid/pkg/models"
)

// refPattern matches ${...} references inside step input and when
// templates.
var refPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// TemplateError reports an unresolvable reference in a step template.
// It is governed by the enclosing error policy, not thrown past the
// executor.
type TemplateError struct {
	// StepID is the step whose template failed.
	StepID string
	// Ref is the unresolved reference, without the ${} wrapper.
	Ref string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("step %s: unresolved template reference ${%s}", e.StepID, e.Ref)
}

// resolver substitutes template references against the workflow input
// and accumulated step results.
type resolver struct {
	input   string
	results map[string]*models.StepResult
}

// resolve expands every ${...} reference in tmpl. Supported forms:
//
//	${workflow.input}
//	${stepId.output}
//	${stepId.data.key}
//	${groupId.subStepId.output}
//
// Sub-step results are stored under the "groupId.subStepId" key, so the
// group form falls out of the same lookup.
func (r *resolver) resolve(stepID, tmpl string) (string, error) {
	var resolveErr error
	out := refPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		ref := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		val, ok := r.lookup(ref)
		if !ok && resolveErr == nil {
			resolveErr = &TemplateError{StepID: stepID, Ref: ref}
		}
		return val
	})
	if resolveErr != nil {
		return "", resolveErr
	}
	return out, nil
}

// lookup resolves one reference to its value.
func (r *resolver) lookup(ref string) (string, bool) {
	if ref == "workflow.input" {
		return r.input, true
	}

	// Longest-prefix match so "group.sub.output" binds to the
	// "group.sub" result before the "group" result.
	key := ref
	for {
		idx := strings.LastIndex(key, ".")
		if idx < 0 {
			return "", false
		}
		key = key[:idx]
		result, ok := r.results[key]
		if !ok {
			continue
		}
		return field(result, ref[idx+1:])
	}
}

// field extracts the requested field from a step result. rest is the
// reference path after the result key: "output" or "data.<key>".
func field(result *models.StepResult, rest string) (string, bool) {
	switch {
	case rest == "output":
		return result.Output, true
	case strings.HasPrefix(rest, "data."):
		val, ok := result.Data[strings.TrimPrefix(rest, "data.")]
		return val, ok
	default:
		return "", false
	}
}

// truthy evaluates a resolved when-condition. Empty, "false", "0" and
// "no" skip the step; everything else runs it.
func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "false", "0", "no":
		return false
	default:
		return true
	}
}
