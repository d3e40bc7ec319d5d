package workflow

import (
	"errors"
	"testing"

	"github.com/awalsh128/orchid/pkg/models"
)

func testResolver() *resolver {
	return &resolver{
		input: "build the parser",
		results: map[string]*models.StepResult{
			"plan": {
				StepID: "plan",
				Status: models.StepStatusSuccess,
				Output: "three phases",
				Data:   map[string]string{"phase": "one"},
			},
			"review.lint": {
				StepID: "lint",
				Status: models.StepStatusSuccess,
				Output: "clean",
			},
		},
	}
}

func TestResolveReferences(t *testing.T) {
	r := testResolver()

	cases := []struct {
		tmpl string
		want string
	}{
		{"${workflow.input}", "build the parser"},
		{"continue: ${plan.output}", "continue: three phases"},
		{"phase ${plan.data.phase}", "phase one"},
		{"${review.lint.output}", "clean"},
		{"no refs here", "no refs here"},
		{"${plan.output} / ${workflow.input}", "three phases / build the parser"},
	}
	for _, tc := range cases {
		got, err := r.resolve("step", tc.tmpl)
		if err != nil {
			t.Errorf("resolve(%q): %v", tc.tmpl, err)
			continue
		}
		if got != tc.want {
			t.Errorf("resolve(%q) = %q, want %q", tc.tmpl, got, tc.want)
		}
	}
}

func TestResolveUnknownReference(t *testing.T) {
	r := testResolver()

	for _, tmpl := range []string{
		"${missing.output}",
		"${plan.data.unknown}",
		"${plan.nonsense}",
		"${review.lint.data.absent}",
	} {
		_, err := r.resolve("step-x", tmpl)
		var terr *TemplateError
		if !errors.As(err, &terr) {
			t.Errorf("resolve(%q): expected TemplateError, got %v", tmpl, err)
			continue
		}
		if terr.StepID != "step-x" {
			t.Errorf("resolve(%q): StepID = %q", tmpl, terr.StepID)
		}
	}
}

func TestTruthy(t *testing.T) {
	for _, falsy := range []string{"", "false", "FALSE", "0", "no", "  "} {
		if truthy(falsy) {
			t.Errorf("truthy(%q) = true", falsy)
		}
	}
	for _, ok := range []string{"true", "yes", "1", "three phases"} {
		if !truthy(ok) {
			t.Errorf("truthy(%q) = false", ok)
		}
	}
}
