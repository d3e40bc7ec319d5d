package models

import "testing"

func TestContextModeValid(t *testing.T) {
	valid := []ContextMode{ContextModeIsolated, ContextModeShared}
	for _, m := range valid {
		if !m.Valid() {
			t.Errorf("expected %q to be valid", m)
		}
	}

	invalid := []ContextMode{"", "global", "ISOLATED"}
	for _, m := range invalid {
		if m.Valid() {
			t.Errorf("expected %q to be invalid", m)
		}
	}
}

func TestToolPolicyPermits(t *testing.T) {
	tests := []struct {
		name   string
		policy ToolPolicy
		tool   string
		want   bool
	}{
		{"empty policy allows everything", ToolPolicy{}, "Read", true},
		{"deny wins over empty allow", ToolPolicy{Deny: []string{"Bash"}}, "Bash", false},
		{"allow list permits listed tool", ToolPolicy{Allow: []string{"Read", "Grep"}}, "Grep", true},
		{"allow list blocks unlisted tool", ToolPolicy{Allow: []string{"Read"}}, "Write", false},
		{"deny wins over allow", ToolPolicy{Allow: []string{"Bash"}, Deny: []string{"Bash"}}, "Bash", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Permits(tt.tool); got != tt.want {
				t.Errorf("Permits(%q) = %v, want %v", tt.tool, got, tt.want)
			}
		})
	}
}
