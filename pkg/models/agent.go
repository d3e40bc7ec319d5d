package models

// ContextMode controls how much conversation context an agent sees.
type ContextMode string

const (
	// ContextModeIsolated gives the agent a fresh context per turn.
	ContextModeIsolated ContextMode = "isolated"
	// ContextModeShared lets the agent see the shared conversation context.
	ContextModeShared ContextMode = "shared"
)

// Valid returns true if the mode is a known value.
func (m ContextMode) Valid() bool {
	switch m {
	case ContextModeIsolated, ContextModeShared:
		return true
	default:
		return false
	}
}

// Triggers declares the signals that route free-text input to an agent.
type Triggers struct {
	// Keywords are matched case-insensitively as whole words.
	Keywords []string `yaml:"keywords" json:"keywords"`
	// Patterns are regular expressions matched against the input.
	Patterns []string `yaml:"patterns" json:"patterns"`
	// Priority scales the rule score; valid range is 0-100.
	Priority int `yaml:"priority" json:"priority"`
}

// ToolPolicy restricts which tools an agent may invoke.
// An empty Allow list permits every tool not present in Deny.
type ToolPolicy struct {
	// Allow lists tool names the agent may use.
	Allow []string `yaml:"allow" json:"allow"`
	// Deny lists tool names the agent may never use. Deny wins over Allow.
	Deny []string `yaml:"deny" json:"deny"`
}

// Permits returns true if the policy allows the named tool.
func (p ToolPolicy) Permits(name string) bool {
	for _, d := range p.Deny {
		if d == name {
			return false
		}
	}
	if len(p.Allow) == 0 {
		return true
	}
	for _, a := range p.Allow {
		if a == name {
			return true
		}
	}
	return false
}

// HandoffSpec declares a transfer an agent is allowed to make.
type HandoffSpec struct {
	// To is the name of the target agent.
	To string `yaml:"to" json:"to"`
	// Condition is a free-text hint describing when to hand off.
	Condition string `yaml:"condition" json:"condition"`
	// IncludeContext copies the conversation context into the target's turn.
	IncludeContext bool `yaml:"include_context" json:"include_context"`
}

// AgentDefinition is the immutable description of one agent.
// Definitions are owned by the registry and never mutated after load.
type AgentDefinition struct {
	// Name is the unique identifier for this agent.
	Name string `yaml:"name" json:"name"`
	// Title is the human-readable display name.
	Title string `yaml:"title" json:"title"`
	// ContextMode controls conversation context visibility.
	ContextMode ContextMode `yaml:"context_mode" json:"context_mode"`
	// Triggers declare the routing signals for this agent.
	Triggers Triggers `yaml:"triggers" json:"triggers"`
	// ToolPolicy restricts tool usage for this agent.
	ToolPolicy ToolPolicy `yaml:"tool_policy" json:"tool_policy"`
	// Handoffs lists the transfers this agent may initiate, in order.
	Handoffs []HandoffSpec `yaml:"handoffs" json:"handoffs"`
	// SystemPrompt is the base prompt sent with every turn of this agent.
	SystemPrompt string `yaml:"system_prompt" json:"system_prompt"`
}
