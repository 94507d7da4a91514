package core

// AgentSpec is the static configuration of one pipeline stage. It owns no
// mutable state; every invocation of the stage starts a fresh Conversation and
// Step history.
type AgentSpec struct {
	Name       string `yaml:"name" json:"name"`
	RolePrompt string `yaml:"role_prompt" json:"role_prompt"`
}
