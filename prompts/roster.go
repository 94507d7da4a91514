// Package prompts holds the built-in role prompts of the default four-stage
// pipeline and the templates used to seed and summarise a run.
package prompts

import (
	"embed"
	"strings"

	"github.com/hupe1980/stepchain/core"
)

//go:embed roles/*.md
var roles embed.FS

func role(name string) string {
	b, err := roles.ReadFile("roles/" + name + ".md")
	if err != nil {
		panic("prompts: missing embedded role " + name)
	}
	return strings.TrimSpace(string(b))
}

// DefaultRoster returns the four built-in stages in pipeline order: an
// initial solver, a critical analyst, a domain expert and a final reviewer.
func DefaultRoster() []core.AgentSpec {
	return []core.AgentSpec{
		{Name: "Agent1", RolePrompt: role("initial_solver")},
		{Name: "Agent2", RolePrompt: role("critical_analyst")},
		{Name: "Agent3", RolePrompt: role("domain_expert")},
		{Name: "Agent4", RolePrompt: role("final_reviewer")},
	}
}
