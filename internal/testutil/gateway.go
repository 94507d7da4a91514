package testutil

import (
	"context"
	"errors"
	"sync"
)

// ErrScriptExhausted is returned by ScriptedGateway once every scripted
// reply has been consumed.
var ErrScriptExhausted = errors.New("scripted gateway: script exhausted")

type call struct {
	reply string
	err   error
}

// ScriptedGateway replays replies in order and records every prompt it
// receives. It satisfies gateway.Gateway.
type ScriptedGateway struct {
	mu      sync.Mutex
	script  []call
	prompts []string
}

// NewScriptedGateway creates a gateway answering with replies in order.
func NewScriptedGateway(replies ...string) *ScriptedGateway {
	g := &ScriptedGateway{}
	for _, r := range replies {
		g.script = append(g.script, call{reply: r})
	}
	return g
}

// ThenReply appends a reply to the script.
func (g *ScriptedGateway) ThenReply(reply string) *ScriptedGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.script = append(g.script, call{reply: reply})
	return g
}

// ThenFail appends a failing call to the script.
func (g *ScriptedGateway) ThenFail(err error) *ScriptedGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.script = append(g.script, call{err: err})
	return g
}

// Complete implements gateway.Gateway.
func (g *ScriptedGateway) Complete(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if len(g.script) == 0 {
		return "", ErrScriptExhausted
	}
	c := g.script[0]
	g.script = g.script[1:]
	return c.reply, c.err
}

// Prompts returns every prompt received so far.
func (g *ScriptedGateway) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.prompts))
	copy(out, g.prompts)
	return out
}

// Calls returns the number of Complete invocations.
func (g *ScriptedGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}
