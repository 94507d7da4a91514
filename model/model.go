package model

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNoScriptedResponse is emitted by MockModel when its script is exhausted.
	ErrNoScriptedResponse = errors.New("mock model: no scripted response left")
	// ErrProviderPanic wraps a panic recovered inside a provider goroutine.
	ErrProviderPanic = errors.New("model: provider panic")
)

// Request captures the normalized model input. The reasoning loop always sends
// one composed prompt; Instructions is optional and maps to the provider's
// system prompt when set.
type Request struct {
	Instructions string `json:"instructions,omitempty"`
	Prompt       string `json:"prompt"`
	Stream       bool   `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string      `json:"id"`
	Partial      bool        `json:"partial"`
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason"`
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "ollama", "mock"
}

// Model is the minimal interface a provider implements. Generate emits zero or
// more partial chunks followed by exactly one final chunk, or an error. Both
// channels are closed when generation ends.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// RecoverPanic turns a panic in a Generate goroutine into an error on errCh.
// It must be deferred after the channel closes so that it runs before them:
//
//	defer close(out)
//	defer close(errCh)
//	defer model.RecoverPanic(errCh, "openai")
//
// When errCh already holds an error the panic is dropped.
func RecoverPanic(errCh chan<- error, provider string) {
	if r := recover(); r != nil {
		select {
		case errCh <- fmt.Errorf("%w: %s: %v", ErrProviderPanic, provider, r):
		default:
		}
	}
}

type scripted struct {
	text  string
	err   error
	panicValue any
}

// MockModel is an in-memory Model replaying a script of replies in order.
// It records every request it receives.
type MockModel struct {
	info Info

	mu       sync.Mutex
	script   []scripted
	requests []Request
}

// NewMockModel constructs an empty MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{info: Info{Name: name, Provider: "mock"}}
}

// AddResponse appends a reply to the script.
func (m *MockModel) AddResponse(text string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scripted{text: text})
	return m
}

// AddError appends a failing call to the script.
func (m *MockModel) AddError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scripted{err: err})
	return m
}

// AddPanic appends a call whose generation goroutine panics with v.
func (m *MockModel) AddPanic(v any) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scripted{panicValue: v})
	return m
}

// Requests returns the requests received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockModel) next(req Request) scripted {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if len(m.script) == 0 {
		return scripted{err: ErrNoScriptedResponse}
	}
	s := m.script[0]
	m.script = m.script[1:]
	return s
}

// Generate implements Model; emits per-rune partial chunks when streaming,
// then the final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	s := m.next(req)

	go func() {
		defer close(respCh)
		defer close(errCh)
		defer RecoverPanic(errCh, m.info.Provider)
		if s.panicValue != nil {
			panic(s.panicValue)
		}
		if s.err != nil {
			errCh <- s.err
			return
		}
		if req.Stream {
			for _, r := range s.text {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Text: string(r)}:
				}
			}
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- Response{Text: s.text, FinishReason: "stop"}:
		}
	}()
	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
