package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/stepchain/model"
)

func collect(m *Model, req model.Request) ([]model.Response, error) {
	respCh, errCh := m.Generate(context.Background(), req)
	var out []model.Response
	for r := range respCh {
		out = append(out, r)
	}
	return out, <-errCh
}

func TestModel_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var payload map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "User: hi", payload["prompt"])
		assert.Equal(t, "qwen", payload["model"])
		assert.Equal(t, false, payload["stream"])
		_, _ = io.WriteString(w, `{"response":"hello","done":true,"done_reason":"stop","eval_count":2,"prompt_eval_count":3}`)
	}))
	defer srv.Close()

	m := NewModel(func(o *Options) {
		o.Endpoint = srv.URL + "/"
		o.Model = "qwen"
	})

	got, err := collect(m, model.Request{Prompt: "User: hi"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hello", got[0].Text)
	assert.Equal(t, 5, got[0].Usage.TotalTokens)
}

func TestModel_GenerateStreaming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "{\"response\":\"hel\",\"done\":false}\n{\"response\":\"lo\",\"done\":false}\n{\"response\":\"\",\"done\":true}\n")
	}))
	defer srv.Close()

	m := NewModel(func(o *Options) { o.Endpoint = srv.URL })

	got, err := collect(m, model.Request{Prompt: "p", Stream: true})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].Partial)
	assert.Equal(t, "hello", got[2].Text)
	assert.False(t, got[2].Partial)
}

func TestModel_GenerateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	m := NewModel(func(o *Options) { o.Endpoint = srv.URL })

	_, err := collect(m, model.Request{Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestModel_Info(t *testing.T) {
	m := NewModel(func(o *Options) { o.Model = "mistral" })
	assert.Equal(t, model.Info{Name: "mistral", Provider: "ollama"}, m.Info())
}

type panicTransport struct{}

func (panicTransport) RoundTrip(*http.Request) (*http.Response, error) {
	panic("transport exploded")
}

func TestModel_GeneratePanicInTransport(t *testing.T) {
	m := NewModel(func(o *Options) {
		o.HTTPClient = &http.Client{Transport: panicTransport{}}
	})

	var err error
	require.NotPanics(t, func() { _, err = collect(m, model.Request{Prompt: "p"}) })
	assert.ErrorIs(t, err, model.ErrProviderPanic)
	assert.Contains(t, err.Error(), "ollama: transport exploded")
}
