// Package ollama implements model.Model against a local Ollama server using
// its /api/generate endpoint.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hupe1980/stepchain/model"
)

// DefaultEndpoint is used when Options.Endpoint is empty.
const DefaultEndpoint = "http://localhost:11434"

// Options configures the Ollama adapter.
type Options struct {
	Endpoint    string
	Model       string
	Temperature float64
	HTTPClient  *http.Client
}

// Model talks to an Ollama server.
type Model struct {
	opts Options
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	DoneReason      string `json:"done_reason"`
	EvalCount       int    `json:"eval_count"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	Error           string `json:"error"`
}

// NewModel builds an Ollama model.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Endpoint:    DefaultEndpoint,
		Model:       "llama3.1",
		Temperature: 0.7,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	opts.Endpoint = strings.TrimRight(opts.Endpoint, "/")
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 3 * time.Minute}
	}
	return &Model{opts: opts}
}

// Generate implements model.Model. With Stream set, every NDJSON line becomes
// a partial response.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)
		defer model.RecoverPanic(errCh, "ollama")

		resp, err := m.post(ctx, req)
		if err != nil {
			errCh <- err
			return
		}
		defer resp.Body.Close()

		if req.Stream {
			m.readStream(resp.Body, out, errCh)
			return
		}

		var gr generateResponse
		if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
			errCh <- fmt.Errorf("ollama: decode response: %w", err)
			return
		}
		if gr.Error != "" {
			errCh <- fmt.Errorf("ollama error: %s", gr.Error)
			return
		}
		out <- finalResponse(gr.Response, gr)
	}()

	return out, errCh
}

func (m *Model) post(ctx context.Context, req model.Request) (*http.Response, error) {
	payload := generateRequest{
		Model:   m.opts.Model,
		Prompt:  req.Prompt,
		System:  req.Instructions,
		Stream:  req.Stream,
		Options: map[string]any{"temperature": m.opts.Temperature},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.opts.Endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := m.opts.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if detail := strings.TrimSpace(string(msg)); detail != "" {
			return nil, fmt.Errorf("ollama error: %s: %s", resp.Status, detail)
		}
		return nil, fmt.Errorf("ollama error: %s", resp.Status)
	}
	return resp, nil
}

func (m *Model) readStream(body io.Reader, out chan<- model.Response, errCh chan<- error) {
	var text strings.Builder
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var gr generateResponse
		if err := json.Unmarshal(line, &gr); err != nil {
			errCh <- fmt.Errorf("ollama: decode stream chunk: %w", err)
			return
		}
		if gr.Error != "" {
			errCh <- fmt.Errorf("ollama error: %s", gr.Error)
			return
		}
		if gr.Response != "" {
			text.WriteString(gr.Response)
			out <- model.Response{Partial: true, Text: gr.Response}
		}
		if gr.Done {
			out <- finalResponse(text.String(), gr)
			return
		}
	}
	if err := scanner.Err(); err != nil {
		errCh <- fmt.Errorf("ollama: read stream: %w", err)
		return
	}
	errCh <- fmt.Errorf("ollama: stream ended before done")
}

func finalResponse(text string, gr generateResponse) model.Response {
	reason := gr.DoneReason
	if reason == "" {
		reason = "stop"
	}
	return model.Response{
		Text:         text,
		FinishReason: reason,
		Usage: &model.TokenUsage{
			PromptTokens:     gr.PromptEvalCount,
			CompletionTokens: gr.EvalCount,
			TotalTokens:      gr.PromptEvalCount + gr.EvalCount,
		},
	}
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "ollama"}
}
