// Package gateway is the boundary between the reasoning loop and an external
// generative model. A Gateway takes one composed prompt and returns the
// model's raw reply text, or an error wrapping ErrTransport. Provider errors
// and provider panics never escape in any other form.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/stepchain/logging"
	"github.com/hupe1980/stepchain/model"
	"github.com/hupe1980/stepchain/telemetry"
)

var (
	// ErrTransport marks every failure to obtain a reply.
	ErrTransport = errors.New("gateway: transport failure")
	// ErrEmptyReply is wrapped together with ErrTransport when the model
	// answered with no text.
	ErrEmptyReply = errors.New("gateway: empty reply")
)

// Gateway sends a composed prompt to a model. Calls block until the model
// replies or fails; there are no retries.
type Gateway interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Func adapts an ordinary function to the Gateway interface.
type Func func(ctx context.Context, prompt string) (string, error)

// Complete implements Gateway.
func (f Func) Complete(ctx context.Context, prompt string) (string, error) { return f(ctx, prompt) }

// Options configures a ModelGateway.
type Options struct {
	// Instructions is forwarded as the provider's system prompt. The
	// reasoning loop leaves it empty because the role prompt is already part
	// of the composed prompt.
	Instructions string
	// Stream requests incremental output from the provider; the gateway
	// still returns the complete text.
	Stream bool
	Logger logging.Logger
	Tracer trace.Tracer
}

// ModelGateway implements Gateway over a model.Model fixed at construction.
type ModelGateway struct {
	model model.Model
	opts  Options
}

// New creates a ModelGateway for m.
func New(m model.Model, optFns ...func(o *Options)) *ModelGateway {
	opts := Options{
		Logger: logging.NoOpLogger{},
		Tracer: telemetry.Tracer(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	if opts.Tracer == nil {
		opts.Tracer = telemetry.Tracer()
	}
	return &ModelGateway{model: m, opts: opts}
}

// Info returns the identity of the wrapped model.
func (g *ModelGateway) Info() model.Info { return g.model.Info() }

// Complete implements Gateway.
func (g *ModelGateway) Complete(ctx context.Context, prompt string) (text string, err error) {
	info := g.model.Info()
	ctx, span := g.opts.Tracer.Start(ctx, "gateway.complete", trace.WithAttributes(
		attribute.String("model.name", info.Name),
		attribute.String("model.provider", info.Provider),
		attribute.Int("prompt.length", len(prompt)),
	))
	start := time.Now()
	tokens := 0

	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: provider panic: %v", ErrTransport, r)
		}
		g.logCall(info.Name, tokens, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("reply.length", len(text)))
		}
		span.End()
	}()

	respCh, errCh := g.model.Generate(ctx, model.Request{
		Instructions: g.opts.Instructions,
		Prompt:       prompt,
		Stream:       g.opts.Stream,
	})

	text, tokens, err = collect(respCh, errCh)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %w", ErrTransport, ErrEmptyReply)
	}
	return text, nil
}

// collect drains both channels. The final non-partial chunk wins; partial
// chunks are concatenated only if no final chunk arrives.
func collect(respCh <-chan model.Response, errCh <-chan error) (string, int, error) {
	var (
		partial  strings.Builder
		final    string
		gotFinal bool
		tokens   int
		genErr   error
	)
	for respCh != nil || errCh != nil {
		select {
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if r.Partial {
				partial.WriteString(r.Text)
				continue
			}
			final, gotFinal = r.Text, true
			if r.Usage != nil {
				tokens = r.Usage.TotalTokens
			}
		case e, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if e != nil && genErr == nil {
				genErr = e
			}
		}
	}
	if genErr != nil {
		return "", tokens, genErr
	}
	if !gotFinal {
		return partial.String(), tokens, nil
	}
	return final, tokens, nil
}

func (g *ModelGateway) logCall(modelName string, tokens int, dur time.Duration, err error) {
	if l, ok := g.opts.Logger.(logging.ModelCallLogger); ok {
		l.LogModelCall(modelName, tokens, dur, err)
		return
	}
	if err != nil {
		g.opts.Logger.Error("Model call failed", "model", modelName, "duration", dur, "error", err)
		return
	}
	g.opts.Logger.Debug("Model call completed", "model", modelName, "duration", dur, "token_count", tokens)
}
