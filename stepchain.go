// Package stepchain provides a high-level façade over the reasoning pipeline.
// Most applications interact with this package by:
//  1. Creating a Chain via New() with the gateway that talks to the model
//     (optionally overriding the agent roster and loop limits)
//  2. Calling Solve with a problem statement
//  3. Optionally calling Summarize on the final solution
//
// The façade delegates orchestration to agent.Pipeline. The default roster
// is the four-stage solver/analyst/expert/reviewer chain from the prompts
// package.
package stepchain

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/stepchain/agent"
	"github.com/hupe1980/stepchain/core"
	"github.com/hupe1980/stepchain/gateway"
	"github.com/hupe1980/stepchain/logging"
	"github.com/hupe1980/stepchain/prompts"
	"github.com/hupe1980/stepchain/solution"
	"github.com/hupe1980/stepchain/summary"
	"github.com/hupe1980/stepchain/telemetry"
)

// ErrNoAgents is returned by New when the roster is empty.
var ErrNoAgents = errors.New("stepchain: at least one agent is required")

// Options configures the Chain instance.
type Options struct {
	// Agents is the ordered roster (defaults to prompts.DefaultRoster).
	Agents []core.AgentSpec

	// MaxIterations caps gateway calls per agent (0 selects
	// agent.DefaultMaxIterations).
	MaxIterations int

	// CodeLanguage tags the merged code section of the final solution and
	// selects the blocks shown in reports (defaults to python).
	CodeLanguage string

	// SummaryGateway answers summary requests; the pipeline gateway is used
	// when nil.
	SummaryGateway gateway.Gateway

	// Logger (defaults to NoOp logger if nil)
	Logger  logging.Logger
	Tracer  trace.Tracer
	Metrics *telemetry.Metrics
}

// Chain is the high-level façade aggregating the pipeline and the
// summarizer.
type Chain struct {
	opts       Options
	pipeline   *agent.Pipeline
	summarizer *summary.Summarizer
}

// New creates a Chain whose agents all query gw.
func New(gw gateway.Gateway, optFns ...func(o *Options)) (*Chain, error) {
	opts := Options{
		Agents:       prompts.DefaultRoster(),
		CodeLanguage: "python",
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if len(opts.Agents) == 0 {
		return nil, ErrNoAgents
	}
	if opts.CodeLanguage == "" {
		opts.CodeLanguage = "python"
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	if opts.Tracer == nil {
		opts.Tracer = telemetry.Tracer()
	}

	compiler := solution.NewCompiler(func(o *solution.Options) {
		o.Language = opts.CodeLanguage
	})

	stages := make([]*agent.ReasoningAgent, 0, len(opts.Agents))
	for _, spec := range opts.Agents {
		stages = append(stages, agent.NewReasoningAgent(spec, gw, func(o *agent.ReasoningAgentOptions) {
			o.MaxIterations = opts.MaxIterations
			o.Compiler = compiler
			o.Logger = opts.Logger
			o.Tracer = opts.Tracer
			o.Metrics = opts.Metrics
		}))
	}

	pipeline := agent.NewPipeline(stages, func(o *agent.PipelineOptions) {
		o.Logger = opts.Logger
		o.Tracer = opts.Tracer
	})

	summaryGW := opts.SummaryGateway
	if summaryGW == nil {
		summaryGW = gw
	}
	summarizer := summary.NewSummarizer(summaryGW, func(o *summary.Options) {
		o.Logger = opts.Logger
	})

	return &Chain{opts: opts, pipeline: pipeline, summarizer: summarizer}, nil
}

// Agents returns the stage names in execution order.
func (c *Chain) Agents() []string { return c.pipeline.Stages() }

// CodeLanguage returns the configured code language.
func (c *Chain) CodeLanguage() string { return c.opts.CodeLanguage }

// Solve runs the whole pipeline for problem.
func (c *Chain) Solve(ctx context.Context, problem string) agent.PipelineResult {
	c.opts.Logger.Info("User problem received", "problem", problem)
	return c.pipeline.Run(ctx, problem)
}

// Summarize asks the summary gateway for a plain-language version of
// solution. The returned text is printable even when err is set.
func (c *Chain) Summarize(ctx context.Context, solution string) (string, error) {
	return c.summarizer.Summarize(ctx, solution)
}
