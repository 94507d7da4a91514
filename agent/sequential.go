package agent

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/stepchain/logging"
	"github.com/hupe1980/stepchain/telemetry"
)

// PipelineOptions configures a Pipeline.
type PipelineOptions struct {
	Logger logging.Logger
	Tracer trace.Tracer
	// NewRunID generates run identifiers; defaults to random UUIDs.
	NewRunID func() string
}

// PipelineResult is the output of one pipeline run.
type PipelineResult struct {
	RunID string
	// Stages holds one Result per stage, in pipeline order.
	Stages []Result
	// Final is the last stage's solution.
	Final string
}

// Pipeline coordinates a fixed, ordered sequence of reasoning agents. Each
// stage receives the problem and the previous stage's compiled solution;
// stages never overlap.
//
// The last stage is marked as the final stage on construction, which makes
// its solution carry the merged code section. A ReasoningAgent should belong
// to a single Pipeline.
type Pipeline struct {
	stages []*ReasoningAgent
	opts   PipelineOptions
}

// NewPipeline creates a pipeline over stages in the given order.
func NewPipeline(stages []*ReasoningAgent, optFns ...func(o *PipelineOptions)) *Pipeline {
	opts := PipelineOptions{
		NewRunID: func() string { return uuid.NewString() },
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	if opts.Tracer == nil {
		opts.Tracer = telemetry.Tracer()
	}

	ordered := make([]*ReasoningAgent, len(stages))
	copy(ordered, stages)
	for i, s := range ordered {
		s.setFinalStage(i == len(ordered)-1)
	}

	return &Pipeline{stages: ordered, opts: opts}
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run executes every stage in order. A stage that fails still hands its
// partial solution to the next one; Run itself never fails.
func (p *Pipeline) Run(ctx context.Context, problem string) PipelineResult {
	runID := p.opts.NewRunID()
	ctx, span := p.opts.Tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.Int("pipeline.stages", len(p.stages)),
	))
	defer span.End()

	p.opts.Logger.Info("Pipeline started", "run_id", runID, "stages", len(p.stages))

	res := PipelineResult{RunID: runID, Stages: make([]Result, 0, len(p.stages))}
	previous := ""
	for _, stage := range p.stages {
		r := stage.Solve(ctx, problem, previous)
		res.Stages = append(res.Stages, r)
		previous = r.Solution
	}
	res.Final = previous

	p.opts.Logger.Info("Pipeline completed", "run_id", runID, "final_length", len(res.Final))

	return res
}
