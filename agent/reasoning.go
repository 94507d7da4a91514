package agent

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/stepchain/core"
	"github.com/hupe1980/stepchain/gateway"
	"github.com/hupe1980/stepchain/internal/util"
	"github.com/hupe1980/stepchain/logging"
	"github.com/hupe1980/stepchain/parser"
	"github.com/hupe1980/stepchain/prompts"
	"github.com/hupe1980/stepchain/solution"
	"github.com/hupe1980/stepchain/telemetry"
)

// DefaultMaxIterations bounds the reasoning loop when no explicit limit is
// configured.
const DefaultMaxIterations = 20

// ReasoningAgentOptions configures a ReasoningAgent.
type ReasoningAgentOptions struct {
	// MaxIterations caps the number of gateway calls per invocation. Values
	// <= 0 select DefaultMaxIterations.
	MaxIterations int
	// UserTemplate renders the seeding user message from .Problem and
	// .PreviousSolution.
	UserTemplate string
	// Acknowledgement is the assistant message that closes the seed.
	Acknowledgement string
	Compiler        *solution.Compiler
	Logger          logging.Logger
	Tracer          trace.Tracer
	Metrics         *telemetry.Metrics
}

// ReasoningAgent drives one pipeline stage: it repeatedly queries its gateway
// and parses each reply into a Step until the model emits final_answer, a
// call or parse fails, or the iteration budget runs out.
//
// States: START -> AWAITING_REPLY -> PARSED -> {AWAITING_REPLY | FINAL |
// FAILED}, plus LIMIT when the budget is spent. Every terminal state compiles
// the steps gathered so far.
type ReasoningAgent struct {
	spec       core.AgentSpec
	gateway    gateway.Gateway
	finalStage bool
	opts       ReasoningAgentOptions
}

// NewReasoningAgent creates a stage from its static spec and gateway.
func NewReasoningAgent(spec core.AgentSpec, gw gateway.Gateway, optFns ...func(o *ReasoningAgentOptions)) *ReasoningAgent {
	opts := ReasoningAgentOptions{
		MaxIterations:   DefaultMaxIterations,
		UserTemplate:    prompts.UserTemplate,
		Acknowledgement: prompts.Acknowledgement,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.Compiler == nil {
		opts.Compiler = solution.NewCompiler()
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	if opts.Tracer == nil {
		opts.Tracer = telemetry.Tracer()
	}
	return &ReasoningAgent{spec: spec, gateway: gw, opts: opts}
}

// Name returns the stage name.
func (a *ReasoningAgent) Name() string { return a.spec.Name }

// Spec returns the static configuration of the stage.
func (a *ReasoningAgent) Spec() core.AgentSpec { return a.spec }

// IsFinalStage reports whether this stage merges code into its solution.
func (a *ReasoningAgent) IsFinalStage() bool { return a.finalStage }

// setFinalStage is called by Pipeline only.
func (a *ReasoningAgent) setFinalStage(final bool) { a.finalStage = final }

type userSeed struct {
	Problem          string
	PreviousSolution string
}

// Solve runs the reasoning loop for problem. previous is the compiled
// solution of the preceding stage, or "" for the first stage. Solve never
// fails: failures end the loop early and are reported in Result.
func (a *ReasoningAgent) Solve(ctx context.Context, problem, previous string) Result {
	ctx, span := a.opts.Tracer.Start(ctx, "agent.solve", trace.WithAttributes(
		attribute.String("agent.name", a.spec.Name),
		attribute.Bool("agent.final_stage", a.finalStage),
	))
	defer span.End()

	res := Result{Agent: a.spec.Name}

	conv, err := a.seed(problem, previous)
	if err != nil {
		res.Outcome, res.Err = OutcomeFailed, err
	} else {
		limiter := core.NewModelLimiter(a.opts.MaxIterations)
		res.Outcome, res.Err = a.loop(ctx, conv, limiter, &res.Steps)
		res.Calls = limiter.Count()
	}

	res.Solution = a.opts.Compiler.Compile(res.Steps, a.finalStage)

	span.SetAttributes(
		attribute.String("agent.outcome", res.Outcome.String()),
		attribute.Int("agent.steps", len(res.Steps)),
	)
	if res.Outcome == OutcomeFailed {
		span.SetStatus(codes.Error, res.Err.Error())
	}
	a.opts.Metrics.RecordOutcome(ctx, a.spec.Name, res.Outcome.String())

	a.opts.Logger.Info("Agent completed",
		"agent", a.spec.Name,
		"outcome", res.Outcome.String(),
		"steps", len(res.Steps),
		"calls", res.Calls,
	)

	return res
}

func (a *ReasoningAgent) seed(problem, previous string) (*core.Conversation, error) {
	user, err := util.RenderTemplate(a.opts.UserTemplate, userSeed{Problem: problem, PreviousSolution: previous})
	if err != nil {
		return nil, err
	}
	return core.NewConversation(
		core.Message{Role: core.RoleSystem, Content: a.spec.RolePrompt},
		core.Message{Role: core.RoleUser, Content: user},
		core.Message{Role: core.RoleAssistant, Content: a.opts.Acknowledgement},
	), nil
}

func (a *ReasoningAgent) loop(ctx context.Context, conv *core.Conversation, limiter *core.ModelLimiter, steps *[]core.Step) (Outcome, error) {
	for {
		if err := limiter.Increment(); err != nil {
			a.opts.Logger.Warn("Iteration limit reached before final answer",
				"agent", a.spec.Name, "max_iterations", a.opts.MaxIterations)
			return OutcomeIterationLimit, err
		}

		start := time.Now()
		raw, err := a.gateway.Complete(ctx, conv.Render())
		a.opts.Metrics.RecordModelCall(ctx, a.spec.Name, time.Since(start), err)
		if err != nil {
			a.opts.Logger.Error("Agent did not receive a valid response", "agent", a.spec.Name, "error", err)
			return OutcomeFailed, err
		}

		step, err := parser.ParseStep(raw)
		if err != nil {
			a.opts.Logger.Error("Agent failed to parse response", "agent", a.spec.Name, "error", err, "response", raw)
			return OutcomeFailed, err
		}

		*steps = append(*steps, step)
		conv.Append(core.RoleAssistant, raw)
		a.opts.Metrics.RecordStep(ctx, a.spec.Name)
		a.opts.Logger.Info("Reasoning step recorded",
			"agent", a.spec.Name,
			"step", len(*steps),
			"title", step.Title,
			"next_action", string(step.NextAction),
		)

		if step.NextAction.IsFinal() {
			return OutcomeFinal, nil
		}
	}
}
