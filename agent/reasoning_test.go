package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hupe1980/stepchain/core"
	"github.com/hupe1980/stepchain/gateway"
	"github.com/hupe1980/stepchain/internal/testutil"
	"github.com/hupe1980/stepchain/parser"
	"github.com/hupe1980/stepchain/solution"
)

func newTestAgent(gw gateway.Gateway, optFns ...func(o *ReasoningAgentOptions)) *ReasoningAgent {
	return NewReasoningAgent(core.AgentSpec{Name: "Agent1", RolePrompt: "You are a solver."}, gw, optFns...)
}

func TestReasoningAgent_SeedPrompt(t *testing.T) {
	gw := testutil.NewScriptedGateway(testutil.Reply("Done", "X", "final_answer"))

	newTestAgent(gw).Solve(context.Background(), "What is 2+2?", "")

	require.Equal(t, 1, gw.Calls())
	assert.Equal(t,
		"System: You are a solver.\n\n"+
			"User: Problem:\nWhat is 2+2?\n\nPlease provide your solution.\n\n"+
			"Assistant: Understood. I will begin my reasoning steps now.",
		gw.Prompts()[0])
}

func TestReasoningAgent_SeedPromptWithPreviousSolution(t *testing.T) {
	gw := testutil.NewScriptedGateway(testutil.Reply("Done", "X", "final_answer"))

	newTestAgent(gw).Solve(context.Background(), "P", "### Step 1: A\nB\n\n")

	prompt := gw.Prompts()[0]
	assert.Contains(t, prompt, "User: Problem:\nP\n\nPrevious Solution:\n### Step 1: A\nB\n\n\n\nPlease proceed with your analysis.")
}

func TestReasoningAgent_ContinueIssuesExactlyOneMoreCall(t *testing.T) {
	gw := testutil.NewScriptedGateway(
		testutil.FencedReply("One", "first", "continue"),
		testutil.FencedReply("Two", "second", "continue"),
		testutil.FencedReply("Three", "third", "final_answer"),
	)

	res := newTestAgent(gw).Solve(context.Background(), "P", "")

	assert.Equal(t, OutcomeFinal, res.Outcome)
	assert.NoError(t, res.Err)
	assert.Equal(t, 3, gw.Calls())
	assert.Equal(t, 3, res.Calls)
	require.Len(t, res.Steps, 3)
	assert.Equal(t, []string{"One", "Two", "Three"}, []string{res.Steps[0].Title, res.Steps[1].Title, res.Steps[2].Title})
}

func TestReasoningAgent_FinalAnswerStopsCalling(t *testing.T) {
	gw := testutil.NewScriptedGateway(
		testutil.Reply("Only", "answer", "final_answer"),
		testutil.Reply("Never", "unused", "final_answer"),
	)

	res := newTestAgent(gw).Solve(context.Background(), "P", "")

	assert.Equal(t, OutcomeFinal, res.Outcome)
	assert.Equal(t, 1, gw.Calls())
	assert.Equal(t, "### Step 1: Only\nanswer\n\n", res.Solution)
}

func TestReasoningAgent_TranscriptGrowsWithRawReplies(t *testing.T) {
	first := testutil.FencedReply("One", "first", "continue")
	gw := testutil.NewScriptedGateway(first, testutil.Reply("Two", "second", "final_answer"))

	newTestAgent(gw).Solve(context.Background(), "P", "")

	prompts := gw.Prompts()
	require.Len(t, prompts, 2)
	assert.True(t, strings.HasPrefix(prompts[1], prompts[0]))
	assert.True(t, strings.HasSuffix(prompts[1], "\n\nAssistant: "+first))
}

func TestReasoningAgent_UnknownNextActionContinues(t *testing.T) {
	gw := testutil.NewScriptedGateway(
		testutil.Reply("One", "a", "refine"),
		testutil.Reply("Two", "b", "final_answer"),
	)

	res := newTestAgent(gw).Solve(context.Background(), "P", "")

	assert.Equal(t, OutcomeFinal, res.Outcome)
	assert.Equal(t, 2, gw.Calls())
}

func TestReasoningAgent_TransportFailureKeepsPartialSteps(t *testing.T) {
	gw := testutil.NewScriptedGateway(testutil.Reply("One", "partial", "continue")).
		ThenFail(gateway.ErrTransport)

	res := newTestAgent(gw).Solve(context.Background(), "P", "")

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, gateway.ErrTransport)
	require.Len(t, res.Steps, 1)
	assert.Equal(t, "### Step 1: One\npartial\n\n", res.Solution)
}

func TestReasoningAgent_ParseFailure(t *testing.T) {
	gw := testutil.NewScriptedGateway(
		testutil.Reply("One", "ok", "continue"),
		"not json at all",
		testutil.Reply("Never", "x", "final_answer"),
	)

	res := newTestAgent(gw).Solve(context.Background(), "P", "")

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, parser.ErrNoJSONObject)
	assert.Len(t, res.Steps, 1)
	assert.Equal(t, 2, gw.Calls())
}

func TestReasoningAgent_MissingFieldIsParseFailure(t *testing.T) {
	gw := testutil.NewScriptedGateway(`{"title":"T","content":"C"}`)

	res := newTestAgent(gw).Solve(context.Background(), "P", "")

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, parser.ErrMissingField)
	assert.Empty(t, res.Steps)
	assert.Equal(t, "", res.Solution)
}

func TestReasoningAgent_FailureOnFirstCall(t *testing.T) {
	gw := testutil.NewScriptedGateway().ThenFail(errors.New("down"))

	res := newTestAgent(gw).Solve(context.Background(), "P", "")

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Empty(t, res.Solution)
	assert.Equal(t, 1, res.Calls)
}

func TestReasoningAgent_IterationLimit(t *testing.T) {
	gw := testutil.NewScriptedGateway()
	for i := 0; i < 10; i++ {
		gw.ThenReply(testutil.Reply("Again", "more", "continue"))
	}

	res := newTestAgent(gw, func(o *ReasoningAgentOptions) { o.MaxIterations = 3 }).
		Solve(context.Background(), "P", "")

	assert.Equal(t, OutcomeIterationLimit, res.Outcome)
	assert.ErrorIs(t, res.Err, core.ErrLimitExceeded)
	assert.Equal(t, 3, gw.Calls())
	assert.Len(t, res.Steps, 3)
	assert.Contains(t, res.Solution, "### Step 3: Again")
}

func TestReasoningAgent_DefaultIterationLimit(t *testing.T) {
	a := newTestAgent(testutil.NewScriptedGateway(), func(o *ReasoningAgentOptions) { o.MaxIterations = -1 })
	assert.Equal(t, DefaultMaxIterations, a.opts.MaxIterations)
}

func TestReasoningAgent_FinalStageMergesCode(t *testing.T) {
	gw := testutil.NewScriptedGateway(
		testutil.Reply("A", "```python\nimport os\nprint(1)\n```", "continue"),
		testutil.Reply("B", "```python\nimport os\nprint(2)\n```", "final_answer"),
	)
	a := newTestAgent(gw)
	a.setFinalStage(true)

	res := a.Solve(context.Background(), "P", "")

	assert.True(t, strings.HasSuffix(res.Solution, "\n"+solution.CompleteCodeHeader+"\n```python\nimport os\nprint(1)\nprint(2)\n```\n"))
	assert.Equal(t, "import os\nprint(1)\n", res.Steps[0].CodeBlock)
}

func TestReasoningAgent_NonFinalStageDoesNotMerge(t *testing.T) {
	gw := testutil.NewScriptedGateway(testutil.Reply("A", "```python\nimport os\n```", "final_answer"))

	res := newTestAgent(gw).Solve(context.Background(), "P", "")

	assert.NotContains(t, res.Solution, solution.CompleteCodeHeader)
}

func TestReasoningAgent_FreshStatePerInvocation(t *testing.T) {
	gw := testutil.NewScriptedGateway(
		testutil.Reply("First run", "a", "final_answer"),
		testutil.Reply("Second run", "b", "final_answer"),
	)
	a := newTestAgent(gw)

	r1 := a.Solve(context.Background(), "P", "")
	r2 := a.Solve(context.Background(), "P", "")

	assert.Len(t, r1.Steps, 1)
	assert.Len(t, r2.Steps, 1)
	assert.Equal(t, "Second run", r2.Steps[0].Title)
	assert.Equal(t, gw.Prompts()[0], gw.Prompts()[1])
}

func TestReasoningAgent_Tracing(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	gw := testutil.NewScriptedGateway(testutil.Reply("A", "b", "final_answer"))

	newTestAgent(gw, func(o *ReasoningAgentOptions) { o.Tracer = tp.Tracer("test") }).
		Solve(context.Background(), "P", "")

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "agent.solve", spans[0].Name())
	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "final", attrs["agent.outcome"])
	assert.Equal(t, "Agent1", attrs["agent.name"])
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "final", OutcomeFinal.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "iteration_limit", OutcomeIterationLimit.String())
	assert.Equal(t, "unknown", Outcome(9).String())
}

func TestReasoningAgent_Accessors(t *testing.T) {
	spec := core.AgentSpec{Name: "Agent2", RolePrompt: "You review."}
	a := NewReasoningAgent(spec, testutil.NewScriptedGateway())

	assert.Equal(t, spec, a.Spec())
	assert.Equal(t, "Agent2", a.Name())
	assert.False(t, a.IsFinalStage())
}
