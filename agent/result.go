package agent

import "github.com/hupe1980/stepchain/core"

// Outcome is the terminal state of one reasoning loop.
type Outcome int

const (
	// OutcomeFinal means the model emitted final_answer.
	OutcomeFinal Outcome = iota
	// OutcomeFailed means a gateway call or a reply parse failed.
	OutcomeFailed
	// OutcomeIterationLimit means the iteration budget ran out first.
	OutcomeIterationLimit
)

// String returns the outcome name used in logs, traces and the HTTP API.
func (o Outcome) String() string {
	switch o {
	case OutcomeFinal:
		return "final"
	case OutcomeFailed:
		return "failed"
	case OutcomeIterationLimit:
		return "iteration_limit"
	default:
		return "unknown"
	}
}

// Result is the output of one agent invocation. Solution is always set, even
// when the loop ended early; it is then compiled from the partial steps.
type Result struct {
	Agent    string
	Steps    []core.Step
	Solution string
	Outcome  Outcome
	// Err explains OutcomeFailed and OutcomeIterationLimit.
	Err error
	// Calls is the number of gateway calls made.
	Calls int
}
