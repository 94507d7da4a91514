package core

// NextAction is the model's decision after a reasoning step.
type NextAction string

const (
	// ActionContinue asks for another reasoning step.
	ActionContinue NextAction = "continue"
	// ActionFinalAnswer ends the agent's reasoning loop.
	ActionFinalAnswer NextAction = "final_answer"
)

// IsFinal reports whether the action terminates the loop. Any value other
// than final_answer keeps the loop going.
func (a NextAction) IsFinal() bool { return a == ActionFinalAnswer }

// Step is one structured unit of reasoning produced from a single model
// reply. Steps are values and are never modified after parsing.
type Step struct {
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	NextAction NextAction `json:"next_action"`
	// CodeBlock holds the body of the first fenced block found in Content,
	// or "" when Content has none. Content itself is never truncated.
	CodeBlock string `json:"code_block,omitempty"`
}

// HasCode reports whether the step's content embedded a fenced block.
func (s Step) HasCode() bool { return s.CodeBlock != "" }
