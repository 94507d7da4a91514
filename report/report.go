// Package report renders the human-readable outcome of a pipeline run.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/hupe1980/stepchain/agent"
	"github.com/hupe1980/stepchain/code"
)

// Section headers, in print order.
const (
	SummaryHeader   = "=== Simple Summary ==="
	CodeHeader      = "=== Complete Finished Code ==="
	TechnicalHeader = "=== Technical Details ==="
)

// Report is the input of Format.
type Report struct {
	Summary string
	Result  agent.PipelineResult
	// Language selects the fenced blocks copied into the code section;
	// defaults to python.
	Language string
}

// Format renders r. The code section is omitted when the final solution
// holds no block in the configured language.
func Format(r Report) string {
	lang := r.Language
	if lang == "" {
		lang = "python"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "\n%s\n%s\n", SummaryHeader, r.Summary)

	if blocks := code.FencedBlocks(r.Result.Final, lang); len(blocks) > 0 {
		fmt.Fprintf(&b, "\n%s\n", CodeHeader)
		for _, block := range blocks {
			b.WriteString(block + "\n")
		}
	}

	fmt.Fprintf(&b, "\n%s\n", TechnicalHeader)
	b.WriteString("Final Answer:\n")
	b.WriteString(r.Result.Final + "\n")
	b.WriteString("\nDetailed Reasoning and Steps:\n")
	b.WriteString(Stages(r.Result.Stages))

	return b.String()
}

// Stages renders every stage's solution under its agent name, in order.
func Stages(stages []agent.Result) string {
	var b strings.Builder
	for _, s := range stages {
		fmt.Fprintf(&b, "--- %s (%s) ---\n%s\n", s.Agent, s.Outcome, s.Solution)
	}
	return b.String()
}

// Write renders r to w.
func Write(w io.Writer, r Report) error {
	_, err := io.WriteString(w, Format(r))
	return err
}
