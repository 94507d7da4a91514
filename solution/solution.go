// Package solution renders an agent's step history into its compiled
// Solution text.
package solution

import (
	"fmt"
	"strings"

	"github.com/hupe1980/stepchain/code"
	"github.com/hupe1980/stepchain/core"
)

// CompleteCodeHeader labels the merged code section of a final-stage solution.
const CompleteCodeHeader = "=== Complete Code ==="

// Options configures a Compiler.
type Options struct {
	// Language tags the fence of the merged code section.
	Language string
	// Merger merges the code fragments of a final-stage solution.
	Merger *code.Merger
}

// Compiler turns Steps into Solution text. A Solution depends on nothing but
// the steps and the final-stage flag.
type Compiler struct {
	opts Options
}

// NewCompiler creates a Compiler. Defaults: python fences, default Merger.
func NewCompiler(optFns ...func(o *Options)) *Compiler {
	opts := Options{Language: "python"}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Merger == nil {
		opts.Merger = code.NewMerger()
	}
	return &Compiler{opts: opts}
}

// Compile renders every step as "### Step <n>: <title>" followed by its
// content. For the final stage, when any step embeds fenced code, all
// fragments (step order, then block order) are merged and appended as one
// labelled section.
func (c *Compiler) Compile(steps []core.Step, finalStage bool) string {
	var b strings.Builder
	var fragments []string

	for i, step := range steps {
		fmt.Fprintf(&b, "### Step %d: %s\n%s\n\n", i+1, step.Title, step.Content)
		fragments = append(fragments, code.ExtractBlocks(step.Content)...)
	}

	if finalStage && len(fragments) > 0 {
		b.WriteString("\n" + CompleteCodeHeader + "\n")
		b.WriteString("```" + c.opts.Language + "\n")
		b.WriteString(c.opts.Merger.Merge(fragments))
		b.WriteString("\n```\n")
	}

	return b.String()
}
