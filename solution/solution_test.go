package solution

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/stepchain/code"
	"github.com/hupe1980/stepchain/core"
)

func TestCompile_Transcript(t *testing.T) {
	steps := []core.Step{
		{Title: "Analyze", Content: "first", NextAction: core.ActionContinue},
		{Title: "Conclude", Content: "second", NextAction: core.ActionFinalAnswer},
	}

	got := NewCompiler().Compile(steps, false)

	assert.Equal(t, "### Step 1: Analyze\nfirst\n\n### Step 2: Conclude\nsecond\n\n", got)
}

func TestCompile_Empty(t *testing.T) {
	assert.Equal(t, "", NewCompiler().Compile(nil, true))
}

func TestCompile_NonFinalStageSkipsMerge(t *testing.T) {
	steps := []core.Step{{Title: "Code", Content: "```python\nimport os\n```"}}

	got := NewCompiler().Compile(steps, false)

	assert.NotContains(t, got, CompleteCodeHeader)
}

func TestCompile_FinalStageMergesAllFragments(t *testing.T) {
	steps := []core.Step{
		{Title: "One", Content: "a\n```python\nimport os\nprint(1)\n```\nb\n```python\nLIMIT = 1\n```"},
		{Title: "Two", Content: "no code"},
		{Title: "Three", Content: "```python\nimport os\nLIMIT = 1\nprint(2)\n```"},
	}

	got := NewCompiler().Compile(steps, true)

	want := "### Step 1: One\n" + steps[0].Content + "\n\n" +
		"### Step 2: Two\nno code\n\n" +
		"### Step 3: Three\n" + steps[2].Content + "\n\n" +
		"\n=== Complete Code ===\n```python\nimport os\nprint(1)\nLIMIT = 1\nprint(2)\n```\n"
	assert.Equal(t, want, got)
}

func TestCompile_FinalStageWithoutCode(t *testing.T) {
	steps := []core.Step{{Title: "Plain", Content: "text"}}

	got := NewCompiler().Compile(steps, true)

	assert.Equal(t, "### Step 1: Plain\ntext\n\n", got)
}

func TestCompile_CustomLanguageAndMerger(t *testing.T) {
	c := NewCompiler(func(o *Options) {
		o.Language = "go"
		o.Merger = code.NewMerger(code.WithImportPrefixes("import "))
	})
	steps := []core.Step{{Title: "G", Content: "```go\nimport \"fmt\"\nfrom x\nfrom x\n```"}}

	got := c.Compile(steps, true)

	assert.Contains(t, got, "```go\nimport \"fmt\"\nfrom x\nfrom x\n```\n")
}

func TestCompile_Deterministic(t *testing.T) {
	steps := []core.Step{{Title: "T", Content: "```\nx()\n```"}}
	c := NewCompiler()

	assert.Equal(t, c.Compile(steps, true), c.Compile(steps, true))
}
