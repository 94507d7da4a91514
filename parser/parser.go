// Package parser turns a raw model reply into a core.Step.
//
// A reply is expected to carry a JSON object with the keys title, content and
// next_action, either inside a fenced block (with or without a language tag)
// or as the entire reply.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hupe1980/stepchain/code"
	"github.com/hupe1980/stepchain/core"
)

var (
	// ErrEmptyReply is returned for a reply with no text at all.
	ErrEmptyReply = errors.New("parser: empty reply")
	// ErrNoJSONObject is returned when neither a fenced JSON block nor the
	// whole reply decodes as a JSON object.
	ErrNoJSONObject = errors.New("parser: no JSON object found in reply")
	// ErrMissingField is returned when a required key is absent.
	ErrMissingField = errors.New("parser: required field missing")
)

// openFence matches the start of a fenced block whose body begins with a
// brace. The index of the brace is the end of the match minus one.
var openFence = regexp.MustCompile("```[A-Za-z0-9_+#.-]*\\s*\\{")

// closeFence must follow a decoded object, allowing whitespace in between.
var closeFence = regexp.MustCompile("^\\s*```")

type record struct {
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	NextAction *string `json:"next_action"`
}

// ParseStep extracts a Step from raw. Attempts, first success wins:
//  1. each fenced block whose body is a JSON object, in order of appearance
//  2. the entire reply as a JSON object
//
// If the record's content embeds a fenced block, its body is copied to
// Step.CodeBlock.
func ParseStep(raw string) (core.Step, error) {
	if strings.TrimSpace(raw) == "" {
		return core.Step{}, ErrEmptyReply
	}

	rec, ok := decodeFenced(raw)
	if !ok {
		if err := decodeObject(strings.TrimSpace(raw), &rec); err != nil {
			return core.Step{}, fmt.Errorf("%w: %v", ErrNoJSONObject, err)
		}
	}

	return rec.step()
}

func decodeFenced(raw string) (record, bool) {
	for _, loc := range openFence.FindAllStringIndex(raw, -1) {
		body := raw[loc[1]-1:]
		dec := json.NewDecoder(strings.NewReader(body))
		var rec record
		if err := dec.Decode(&rec); err != nil {
			continue
		}
		if !closeFence.MatchString(body[dec.InputOffset():]) {
			continue
		}
		return rec, true
	}
	return record{}, false
}

func decodeObject(text string, rec *record) error {
	if !strings.HasPrefix(text, "{") {
		return errors.New("reply does not start with '{'")
	}
	return json.Unmarshal([]byte(text), rec)
}

func (r record) step() (core.Step, error) {
	switch {
	case r.Title == nil:
		return core.Step{}, fmt.Errorf("%w: title", ErrMissingField)
	case r.Content == nil:
		return core.Step{}, fmt.Errorf("%w: content", ErrMissingField)
	case r.NextAction == nil:
		return core.Step{}, fmt.Errorf("%w: next_action", ErrMissingField)
	}

	step := core.Step{
		Title:      *r.Title,
		Content:    *r.Content,
		NextAction: core.NextAction(*r.NextAction),
	}
	if block, ok := code.FirstBlock(step.Content); ok {
		step.CodeBlock = block
	}
	return step, nil
}
