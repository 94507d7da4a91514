// Package summary asks a model for a plain-language summary of a finished
// pipeline run.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/stepchain/gateway"
	"github.com/hupe1980/stepchain/internal/util"
	"github.com/hupe1980/stepchain/logging"
	"github.com/hupe1980/stepchain/prompts"
)

// Fallback is returned when the model answers with no text.
const Fallback = "Sorry, I couldn't generate a summary."

// Options configures a Summarizer.
type Options struct {
	// Template renders the request from .Solution.
	Template string
	Logger   logging.Logger
}

// Summarizer turns a technical solution into a short, friendly summary. It
// uses its own gateway so the summary model can differ from the one driving
// the pipeline.
type Summarizer struct {
	gateway gateway.Gateway
	opts    Options
}

// NewSummarizer creates a Summarizer over gw.
func NewSummarizer(gw gateway.Gateway, optFns ...func(o *Options)) *Summarizer {
	opts := Options{Template: prompts.SummaryTemplate}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &Summarizer{gateway: gw, opts: opts}
}

// Summarize returns a summary of solution. The returned text is always
// printable: on failure it describes the error, and err is set as well.
func (s *Summarizer) Summarize(ctx context.Context, solution string) (string, error) {
	prompt, err := util.RenderTemplate(s.opts.Template, struct{ Solution string }{solution})
	if err != nil {
		return errorText(err), err
	}

	reply, err := s.gateway.Complete(ctx, prompt)
	if err != nil {
		if errors.Is(err, gateway.ErrEmptyReply) {
			s.opts.Logger.Warn("Summary model returned no text")
			return Fallback, err
		}
		s.opts.Logger.Error("Summary generation failed", "error", err)
		return errorText(err), err
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return Fallback, nil
	}
	return reply, nil
}

func errorText(err error) string {
	return fmt.Sprintf("Error generating summary: %v", err)
}
