// Package summarize turns a diagnostic bundle into the text pushed to the
// notification channel.

package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/podtriage/internal/diagnose"
	"github.com/ppiankov/podtriage/internal/metrics"
	"github.com/ppiankov/podtriage/internal/prompt"
	"go.uber.org/zap"
)

var errEmptySummary = errors.New("pipeline produced an empty summary")

// Backend generates text from a prompt. llm.Client implements it.
type Backend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// State is shared by the stages of one pipeline run.
type State struct {
	Bundle  diagnose.Bundle
	Reason  string
	Prompt  string
	Summary string
}

// Stage is one step of a Pipeline.
type Stage interface {
	Name() string
	Run(ctx context.Context, s *State) error
}

// Pipeline runs its stages in order over a shared State. The default
// pipeline has a single summarization stage.
type Pipeline struct {
	Stages []Stage
	Logger *zap.Logger
}

// New returns the default single-stage pipeline.
func New(backend Backend, opts prompt.Options, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		Stages: []Stage{&SummaryStage{Backend: backend, Options: opts}},
		Logger: logger,
	}
}

// Summarize runs the pipeline once. The result is never empty: a failing
// stage yields the fallback summary instead, without retrying.
func (p *Pipeline) Summarize(ctx context.Context, bundle diagnose.Bundle, reason string) string {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.Stringer("pod", bundle.Pod), zap.String("reason", reason))

	state := &State{Bundle: bundle, Reason: reason}
	for _, stage := range p.Stages {
		if err := runStage(ctx, stage, state); err != nil {
			metrics.SummaryFallbacks.Inc()
			logger.Error("summarization failed, using fallback summary", zap.String("stage", stage.Name()), zap.Error(err))
			return Fallback(bundle.Pod, reason, err)
		}
	}

	if strings.TrimSpace(state.Summary) == "" {
		metrics.SummaryFallbacks.Inc()
		logger.Error("summarization failed, using fallback summary", zap.Error(errEmptySummary))
		return Fallback(bundle.Pod, reason, errEmptySummary)
	}

	logger.Info("summary generated", zap.Int("length", len(state.Summary)))
	return state.Summary
}

func runStage(ctx context.Context, stage Stage, state *State) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage %s panicked: %v", stage.Name(), r)
		}
	}()
	return stage.Run(ctx, state)
}

// SummaryStage renders the prompt and asks the backend for a summary.
type SummaryStage struct {
	Backend Backend
	Options prompt.Options
}

// Name implements Stage.
func (s *SummaryStage) Name() string { return "summarize" }

// Run implements Stage. The backend's text is kept as is.
func (s *SummaryStage) Run(ctx context.Context, state *State) error {
	if s.Backend == nil {
		return errors.New("no summarization backend configured")
	}

	state.Prompt = prompt.Render(prompt.Data{
		Reason: state.Reason,
		Logs:   state.Bundle.Logs,
		Events: state.Bundle.Timeline,
		Status: state.Bundle.Status,
	}, s.Options)

	out, err := s.Backend.Complete(ctx, state.Prompt)
	if err != nil {
		return err
	}
	state.Summary = out
	return nil
}
