package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/podtriage/internal/diagnose"
	"github.com/ppiankov/podtriage/internal/metrics"
	"github.com/ppiankov/podtriage/internal/prompt"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubBackend struct {
	out     string
	err     error
	prompts []string
}

func (b *stubBackend) Complete(_ context.Context, p string) (string, error) {
	b.prompts = append(b.prompts, p)
	return b.out, b.err
}

var bundle = diagnose.Bundle{
	Pod:      diagnose.PodRef{Namespace: "prod", Name: "api-7f"},
	Reason:   "CrashLoopBackOff",
	Logs:     "panic: nil pointer",
	Timeline: diagnose.NoEventsMessage,
}

func TestSummarize_ReturnsBackendTextUnmodified(t *testing.T) {
	backend := &stubBackend{out: "Root Cause: nil pointer...\n"}
	p := New(backend, prompt.Options{}, zaptest.NewLogger(t))

	got := p.Summarize(context.Background(), bundle, "CrashLoopBackOff")
	assert.Equal(t, "Root Cause: nil pointer...\n", got)

	require.Len(t, backend.prompts, 1)
	assert.Contains(t, backend.prompts[0], "Trigger reason: CrashLoopBackOff")
	assert.Contains(t, backend.prompts[0], "panic: nil pointer")
	assert.NotContains(t, backend.prompts[0], diagnose.NoEventsMessage)
}

func TestSummarize_IncludeEvents(t *testing.T) {
	backend := &stubBackend{out: "ok"}
	p := New(backend, prompt.Options{IncludeEvents: true}, nil)

	p.Summarize(context.Background(), bundle, "CrashLoopBackOff")
	require.Len(t, backend.prompts, 1)
	assert.Contains(t, backend.prompts[0], diagnose.NoEventsMessage)
}

func TestSummarize_IncludeStatus(t *testing.T) {
	backend := &stubBackend{out: "ok"}
	p := New(backend, prompt.Options{IncludeStatus: true}, nil)

	b := bundle
	b.Status = "--- Pod Status ---\nPhase: Running"
	p.Summarize(context.Background(), b, "CrashLoopBackOff")
	require.Len(t, backend.prompts, 1)
	assert.Contains(t, backend.prompts[0], "BEGIN_STATUS\n--- Pod Status ---\nPhase: Running\nEND_STATUS")
}

func TestSummarize_BackendFailureFallsBack(t *testing.T) {
	backend := &stubBackend{err: errors.New("401 Unauthorized: invalid api key")}
	p := New(backend, prompt.Options{}, zaptest.NewLogger(t))
	before := testutil.ToFloat64(metrics.SummaryFallbacks)

	got := p.Summarize(context.Background(), bundle, "CrashLoopBackOff")
	assert.NotEmpty(t, got)
	assert.Contains(t, got, "prod/api-7f")
	assert.Contains(t, got, "CrashLoopBackOff")
	assert.Contains(t, got, FallbackRootCause)
	assert.Contains(t, got, "401 Unauthorized: invalid api key")
	assert.Len(t, backend.prompts, 1, "no retries")
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.SummaryFallbacks))
}

func TestSummarize_EmptyBackendTextFallsBack(t *testing.T) {
	p := New(&stubBackend{out: "   "}, prompt.Options{}, nil)

	got := p.Summarize(context.Background(), bundle, "OOMKilled")
	assert.True(t, strings.HasPrefix(got, "*AI Summary Failed*"))
	assert.Contains(t, got, "OOMKilled")
}

func TestSummarize_NilBackend(t *testing.T) {
	p := New(nil, prompt.Options{}, nil)

	got := p.Summarize(context.Background(), bundle, "Error")
	assert.Contains(t, got, "no summarization backend configured")
}

type panicStage struct{}

func (panicStage) Name() string                      { return "boom" }
func (panicStage) Run(context.Context, *State) error { panic("stage exploded") }

func TestSummarize_StagePanicFallsBack(t *testing.T) {
	p := &Pipeline{Stages: []Stage{panicStage{}}}

	got := p.Summarize(context.Background(), bundle, "Error")
	assert.Contains(t, got, "stage boom panicked: stage exploded")
}

type appendStage struct{ suffix string }

func (s appendStage) Name() string { return "append" }
func (s appendStage) Run(_ context.Context, st *State) error {
	st.Summary += s.suffix
	return nil
}

func TestSummarize_StagesRunInOrder(t *testing.T) {
	p := New(&stubBackend{out: "base"}, prompt.Options{}, nil)
	p.Stages = append(p.Stages, appendStage{suffix: "+one"}, appendStage{suffix: "+two"})

	assert.Equal(t, "base+one+two", p.Summarize(context.Background(), bundle, "Error"))
}

func TestFallback_WellFormedWithoutDetail(t *testing.T) {
	pod := diagnose.PodRef{Namespace: "ns", Name: "p"}

	for _, err := range []error{nil, errors.New(""), errors.New("  ")} {
		got := Fallback(pod, "CrashLoopBackOff", err)
		assert.Equal(t, strings.Join([]string{
			"*AI Summary Failed*",
			"*Pod:* `ns/p`",
			"*Trigger:* CrashLoopBackOff",
			"*Root Cause:* " + FallbackRootCause,
			"*Error:* unknown error",
		}, "\n"), got)
	}
}

func TestFallback_EmptyReason(t *testing.T) {
	got := Fallback(diagnose.PodRef{Namespace: "ns", Name: "p"}, "", errors.New("x"))
	assert.Contains(t, got, "*Trigger:* unknown")
}
