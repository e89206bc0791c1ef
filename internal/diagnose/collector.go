package diagnose

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/podtriage/internal/metrics"
	"go.uber.org/zap"
)

// CollectionFailedLogs replaces the logs of a bundle whose collection
// failed as a whole.
const CollectionFailedLogs = "Error: Data collection failed."

// ErrNoCluster is reported when the collector has no cluster client.
var ErrNoCluster = errors.New("kubernetes client is not configured")

// Collector gathers logs, events and status of one pod into a Bundle.
type Collector struct {
	Cluster    Cluster
	ConnectErr error // set when the cluster client could not be built
	TailLines  int64
	EventLimit int64
	Logger     *zap.Logger
}

// Collect always returns a complete bundle. Log retrieval, timeline
// building and status reading degrade independently; only a missing
// client, or a panic escaping all three, degrades the whole bundle.
func (c *Collector) Collect(ctx context.Context, pod PodRef, reason string) (bundle Bundle) {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bundle = Bundle{Pod: pod, Reason: reason}

	defer func() {
		if r := recover(); r != nil {
			bundle = failedBundle(pod, reason, fmt.Errorf("panic: %v", r))
			metrics.CollectionFailures.Inc()
			logger.Error("diagnostic collection panicked", zap.Stringer("pod", pod), zap.Any("panic", r))
		}
	}()

	if err := c.clusterErr(); err != nil {
		metrics.CollectionFailures.Inc()
		logger.Error("diagnostic collection failed", zap.Stringer("pod", pod), zap.Error(err))
		return failedBundle(pod, reason, err)
	}

	logger.Info("collecting diagnostics", zap.Stringer("pod", pod), zap.String("reason", reason))

	bundle.Logs = RetrieveLogs(ctx, c.Cluster, pod, reason, c.TailLines, logger)
	bundle.Timeline = BuildTimeline(ctx, eventSource{c.Cluster}, pod, c.EventLimit)
	bundle.Status = BuildStatus(ctx, statusSource{c.Cluster}, pod)
	return bundle
}

func (c *Collector) clusterErr() error {
	if c.ConnectErr != nil {
		return c.ConnectErr
	}
	if c.Cluster == nil {
		return ErrNoCluster
	}
	return nil
}

func failedBundle(pod PodRef, reason string, err error) Bundle {
	return Bundle{
		Pod:      pod,
		Reason:   reason,
		Logs:     CollectionFailedLogs,
		Timeline: fmt.Sprintf("Error: %v", err),
	}
}

// eventSource counts event list calls.
type eventSource struct {
	EventSource
}

func (s eventSource) PodEvents(ctx context.Context, pod PodRef, limit int64) ([]RawEvent, error) {
	events, err := s.EventSource.PodEvents(ctx, pod, limit)
	if err != nil {
		metrics.EventFetches.WithLabelValues(metrics.ResultFailure).Inc()
		return nil, err
	}
	metrics.EventFetches.WithLabelValues(metrics.ResultSuccess).Inc()
	return events, nil
}

// statusSource counts pod status reads.
type statusSource struct {
	StatusSource
}

func (s statusSource) PodStatus(ctx context.Context, pod PodRef) (PodState, error) {
	state, err := s.StatusSource.PodStatus(ctx, pod)
	if err != nil {
		metrics.StatusFetches.WithLabelValues(metrics.ResultFailure).Inc()
		return PodState{}, err
	}
	metrics.StatusFetches.WithLabelValues(metrics.ResultSuccess).Inc()
	return state, nil
}
