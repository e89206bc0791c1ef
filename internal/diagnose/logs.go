package diagnose

import (
	"context"
	"fmt"

	"github.com/ppiankov/podtriage/internal/metrics"
	"go.uber.org/zap"
)

// RetrieveLogs reads the pod's logs, choosing the container instance from
// the trigger reason.
//
// CrashLoopBackOff starts with the previous instance and then falls into
// the default order. Every other reason reads the current instance first
// and falls back to the previous one.
// The worst case for CrashLoopBackOff is previous, current, previous.
//
// RetrieveLogs never fails: when no attempt succeeds it returns an
// "Error: ..." string carrying the last failure.
func RetrieveLogs(ctx context.Context, source LogSource, pod PodRef, reason string, tailLines int64, logger *zap.Logger) string {
	if tailLines <= 0 {
		tailLines = DefaultTailLines
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.Stringer("pod", pod), zap.String("reason", reason))

	if reason == ReasonCrashLoopBackOff {
		logs, err := fetchLogs(ctx, source, pod, true, tailLines, logger)
		if err == nil {
			return logs
		}
		logger.Warn("previous container logs unavailable, trying current instance", zap.Error(err))
	}

	logs, err := fetchLogs(ctx, source, pod, false, tailLines, logger)
	if err == nil {
		return logs
	}
	logger.Warn("current container logs unavailable, trying previous instance", zap.Error(err))

	logs, err = fetchLogs(ctx, source, pod, true, tailLines, logger)
	if err == nil {
		logger.Info("using logs of the previous container instance as fallback")
		return logs
	}

	logger.Error("could not fetch any logs", zap.Error(err))
	return fmt.Sprintf("Error: Could not fetch any logs. Reason: %v", err)
}

// fetchLogs runs one attempt. A panicking source counts as a failed
// attempt so the fallback order still applies.
func fetchLogs(ctx context.Context, source LogSource, pod PodRef, previous bool, tailLines int64, logger *zap.Logger) (logs string, err error) {
	instance := "current"
	if previous {
		instance = "previous"
	}
	logger.Debug("fetching pod logs", zap.Bool("previous", previous), zap.Int64("tail_lines", tailLines))

	defer func() {
		if r := recover(); r != nil {
			metrics.LogFetchAttempts.WithLabelValues(instance, metrics.ResultFailure).Inc()
			logs, err = "", fmt.Errorf("panic: %v", r)
		}
	}()

	logs, err = source.PodLogs(ctx, pod, previous, tailLines)
	if err != nil {
		metrics.LogFetchAttempts.WithLabelValues(instance, metrics.ResultFailure).Inc()
		return "", err
	}
	metrics.LogFetchAttempts.WithLabelValues(instance, metrics.ResultSuccess).Inc()
	return logs, nil
}
