// Package triage runs the collect, summarize and notify flow for one
// failing pod.
package triage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/podtriage/internal/diagnose"
	"github.com/ppiankov/podtriage/internal/metrics"
	"github.com/ppiankov/podtriage/internal/notify"
	"github.com/ppiankov/podtriage/internal/result"
	"go.uber.org/zap"
)

// ErrInvalidRequest wraps every validation failure.
var ErrInvalidRequest = errors.New("invalid request")

// Request identifies the pod to triage.
type Request struct {
	Namespace string `json:"namespace"`
	PodName   string `json:"pod_name"`
	Reason    string `json:"reason"`
}

// Validate reports a missing namespace or pod name.
func (r Request) Validate() error {
	if r.Namespace == "" {
		return fmt.Errorf("%w: namespace is required", ErrInvalidRequest)
	}
	if r.PodName == "" {
		return fmt.Errorf("%w: pod_name is required", ErrInvalidRequest)
	}
	return nil
}

// Pod returns the pod reference of the request.
func (r Request) Pod() diagnose.PodRef {
	return diagnose.PodRef{Namespace: r.Namespace, Name: r.PodName}
}

// Collector gathers the diagnostic bundle. *diagnose.Collector implements it.
type Collector interface {
	Collect(ctx context.Context, pod diagnose.PodRef, reason string) diagnose.Bundle
}

// Summarizer turns a bundle into summary text. *summarize.Pipeline implements it.
type Summarizer interface {
	Summarize(ctx context.Context, bundle diagnose.Bundle, reason string) string
}

// Outcome is the full record of one triage run.
type Outcome struct {
	Response result.Response
	Bundle   diagnose.Bundle
	// Notification is one of the Notification* outcomes.
	Notification string
}

// Notification outcomes.
const (
	NotificationSent     = "sent"
	NotificationDisabled = "disabled"
	NotificationFailed   = "failed"
	NotificationSkipped  = "skipped"
)

// Service wires the collector, the summarization pipeline and the notifier.
type Service struct {
	Collector  Collector
	Summarizer Summarizer
	Notifier   notify.Notifier // nil skips delivery
	Logger     *zap.Logger
}

// Handle triages one pod and returns the response sent back to the caller.
func (s *Service) Handle(ctx context.Context, req Request) (result.Response, error) {
	out, err := s.Run(ctx, req)
	if err != nil {
		return result.Response{}, err
	}
	return out.Response, nil
}

// Run is Handle with the intermediate bundle and the delivery outcome.
// Collection and summarization degrade instead of failing; an error means
// invalid input or a fault that escaped both.
func (s *Service) Run(ctx context.Context, req Request) (out Outcome, err error) {
	if err := req.Validate(); err != nil {
		return Outcome{}, err
	}

	logger := s.logger().With(zap.Stringer("pod", req.Pod()), zap.String("reason", req.Reason))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("triage %s panicked: %v", req.Pod(), r)
			logger.Error("triage failed", zap.Any("panic", r))
		}
		metrics.TriageDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.TriageRequests.WithLabelValues(metrics.ResultFailure).Inc()
			return
		}
		metrics.TriageRequests.WithLabelValues(metrics.ResultSuccess).Inc()
	}()

	if s.Collector == nil || s.Summarizer == nil {
		return Outcome{}, errors.New("triage service is not configured")
	}

	logger.Info("triage started")

	bundle := s.Collector.Collect(ctx, req.Pod(), req.Reason)
	summary := s.Summarizer.Summarize(ctx, bundle, req.Reason)
	delivery := s.notify(ctx, logger, notify.Alert{Pod: req.Pod(), Reason: req.Reason, Summary: summary})

	logger.Info("triage finished", zap.String("notification", delivery), zap.Duration("elapsed", time.Since(start)))

	return Outcome{
		Response: result.Response{
			Status:  result.StatusAlertSent,
			Pod:     req.Pod().String(),
			Summary: summary,
		},
		Bundle:       bundle,
		Notification: delivery,
	}, nil
}

// Trigger runs a triage for the pod monitor and discards the response.
func (s *Service) Trigger(ctx context.Context, pod diagnose.PodRef, reason string) error {
	_, err := s.Handle(ctx, Request{Namespace: pod.Namespace, PodName: pod.Name, Reason: reason})
	return err
}

func (s *Service) notify(ctx context.Context, logger *zap.Logger, alert notify.Alert) string {
	if s.Notifier == nil {
		return NotificationSkipped
	}

	err := s.Notifier.Notify(ctx, alert)
	switch {
	case err == nil:
		metrics.Notifications.WithLabelValues(metrics.ResultSuccess).Inc()
		logger.Info("notification sent")
		return NotificationSent
	case errors.Is(err, notify.ErrDisabled):
		metrics.Notifications.WithLabelValues(NotificationDisabled).Inc()
		logger.Debug("notification skipped", zap.Error(err))
		return NotificationDisabled
	default:
		metrics.Notifications.WithLabelValues(metrics.ResultFailure).Inc()
		logger.Error("notification failed", zap.Error(err))
		return NotificationFailed
	}
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
