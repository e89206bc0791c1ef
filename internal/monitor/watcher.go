package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/ppiankov/podtriage/internal/diagnose"
	"github.com/ppiankov/podtriage/internal/metrics"
	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"
)

const (
	retryAfterError  = 5 * time.Second
	retryAfterClosed = 1 * time.Second
)

// Watcher watches pods and triggers a triage when one enters a bad state.
type Watcher struct {
	clientset kubernetes.Interface
	config    Config
	trigger   Trigger
	logger    *zap.Logger

	mu         sync.Mutex
	bad        map[string]string    // pod key -> bad state reason
	alerted    map[string]time.Time // pod key -> last alert
	connStatus ConnectionStatus
	lastErr    string

	wg sync.WaitGroup
}

// NewWatcher creates a pod watcher
func NewWatcher(clientset kubernetes.Interface, config Config, trigger Trigger, logger *zap.Logger) *Watcher {
	if config.Cooldown <= 0 {
		config.Cooldown = DefaultCooldown
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		clientset: clientset,
		config:    config,
		trigger:   trigger,
		logger:    logger,
		bad:       make(map[string]string),
		alerted:   make(map[string]time.Time),
	}
}

// Run watches pods until ctx is cancelled, then waits for in-flight
// triggers to return.
func (w *Watcher) Run(ctx context.Context) error {
	// Check connectivity with a lightweight server version call
	if _, err := w.clientset.Discovery().ServerVersion(); err != nil {
		w.setConnectionError(err)
	} else {
		w.setConnectionOK()
	}

	w.logger.Info("pod monitor started",
		zap.String("namespace", w.config.Namespace),
		zap.Duration("cooldown", w.config.Cooldown),
	)

	w.watchPods(ctx)
	w.wg.Wait()

	w.logger.Info("pod monitor stopped")
	return nil
}

// Status returns the connection status and the last connection error.
func (w *Watcher) Status() (ConnectionStatus, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connStatus, w.lastErr
}

// watchPods watches pod status changes
func (w *Watcher) watchPods(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		watcher, err := w.clientset.CoreV1().Pods(w.config.Namespace).Watch(ctx, metav1.ListOptions{
			Watch: true,
		})
		if err != nil {
			w.setConnectionError(err)
			if !sleep(ctx, retryAfterError) {
				return
			}
			continue
		}
		w.setConnectionOK()

		if !w.consume(ctx, watcher) {
			return
		}
		if !sleep(ctx, retryAfterClosed) {
			return
		}
	}
}

// consume reads events until the stream fails or closes. It returns false
// when ctx was cancelled.
func (w *Watcher) consume(ctx context.Context, watcher watch.Interface) bool {
	defer watcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case event, ok := <-watcher.ResultChan():
			if !ok {
				w.logger.Debug("pod watch closed, reconnecting")
				return true
			}
			if event.Type == watch.Error {
				w.logger.Warn("pod watch error, reconnecting", zap.Any("status", event.Object))
				return true
			}
			if pod, ok := event.Object.(*corev1.Pod); ok {
				w.processPod(ctx, event.Type, pod)
			}
		}
	}
}

// processPod tracks the bad state of a pod and triggers on transition.
func (w *Watcher) processPod(ctx context.Context, eventType watch.EventType, pod *corev1.Pod) {
	ref := diagnose.PodRef{Namespace: pod.Namespace, Name: pod.Name}
	key := ref.String()

	if eventType == watch.Deleted {
		w.mu.Lock()
		delete(w.bad, key)
		w.mu.Unlock()
		return
	}

	isBad, reason := CheckPodBadState(pod)

	w.mu.Lock()
	_, wasBad := w.bad[key]
	if isBad {
		w.bad[key] = reason
	} else {
		delete(w.bad, key)
	}
	w.mu.Unlock()

	if isBad && !wasBad {
		w.logger.Info("pod entered bad state", zap.Stringer("pod", ref), zap.String("reason", reason))
		w.checkAndTrigger(ctx, ref, reason)
	}
}

// checkAndTrigger dispatches a trigger unless the pod was alerted within
// the cooldown.
func (w *Watcher) checkAndTrigger(ctx context.Context, pod diagnose.PodRef, reason string) {
	key := pod.String()
	now := w.config.Now()

	w.mu.Lock()
	last, exists := w.alerted[key]
	if exists && now.Sub(last) < w.config.Cooldown {
		w.mu.Unlock()
		metrics.MonitorTriggers.WithLabelValues(reason, actionSuppressed).Inc()
		w.logger.Info("alert suppressed",
			zap.Stringer("pod", pod),
			zap.String("reason", reason),
			zap.Time("last_alert", last),
			zap.Duration("cooldown", w.config.Cooldown),
		)
		return
	}
	w.alerted[key] = now
	w.pruneAlerted(now)
	w.mu.Unlock()

	metrics.MonitorTriggers.WithLabelValues(reason, actionTriggered).Inc()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.trigger.Trigger(ctx, pod, reason); err != nil {
			metrics.MonitorTriggers.WithLabelValues(reason, actionFailed).Inc()
			w.logger.Error("trigger failed", zap.Stringer("pod", pod), zap.String("reason", reason), zap.Error(err))
			return
		}
		w.logger.Info("triage triggered", zap.Stringer("pod", pod), zap.String("reason", reason))
	}()
}

// pruneAlerted drops cooldown entries that no longer suppress anything.
// Callers hold w.mu.
func (w *Watcher) pruneAlerted(now time.Time) {
	for key, at := range w.alerted {
		if now.Sub(at) >= w.config.Cooldown {
			delete(w.alerted, key)
		}
	}
}

// setConnectionError records a connection failure
func (w *Watcher) setConnectionError(err error) {
	w.mu.Lock()
	w.connStatus = ConnectionUnreachable
	w.lastErr = err.Error()
	w.mu.Unlock()
	w.logger.Warn("cluster unreachable", zap.Error(err))
}

// setConnectionOK marks the connection as healthy
func (w *Watcher) setConnectionOK() {
	w.mu.Lock()
	changed := w.connStatus != ConnectionOK
	w.connStatus = ConnectionOK
	w.lastErr = ""
	w.mu.Unlock()
	if changed {
		w.logger.Info("cluster connection established")
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
