package diagnose

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/fields"
	"k8s.io/client-go/kubernetes"
)

// KubeCluster reads pod logs, events and status through a Kubernetes
// clientset.
type KubeCluster struct {
	clientset kubernetes.Interface
}

// NewKubeCluster wraps a clientset. The clientset is shared by all requests.
func NewKubeCluster(clientset kubernetes.Interface) *KubeCluster {
	return &KubeCluster{clientset: clientset}
}

// PodLogs returns the last tailLines lines of the pod's log stream.
func (k *KubeCluster) PodLogs(ctx context.Context, pod PodRef, previous bool, tailLines int64) (string, error) {
	tail := tailLines
	req := k.clientset.CoreV1().Pods(pod.Namespace).GetLogs(pod.Name, &corev1.PodLogOptions{
		Previous:  previous,
		TailLines: &tail,
	})

	logBytes, err := req.DoRaw(ctx)
	if err != nil {
		return "", fmt.Errorf("get logs %s (previous=%t): %w", pod, previous, err)
	}
	return string(logBytes), nil
}

// PodEvents lists at most limit events whose involved object is the pod.
func (k *KubeCluster) PodEvents(ctx context.Context, pod PodRef, limit int64) ([]RawEvent, error) {
	list, err := k.clientset.CoreV1().Events(pod.Namespace).List(ctx, metav1.ListOptions{
		FieldSelector: fields.OneTermEqualSelector("involvedObject.name", pod.Name).String(),
		Limit:         limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list events %s: %w", pod, err)
	}

	items := list.Items
	if limit > 0 && int64(len(items)) > limit {
		items = items[:limit]
	}

	events := make([]RawEvent, 0, len(items))
	for _, e := range items {
		events = append(events, eventFromAPI(e))
	}
	return events, nil
}

func eventFromAPI(e corev1.Event) RawEvent {
	return RawEvent{
		Reason:    e.Reason,
		Message:   e.Message,
		Type:      e.Type,
		Count:     e.Count,
		FirstSeen: firstSeen(e),
		LastSeen:  lastSeen(e),
	}
}

// firstSeen falls back to EventTime for events.k8s.io style events, which
// leave the legacy timestamps empty.
func firstSeen(e corev1.Event) *Timestamp {
	if !e.FirstTimestamp.IsZero() {
		return &Timestamp{Time: e.FirstTimestamp.Time}
	}
	if !e.EventTime.IsZero() {
		return &Timestamp{Time: e.EventTime.Time}
	}
	return nil
}

func lastSeen(e corev1.Event) *Timestamp {
	if !e.LastTimestamp.IsZero() {
		return &Timestamp{Time: e.LastTimestamp.Time}
	}
	if e.Series != nil && !e.Series.LastObservedTime.IsZero() {
		return &Timestamp{Time: e.Series.LastObservedTime.Time}
	}
	return nil
}

// PodStatus reads the pod object and keeps phase, conditions and the
// state of each regular container.
func (k *KubeCluster) PodStatus(ctx context.Context, pod PodRef) (PodState, error) {
	p, err := k.clientset.CoreV1().Pods(pod.Namespace).Get(ctx, pod.Name, metav1.GetOptions{})
	if err != nil {
		return PodState{}, fmt.Errorf("get pod %s: %w", pod, err)
	}
	return stateFromAPI(p), nil
}

func stateFromAPI(p *corev1.Pod) PodState {
	state := PodState{Phase: string(p.Status.Phase)}
	for _, c := range p.Status.Conditions {
		state.Conditions = append(state.Conditions, PodCondition{
			Type:    string(c.Type),
			Status:  string(c.Status),
			Reason:  c.Reason,
			Message: c.Message,
		})
	}
	for _, cs := range p.Status.ContainerStatuses {
		state.Containers = append(state.Containers, ContainerState{
			Name:         cs.Name,
			Ready:        cs.Ready,
			RestartCount: cs.RestartCount,
			State:        containerState(cs.State),
		})
	}
	return state
}

func containerState(s corev1.ContainerState) string {
	switch {
	case s.Waiting != nil:
		if s.Waiting.Reason == "" {
			return "Waiting"
		}
		return fmt.Sprintf("Waiting(%s)", s.Waiting.Reason)
	case s.Terminated != nil:
		reason := s.Terminated.Reason
		if reason == "" {
			reason = "Terminated"
		}
		return fmt.Sprintf("Terminated(%s, exit code %d)", reason, s.Terminated.ExitCode)
	case s.Running != nil:
		return "Running"
	default:
		return ""
	}
}
