// Package diagnose collects the logs, events and status of a failing pod
// into a DiagnosticBundle.

package diagnose

import (
	"context"
	"time"
)

const (
	// ReasonCrashLoopBackOff makes log retrieval start from the previous
	// container instance.
	ReasonCrashLoopBackOff = "CrashLoopBackOff"

	// DefaultTailLines caps each log fetch attempt.
	DefaultTailLines int64 = 100

	// DefaultEventLimit caps the number of events fetched per pod.
	DefaultEventLimit int64 = 20
)

// PodRef identifies the pod every operation targets.
type PodRef struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// String renders the reference as namespace/name.
func (p PodRef) String() string {
	return p.Namespace + "/" + p.Name
}

// Timestamp is an instant as read from an event source. Naive timestamps
// carry a wall clock value without zone information.
type Timestamp struct {
	Time  time.Time
	Naive bool
}

// RawEvent is one event record as read from the cluster.
type RawEvent struct {
	Reason    string
	Message   string
	Type      string
	Count     int32
	FirstSeen *Timestamp
	LastSeen  *Timestamp
}

// Bundle is the aggregate handed to the summarizer.
type Bundle struct {
	Pod      PodRef `json:"pod"`
	Reason   string `json:"reason"`
	Logs     string `json:"logs"`
	Timeline string `json:"timeline"`
	Status   string `json:"status,omitempty"`
}

// PodState is the status snapshot of a pod at collection time.
type PodState struct {
	Phase      string
	Conditions []PodCondition
	Containers []ContainerState
}

type PodCondition struct {
	Type    string
	Status  string
	Reason  string
	Message string
}

// ContainerState describes one container. State is already rendered,
// e.g. "Waiting(CrashLoopBackOff)".
type ContainerState struct {
	Name         string
	Ready        bool
	RestartCount int32
	State        string
}

// LogSource reads the log stream of the current or previous container
// instance of a pod.
type LogSource interface {
	PodLogs(ctx context.Context, pod PodRef, previous bool, tailLines int64) (string, error)
}

// EventSource lists the events whose involved object is the pod.
type EventSource interface {
	PodEvents(ctx context.Context, pod PodRef, limit int64) ([]RawEvent, error)
}

// StatusSource reads the phase, conditions and container states of a pod.
type StatusSource interface {
	PodStatus(ctx context.Context, pod PodRef) (PodState, error)
}

// Cluster is everything the collector needs from the API server.
type Cluster interface {
	LogSource
	EventSource
	StatusSource
}
