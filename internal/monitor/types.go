package monitor

import (
	"context"
	"time"

	"github.com/ppiankov/podtriage/internal/diagnose"
)

// Bad state reasons reported by CheckPodBadState.
const (
	ReasonPodFailed        = "PodFailed"
	ReasonCrashLoopBackOff = diagnose.ReasonCrashLoopBackOff
	ReasonImagePullBackOff = "ImagePullBackOff"
	ReasonErrImagePull     = "ErrImagePull"
	ReasonTerminatedError  = "Terminated(Error)"
	ReasonOOMKilled        = "OOMKilled"
)

// DefaultCooldown is the minimum time between two alerts for one pod.
const DefaultCooldown = 2 * time.Hour

// Trigger actions recorded in metrics.
const (
	actionTriggered  = "triggered"
	actionSuppressed = "suppressed"
	actionFailed     = "failed"
)

// Trigger starts a triage for a pod. *triage.Service and *HTTPTrigger
// implement it.
type Trigger interface {
	Trigger(ctx context.Context, pod diagnose.PodRef, reason string) error
}

// ConnectionStatus represents the cluster connection state
type ConnectionStatus int

const (
	ConnectionUnknown     ConnectionStatus = iota // Not yet attempted
	ConnectionOK                                  // Successfully connected
	ConnectionUnreachable                         // Cluster unreachable
)

func (c ConnectionStatus) String() string {
	switch c {
	case ConnectionOK:
		return "connected"
	case ConnectionUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Config holds monitor configuration
type Config struct {
	Namespace string // empty watches all namespaces
	Cooldown  time.Duration
	Now       func() time.Time
}
