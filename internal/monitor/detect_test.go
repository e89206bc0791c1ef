package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	corev1 "k8s.io/api/core/v1"
)

func podWith(phase corev1.PodPhase, statuses ...corev1.ContainerStatus) *corev1.Pod {
	return &corev1.Pod{Status: corev1.PodStatus{Phase: phase, ContainerStatuses: statuses}}
}

func waiting(reason string) corev1.ContainerStatus {
	return corev1.ContainerStatus{State: corev1.ContainerState{Waiting: &corev1.ContainerStateWaiting{Reason: reason}}}
}

func TestCheckPodBadState(t *testing.T) {
	oomRestart := waiting("ContainerCreating")
	oomRestart.LastTerminationState.Terminated = &corev1.ContainerStateTerminated{Reason: "OOMKilled", ExitCode: 137}

	completed := corev1.ContainerStatus{State: corev1.ContainerState{Terminated: &corev1.ContainerStateTerminated{Reason: "Completed"}}}
	errored := corev1.ContainerStatus{State: corev1.ContainerState{Terminated: &corev1.ContainerStateTerminated{Reason: "Error", ExitCode: 1}}}

	tests := []struct {
		name       string
		pod        *corev1.Pod
		wantBad    bool
		wantReason string
	}{
		{"failed phase", podWith(corev1.PodFailed), true, "PodFailed"},
		{"crash loop", podWith(corev1.PodRunning, waiting("CrashLoopBackOff")), true, "CrashLoopBackOff"},
		{"image pull backoff", podWith(corev1.PodPending, waiting("ImagePullBackOff")), true, "ImagePullBackOff"},
		{"err image pull", podWith(corev1.PodPending, waiting("ErrImagePull")), true, "ErrImagePull"},
		{"terminated with error", podWith(corev1.PodRunning, errored), true, "Terminated(Error)"},
		{"restarting after oom", podWith(corev1.PodRunning, oomRestart), true, "OOMKilled"},
		{"container creating", podWith(corev1.PodPending, waiting("ContainerCreating")), false, ""},
		{"completed", podWith(corev1.PodSucceeded, completed), false, ""},
		{"running", podWith(corev1.PodRunning, corev1.ContainerStatus{State: corev1.ContainerState{Running: &corev1.ContainerStateRunning{}}}), false, ""},
		{"second container bad", podWith(corev1.PodRunning, waiting("ContainerCreating"), waiting("CrashLoopBackOff")), true, "CrashLoopBackOff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad, reason := CheckPodBadState(tt.pod)
			assert.Equal(t, tt.wantBad, bad)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}
