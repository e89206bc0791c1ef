package monitor

import corev1 "k8s.io/api/core/v1"

// CheckPodBadState reports whether the pod needs a triage and why.
func CheckPodBadState(pod *corev1.Pod) (bool, string) {
	if pod.Status.Phase == corev1.PodFailed {
		return true, ReasonPodFailed
	}

	for _, cs := range pod.Status.ContainerStatuses {
		if waiting := cs.State.Waiting; waiting != nil {
			switch waiting.Reason {
			case ReasonCrashLoopBackOff, ReasonImagePullBackOff, ReasonErrImagePull:
				return true, waiting.Reason
			}
			// restarting after an OOM kill
			if last := cs.LastTerminationState.Terminated; last != nil && last.Reason == ReasonOOMKilled {
				return true, ReasonOOMKilled
			}
		}
		if term := cs.State.Terminated; term != nil && term.Reason == "Error" {
			return true, ReasonTerminatedError
		}
	}
	return false, ""
}
