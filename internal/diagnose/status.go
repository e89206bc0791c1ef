package diagnose

import (
	"context"
	"fmt"
	"strings"
)

const statusHeader = "--- Pod Status ---"

// BuildStatus reads the pod's status and renders it as text. Like the
// timeline it never fails: errors and panics become "Error: ..." strings.
func BuildStatus(ctx context.Context, source StatusSource, pod PodRef) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprintf("Error: Could not process pod status. Reason: %v", r)
		}
	}()

	state, err := source.PodStatus(ctx, pod)
	if err != nil {
		return fmt.Sprintf("Error: Could not fetch pod status. Reason: %v", err)
	}
	return RenderStatus(state)
}

// RenderStatus formats a status snapshot, conditions and containers in
// the order the API server reported them.
func RenderStatus(state PodState) string {
	var b strings.Builder
	b.WriteString(statusHeader)
	fmt.Fprintf(&b, "\nPhase: %s", orUnknown(state.Phase))

	b.WriteString("\nConditions:")
	if len(state.Conditions) == 0 {
		b.WriteString(" none")
	}
	for _, c := range state.Conditions {
		fmt.Fprintf(&b, "\n  %s=%s", c.Type, c.Status)
		if detail := joinDetail(c.Reason, c.Message); detail != "" {
			fmt.Fprintf(&b, " (%s)", detail)
		}
	}

	b.WriteString("\nContainers:")
	if len(state.Containers) == 0 {
		b.WriteString(" none")
	}
	for _, c := range state.Containers {
		fmt.Fprintf(&b, "\n  %s: ready=%t restarts=%d state=%s", c.Name, c.Ready, c.RestartCount, orUnknown(c.State))
	}
	return b.String()
}

func joinDetail(reason, message string) string {
	switch {
	case reason != "" && message != "":
		return reason + ": " + message
	case reason != "":
		return reason
	default:
		return message
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
