package diagnose

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

const (
	timelineHeader    = "--- Kubernetes Events ---"
	timelineSeparator = "-------------------------"

	// NoEventsMessage is the timeline of a pod without events.
	NoEventsMessage = "No events found for this pod."
)

// BuildTimeline fetches the pod's events and renders them oldest first.
// Failures are returned as "Error: ..." strings, never as errors. A panic
// in the source or while rendering is reported the same way.
func BuildTimeline(ctx context.Context, source EventSource, pod PodRef, limit int64) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprintf("Error: Could not process events. Reason: %v", r)
		}
	}()

	if limit <= 0 {
		limit = DefaultEventLimit
	}

	events, err := source.PodEvents(ctx, pod, limit)
	if err != nil {
		return fmt.Sprintf("Error: Could not fetch events. Reason: %v", err)
	}
	if len(events) == 0 {
		return NoEventsMessage
	}

	return renderTimeline(events)
}

func renderTimeline(events []RawEvent) string {
	sorted := SortEvents(events)

	var b strings.Builder
	b.WriteString(timelineHeader)
	for _, e := range sorted {
		fmt.Fprintf(&b, "\nTime: %s", displayTime(e))
		fmt.Fprintf(&b, "\nType: %s", e.Type)
		fmt.Fprintf(&b, "\nReason: %s", e.Reason)
		fmt.Fprintf(&b, "\nMessage: %s", e.Message)
		b.WriteString("\n" + timelineSeparator)
	}
	return b.String()
}

// SortEvents returns a copy of events ordered by normalized first-seen
// instant. Events with equal keys keep their fetch order.
func SortEvents(events []RawEvent) []RawEvent {
	sorted := make([]RawEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return Normalize(sorted[i].FirstSeen).Before(Normalize(sorted[j].FirstSeen))
	})
	return sorted
}
