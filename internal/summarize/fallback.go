package summarize

import (
	"fmt"
	"strings"

	"github.com/ppiankov/podtriage/internal/diagnose"
)

// FallbackRootCause is the root cause line of every fallback summary.
const FallbackRootCause = "AI summarization failed. Please review the pod logs manually."

// Fallback is the summary used when the pipeline could not produce one.
// It is well-formed even when err is nil or has no message.
func Fallback(pod diagnose.PodRef, reason string, err error) string {
	detail := "unknown error"
	if err != nil && strings.TrimSpace(err.Error()) != "" {
		detail = err.Error()
	}
	if reason == "" {
		reason = "unknown"
	}

	var b strings.Builder
	b.WriteString("*AI Summary Failed*\n")
	fmt.Fprintf(&b, "*Pod:* `%s`\n", pod)
	fmt.Fprintf(&b, "*Trigger:* %s\n", reason)
	fmt.Fprintf(&b, "*Root Cause:* %s\n", FallbackRootCause)
	fmt.Fprintf(&b, "*Error:* %s", detail)
	return b.String()
}
