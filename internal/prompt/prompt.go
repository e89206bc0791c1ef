package prompt

import "strings"

// Data is what the summarization prompt is rendered from.
type Data struct {
	Reason string
	Logs   string
	Events string
	Status string
}

// Options tune the rendered prompt.
type Options struct {
	// IncludeEvents embeds the event timeline next to the logs.
	IncludeEvents bool
	// IncludeStatus embeds the pod phase, conditions and container states.
	IncludeStatus bool
}

// Render fills the fixed pod failure template. Substitution is a single
// pass, so placeholders appearing inside logs, events or status are left
// alone.
func Render(d Data, opts Options) string {
	tmpl := strings.NewReplacer(
		"{{EVENTS_SECTION}}", eventsSection(opts),
		"{{STATUS_SECTION}}", statusSection(opts),
	).Replace(PromptPodFailure)

	r := strings.NewReplacer(
		"{{REASON}}", d.Reason,
		"{{LOGS}}", d.Logs,
		"{{EVENTS}}", d.Events,
		"{{STATUS}}", d.Status,
	)
	return r.Replace(tmpl)
}

func eventsSection(opts Options) string {
	if !opts.IncludeEvents {
		return ""
	}
	return SectionEvents
}

func statusSection(opts Options) string {
	if !opts.IncludeStatus {
		return ""
	}
	return SectionStatus
}
