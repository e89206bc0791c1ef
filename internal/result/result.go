package result

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/ppiankov/podtriage/internal/diagnose"
)

// StatusAlertSent is the status of every completed triage.
const StatusAlertSent = "alert_sent"

// ---------- Shared JSON helpers ----------

func PrettyJSON(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ---------- Types ----------

// Response is the answer to a triage request.
type Response struct {
	Status  string `json:"status"`
	Pod     string `json:"pod"`
	Summary string `json:"summary"`
}

// Report is what the diagnose command prints: the response plus, on
// request, the bundle it was built from.
type Report struct {
	Response
	Reason       string           `json:"reason"`
	Notification string           `json:"notification"`
	Bundle       *diagnose.Bundle `json:"bundle,omitempty"`
}

// ---------- Human renderers ----------

var titleStyle = lipgloss.NewStyle().Bold(true)

// RenderHuman prints a report for a terminal.
func RenderHuman(w io.Writer, r *Report) {
	fmt.Fprintln(w, titleStyle.Render("===== POD TRIAGE ====="))

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Pod", "Trigger", "Status", "Notification"})
	table.Append([]string{r.Pod, orDash(r.Reason), r.Status, orDash(r.Notification)})
	table.Render()

	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Summary:"))
	fmt.Fprintln(w, indent(r.Summary))

	if r.Bundle == nil {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "────────────────────────────────────────")
	fmt.Fprintln(w, titleStyle.Render("Logs:"))
	fmt.Fprintln(w, indent(r.Bundle.Logs))
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Events:"))
	fmt.Fprintln(w, indent(r.Bundle.Timeline))
	if r.Bundle.Status != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Status:"))
		fmt.Fprintln(w, indent(r.Bundle.Status))
	}
	fmt.Fprintln(w, "────────────────────────────────────────")
}

func indent(s string) string {
	if strings.TrimSpace(s) == "" {
		return "  (empty)"
	}
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
