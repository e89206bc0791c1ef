// Package notify delivers pod summaries to Slack.

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ppiankov/podtriage/internal/diagnose"
)

// maxSectionText stays under Slack's 3000 character section limit.
const maxSectionText = 2900

// ErrDisabled is returned when no webhook URL is configured.
var ErrDisabled = errors.New("slack notifications disabled: webhook URL not set")

// Alert is one summary to deliver.
type Alert struct {
	Pod     diagnose.PodRef
	Reason  string
	Summary string
}

// Notifier delivers alerts.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// Slack posts alerts to an incoming webhook.
type Slack struct {
	WebhookURL string
	Timeout    time.Duration

	HTTPClient *http.Client // optional, for tests
}

// Enabled reports whether a webhook URL is configured.
func (s *Slack) Enabled() bool {
	return s.WebhookURL != ""
}

// Notify posts the alert. Any non-2xx answer is an error.
func (s *Slack) Notify(ctx context.Context, alert Alert) error {
	if !s.Enabled() {
		return ErrDisabled
	}

	payload, err := json.Marshal(BuildMessage(alert))
	if err != nil {
		return fmt.Errorf("marshal slack message: %w", err)
	}

	client := s.HTTPClient
	if client == nil {
		timeout := s.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("slack webhook returned %s: %s", resp.Status, string(body))
	}
	return nil
}

// Message is a Slack incoming webhook payload.
type Message struct {
	Text   string  `json:"text"`
	Blocks []Block `json:"blocks"`
}

// Block is a Block Kit layout block.
type Block struct {
	Type   string  `json:"type"`
	Text   *Text   `json:"text,omitempty"`
	Fields []*Text `json:"fields,omitempty"`
}

// Text is a Block Kit text object.
type Text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// BuildMessage formats an alert as header, pod fields and summary section.
func BuildMessage(alert Alert) Message {
	emoji := reasonEmoji(alert.Reason)
	reason := alert.Reason
	if reason == "" {
		reason = "Unknown"
	}

	return Message{
		Text: fmt.Sprintf("%s Pod failure: %s (%s)", emoji, alert.Pod, reason),
		Blocks: []Block{
			{
				Type: "header",
				Text: &Text{Type: "plain_text", Text: fmt.Sprintf("%s Pod Failure Alert", emoji)},
			},
			{
				Type: "section",
				Fields: []*Text{
					{Type: "mrkdwn", Text: fmt.Sprintf("*Pod:*\n%s", alert.Pod.Name)},
					{Type: "mrkdwn", Text: fmt.Sprintf("*Namespace:*\n%s", alert.Pod.Namespace)},
					{Type: "mrkdwn", Text: fmt.Sprintf("*Trigger:*\n%s", reason)},
				},
			},
			{
				Type: "section",
				Text: &Text{Type: "mrkdwn", Text: truncate(alert.Summary, maxSectionText)},
			},
		},
	}
}

func reasonEmoji(reason string) string {
	switch reason {
	case "CrashLoopBackOff", "OOMKilled", "PodFailed":
		return "🚨"
	case "ImagePullBackOff", "ErrImagePull":
		return "❌"
	default:
		return "⚠️"
	}
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
