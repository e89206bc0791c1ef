package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ppiankov/podtriage/internal/diagnose"
	"github.com/ppiankov/podtriage/internal/triage"
)

// DefaultTriggerTimeout bounds one HTTP trigger.
const DefaultTriggerTimeout = 5 * time.Second

// HTTPTrigger asks a remote podtriage server to triage a pod.
type HTTPTrigger struct {
	URL        string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Trigger POSTs the triage request and expects 200 OK.
func (t *HTTPTrigger) Trigger(ctx context.Context, pod diagnose.PodRef, reason string) error {
	payload, err := json.Marshal(triage.Request{Namespace: pod.Namespace, PodName: pod.Name, Reason: reason})
	if err != nil {
		return fmt.Errorf("marshal trigger payload: %w", err)
	}

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultTriggerTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create trigger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := t.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send trigger to %s: %w", t.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("agent returned %s: %s", resp.Status, string(body))
	}
	return nil
}
