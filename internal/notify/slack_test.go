package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ppiankov/podtriage/internal/diagnose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alert = Alert{
	Pod:     diagnose.PodRef{Namespace: "prod", Name: "api-7f"},
	Reason:  "CrashLoopBackOff",
	Summary: "Root Cause: nil pointer...",
}

func TestSlack_Notify_PostsBlocks(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	s := &Slack{WebhookURL: srv.URL}
	require.NoError(t, s.Notify(context.Background(), alert))

	assert.Equal(t, "🚨 Pod failure: prod/api-7f (CrashLoopBackOff)", got.Text)
	require.Len(t, got.Blocks, 3)
	assert.Equal(t, "header", got.Blocks[0].Type)
	require.Len(t, got.Blocks[1].Fields, 3)
	assert.Equal(t, "*Pod:*\napi-7f", got.Blocks[1].Fields[0].Text)
	assert.Equal(t, "*Namespace:*\nprod", got.Blocks[1].Fields[1].Text)
	assert.Equal(t, "Root Cause: nil pointer...", got.Blocks[2].Text.Text)
}

func TestSlack_Notify_Disabled(t *testing.T) {
	s := &Slack{}
	assert.False(t, s.Enabled())
	assert.ErrorIs(t, s.Notify(context.Background(), alert), ErrDisabled)
}

func TestSlack_Notify_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("no_service"))
	}))
	defer srv.Close()

	err := (&Slack{WebhookURL: srv.URL}).Notify(context.Background(), alert)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "no_service")
}

func TestSlack_Notify_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	assert.Error(t, (&Slack{WebhookURL: url}).Notify(context.Background(), alert))
}

func TestBuildMessage_TruncatesSummary(t *testing.T) {
	long := Alert{Pod: alert.Pod, Reason: "OOMKilled", Summary: strings.Repeat("é", 5000)}

	msg := BuildMessage(long)
	text := msg.Blocks[2].Text.Text
	assert.Equal(t, maxSectionText, utf8.RuneCountInString(text))
	assert.True(t, strings.HasSuffix(text, "…"))
}

func TestBuildMessage_Emoji(t *testing.T) {
	assert.True(t, strings.HasPrefix(BuildMessage(Alert{Reason: "ErrImagePull"}).Text, "❌"))
	assert.True(t, strings.HasPrefix(BuildMessage(Alert{Reason: "Terminated(Error)"}).Text, "⚠️"))
	assert.Contains(t, BuildMessage(Alert{}).Text, "(Unknown)")
}
