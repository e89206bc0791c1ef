package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplete_Success(t *testing.T) {
	var got chatRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Root Cause: nil pointer..."}}]}`))
	}))
	defer srv.Close()

	c := Client{Endpoint: srv.URL + "/v1/", Model: "gpt-4.1-mini", APIKey: "sk-test"}
	out, err := c.Complete(context.Background(), "why?")
	require.NoError(t, err)
	assert.Equal(t, "Root Cause: nil pointer...", out)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "gpt-4.1-mini", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "why?", got.Messages[0].Content)
}

func TestComplete_EnvAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	_, err := Client{Endpoint: srv.URL, Model: "m"}.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "Bearer sk-env", auth)
}

func TestComplete_NoKeyNoHeader(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	_, err := Client{Endpoint: srv.URL, Model: "m"}.Complete(context.Background(), "p")
	require.NoError(t, err)
}

func TestComplete_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`rate limited`))
	}))
	defer srv.Close()

	_, err := Client{Endpoint: srv.URL, Model: "m"}.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestComplete_APIErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"model not found","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := Client{Endpoint: srv.URL, Model: "m"}.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := Client{Endpoint: srv.URL, Model: "m"}.Complete(context.Background(), "p")
	assert.Error(t, err)
}

func TestComplete_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"  "}}]}`))
	}))
	defer srv.Close()

	_, err := Client{Endpoint: srv.URL, Model: "m"}.Complete(context.Background(), "p")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestComplete_MissingEndpoint(t *testing.T) {
	_, err := Client{Model: "m"}.Complete(context.Background(), "p")
	assert.Error(t, err)
}

func TestComplete_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"choices":[{"message":{"content":"late"}}]}`))
	}))
	defer srv.Close()

	_, err := Client{Endpoint: srv.URL, Model: "m", Timeout: 20 * time.Millisecond}.Complete(context.Background(), "p")
	assert.Error(t, err)
}
