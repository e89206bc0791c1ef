package util

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandTilde_WithTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	result := expandTilde("~/.kube/config")
	assert.Equal(t, filepath.Join(home, ".kube", "config"), result)
}

func TestExpandTilde_WithoutTilde(t *testing.T) {
	result := expandTilde("/etc/kubernetes/config")
	assert.Equal(t, "/etc/kubernetes/config", result)
}

func TestExpandTilde_Empty(t *testing.T) {
	result := expandTilde("")
	assert.Equal(t, "", result)
}

func TestExpandTilde_TildeOnly(t *testing.T) {
	result := expandTilde("~")
	assert.Equal(t, "~", result)
}

func TestExpandTilde_TildeInMiddle(t *testing.T) {
	result := expandTilde("/home/user/~/config")
	assert.Equal(t, "/home/user/~/config", result)
}

const testKubeconfig = `apiVersion: v1
kind: Config
clusters:
- name: test
  cluster:
    server: https://%s:6443
contexts:
- name: test
  context:
    cluster: test
    user: test
current-context: test
users:
- name: test
  user:
    token: abc
`

func writeKubeconfig(t *testing.T, dir, host string) string {
	t.Helper()
	path := filepath.Join(dir, "config")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(testKubeconfig, host)), 0o600))
	return path
}

func TestResolveKubeconfig_Priority(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("KUBECONFIG", "")

	path, _ := resolveKubeconfig("")
	assert.Empty(t, path, "no kubeconfig anywhere means in-cluster")

	require.NoError(t, os.MkdirAll(filepath.Join(home, ".kube"), 0o755))
	def := writeKubeconfig(t, filepath.Join(home, ".kube"), "default")
	path, _ = resolveKubeconfig("")
	assert.Equal(t, def, path)

	t.Setenv("KUBECONFIG", "/env/config")
	path, source := resolveKubeconfig("")
	assert.Equal(t, "/env/config", path)
	assert.Equal(t, "$KUBECONFIG", source)

	path, source = resolveKubeconfig("~/flag/config")
	assert.Equal(t, filepath.Join(home, "flag", "config"), path)
	assert.Equal(t, "kubeconfig", source)
}

func TestBuildRestConfig_FromFlag(t *testing.T) {
	path := writeKubeconfig(t, t.TempDir(), "flag.example")

	cfg, err := BuildRestConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://flag.example:6443", cfg.Host)
}

func TestBuildRestConfig_FromEnv(t *testing.T) {
	t.Setenv("KUBECONFIG", writeKubeconfig(t, t.TempDir(), "env.example"))

	cfg, err := BuildRestConfig("")
	require.NoError(t, err)
	assert.Equal(t, "https://env.example:6443", cfg.Host)
}

func TestBuildRestConfig_MissingFile(t *testing.T) {
	_, err := BuildRestConfig(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build config from kubeconfig=")
}

type scriptedTransport struct {
	errs  []error
	calls int
}

func (s *scriptedTransport) RoundTrip(*http.Request) (*http.Response, error) {
	s.calls++
	if s.calls <= len(s.errs) && s.errs[s.calls-1] != nil {
		return nil, s.errs[s.calls-1]
	}
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
}

func refused() error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
}

func TestRetryTransport_RetriesTransient(t *testing.T) {
	next := &scriptedTransport{errs: []error{refused(), io.EOF}}
	rt := &retryTransport{next: next, retries: KubeRetries, backoff: time.Millisecond}

	req := httptest.NewRequest(http.MethodGet, "https://cluster/api/v1/pods", nil)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, next.calls)
}

func TestRetryTransport_GivesUpAfterThreeRetries(t *testing.T) {
	next := &scriptedTransport{errs: []error{refused(), refused(), refused(), refused(), refused()}}
	rt := &retryTransport{next: next, retries: KubeRetries, backoff: time.Millisecond}

	_, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "https://cluster/api", nil))
	require.Error(t, err)
	assert.Equal(t, 1+KubeRetries, next.calls)
}

func TestRetryTransport_NoRetryForPermanentErrors(t *testing.T) {
	next := &scriptedTransport{errs: []error{errors.New("x509: certificate signed by unknown authority")}}
	rt := &retryTransport{next: next, retries: KubeRetries, backoff: time.Millisecond}

	_, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "https://cluster/api", nil))
	require.Error(t, err)
	assert.Equal(t, 1, next.calls)
}

func TestRetryTransport_NoRetryWithBody(t *testing.T) {
	next := &scriptedTransport{errs: []error{refused()}}
	rt := &retryTransport{next: next, retries: KubeRetries, backoff: time.Millisecond}

	req := httptest.NewRequest(http.MethodPost, "https://cluster/api", strings.NewReader(`{}`))
	_, err := rt.RoundTrip(req)
	require.Error(t, err)
	assert.Equal(t, 1, next.calls)
}

func TestRetryTransport_StopsOnCancel(t *testing.T) {
	next := &scriptedTransport{errs: []error{refused(), refused()}}
	rt := &retryTransport{next: next, retries: KubeRetries, backoff: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "https://cluster/api", nil).WithContext(ctx)

	_, err := rt.RoundTrip(req)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, next.calls)
}
