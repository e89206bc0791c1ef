// Wrapper to build the K8s client.

package util

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	utilnet "k8s.io/apimachinery/pkg/util/net"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// KubeRetries is how often a transient transport failure is retried.
const KubeRetries = 3

// BuildRestConfig builds a Kubernetes rest config.
//
// Priority:
// 1. explicit kubeconfig flag
// 2. $KUBECONFIG
// 3. ~/.kube/config, when it exists
// 4. in-cluster config
func BuildRestConfig(kubeconfig string) (*rest.Config, error) {
	path, source := resolveKubeconfig(kubeconfig)
	if path == "" {
		cfg, err := rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("in-cluster config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := clientcmd.BuildConfigFromFlags("", path)
	if err != nil {
		return nil, fmt.Errorf("build config from %s=%s: %w", source, path, err)
	}
	return cfg, nil
}

// BuildKubeClient builds a Kubernetes clientset whose transport retries
// transient network failures.
//
// Priority:
// 1. explicit kubeconfig flag
// 2. $KUBECONFIG
// 3. ~/.kube/config, when it exists
// 4. in-cluster config
func BuildKubeClient(kubeconfig string) (*kubernetes.Clientset, error) {
	cfg, err := BuildRestConfig(kubeconfig)
	if err != nil {
		return nil, err
	}

	cfg.Wrap(func(rt http.RoundTripper) http.RoundTripper {
		return &retryTransport{next: rt, retries: KubeRetries, backoff: 200 * time.Millisecond}
	})

	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("new clientset: %w", err)
	}
	return clientset, nil
}

// resolveKubeconfig returns the kubeconfig path to load and where it came
// from. An empty path means in-cluster.
func resolveKubeconfig(flag string) (path, source string) {
	if flag != "" {
		return expandTilde(flag), "kubeconfig"
	}
	if env := os.Getenv("KUBECONFIG"); env != "" {
		return env, "$KUBECONFIG"
	}
	if home, err := os.UserHomeDir(); err == nil {
		def := filepath.Join(home, ".kube", "config")
		if _, err := os.Stat(def); err == nil {
			return def, "default kubeconfig"
		}
	}
	return "", ""
}

func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// retryTransport retries requests without a body that failed before a
// response arrived.
type retryTransport struct {
	next    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if !replayable(req) {
		return resp, err
	}

	for attempt := 1; attempt <= t.retries && err != nil && isTransient(err); attempt++ {
		timer := time.NewTimer(time.Duration(attempt) * t.backoff)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
		resp, err = t.next.RoundTrip(req)
	}
	return resp, err
}

func replayable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody
}

func isTransient(err error) bool {
	return utilnet.IsConnectionRefused(err) ||
		utilnet.IsConnectionReset(err) ||
		utilnet.IsProbableEOF(err)
}
