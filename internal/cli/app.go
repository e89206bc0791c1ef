package cli

import (
	"github.com/ppiankov/podtriage/internal/diagnose"
	"github.com/ppiankov/podtriage/internal/llm"
	"github.com/ppiankov/podtriage/internal/notify"
	"github.com/ppiankov/podtriage/internal/prompt"
	"github.com/ppiankov/podtriage/internal/summarize"
	"github.com/ppiankov/podtriage/internal/triage"
	"github.com/ppiankov/podtriage/internal/util"
	"go.uber.org/zap"
	"k8s.io/client-go/kubernetes"
)

// app holds the components built once per process.
type app struct {
	settings   Settings
	logger     *zap.Logger
	clientset  kubernetes.Interface // nil when ConnectErr is set
	connectErr error
	service    *triage.Service
}

func newApp(s Settings) (*app, error) {
	logger, err := util.NewLogger(util.LogConfig{
		Level:      s.Log.Level,
		Format:     s.Log.Format,
		File:       s.Log.File,
		MaxSizeMB:  s.Log.MaxSizeMB,
		MaxBackups: s.Log.MaxBackups,
		MaxAgeDays: s.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, invalidInput(err)
	}

	a := &app{settings: s, logger: logger}

	collector := &diagnose.Collector{
		TailLines:  s.Collect.LogLines,
		EventLimit: s.Collect.EventLimit,
		Logger:     logger,
	}
	clientset, err := util.BuildKubeClient(s.Kubeconfig)
	if err != nil {
		logger.Warn("kubernetes client unavailable, diagnostics will be degraded", zap.Error(err))
		a.connectErr = err
		collector.ConnectErr = err
	} else {
		a.clientset = clientset
		collector.Cluster = diagnose.NewKubeCluster(clientset)
	}

	backend := llm.Client{
		Endpoint: s.LLM.Endpoint,
		Model:    s.LLM.Model,
		APIKey:   s.LLM.APIKey,
		Timeout:  s.LLM.Timeout,
	}
	if backend.Endpoint == "" {
		logger.Warn("llm.endpoint is not set, every summary will be the fallback summary")
	}

	slack := &notify.Slack{WebhookURL: s.Slack.WebhookURL, Timeout: s.Slack.Timeout}
	if !slack.Enabled() {
		logger.Warn("slack.webhook-url is not set, notifications are disabled")
	}

	opts := prompt.Options{
		IncludeEvents: s.Prompt.IncludeEvents,
		IncludeStatus: s.Prompt.IncludeStatus,
	}
	a.service = &triage.Service{
		Collector:  collector,
		Summarizer: summarize.New(backend, opts, logger),
		Notifier:   slack,
		Logger:     logger,
	}
	return a, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}
