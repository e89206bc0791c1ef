package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/podtriage/internal/diagnose"
	"github.com/ppiankov/podtriage/internal/monitor"
	"github.com/spf13/viper"
)

// Settings is the effective configuration after flags, environment and the
// config file are merged.
type Settings struct {
	Listen     string          `yaml:"listen"`
	Kubeconfig string          `yaml:"kubeconfig"`
	LLM        LLMSettings     `yaml:"llm"`
	Slack      SlackSettings   `yaml:"slack"`
	Collect    CollectSettings `yaml:"collect"`
	Prompt     PromptSettings  `yaml:"prompt"`
	Monitor    MonitorSettings `yaml:"monitor"`
	Log        LogSettings     `yaml:"log"`
}

type LLMSettings struct {
	Endpoint string        `yaml:"endpoint"`
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"api-key"`
	Timeout  time.Duration `yaml:"timeout"`
}

type SlackSettings struct {
	WebhookURL string        `yaml:"webhook-url"`
	Timeout    time.Duration `yaml:"timeout"`
}

type CollectSettings struct {
	LogLines   int64 `yaml:"log-lines"`
	EventLimit int64 `yaml:"event-limit"`
}

type PromptSettings struct {
	IncludeEvents bool `yaml:"include-events"`
	IncludeStatus bool `yaml:"include-status"`
}

type MonitorSettings struct {
	Namespace      string        `yaml:"namespace"`
	Cooldown       time.Duration `yaml:"cooldown"`
	AgentURL       string        `yaml:"agent-url"`
	TriggerTimeout time.Duration `yaml:"trigger-timeout"`
}

type LogSettings struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max-size-mb"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAgeDays int    `yaml:"max-age-days"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":8000")
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("slack.timeout", 10*time.Second)
	v.SetDefault("collect.log-lines", diagnose.DefaultTailLines)
	v.SetDefault("collect.event-limit", diagnose.DefaultEventLimit)
	v.SetDefault("prompt.include-events", false)
	v.SetDefault("prompt.include-status", false)
	v.SetDefault("monitor.cooldown", monitor.DefaultCooldown)
	v.SetDefault("monitor.agent-url", "http://localhost:8000/summarize-pod")
	v.SetDefault("monitor.trigger-timeout", monitor.DefaultTriggerTimeout)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.max-size-mb", 50)
	v.SetDefault("log.max-backups", 3)
	v.SetDefault("log.max-age-days", 7)
}

func loadSettings(v *viper.Viper) Settings {
	s := Settings{
		Listen:     v.GetString("listen"),
		Kubeconfig: v.GetString("kubeconfig"),
		LLM: LLMSettings{
			Endpoint: v.GetString("llm.endpoint"),
			Model:    v.GetString("llm.model"),
			APIKey:   v.GetString("llm.api-key"),
			Timeout:  v.GetDuration("llm.timeout"),
		},
		Slack: SlackSettings{
			WebhookURL: v.GetString("slack.webhook-url"),
			Timeout:    v.GetDuration("slack.timeout"),
		},
		Collect: CollectSettings{
			LogLines:   v.GetInt64("collect.log-lines"),
			EventLimit: v.GetInt64("collect.event-limit"),
		},
		Prompt: PromptSettings{
			IncludeEvents: v.GetBool("prompt.include-events"),
			IncludeStatus: v.GetBool("prompt.include-status"),
		},
		Monitor: MonitorSettings{
			Namespace:      v.GetString("monitor.namespace"),
			Cooldown:       v.GetDuration("monitor.cooldown"),
			AgentURL:       v.GetString("monitor.agent-url"),
			TriggerTimeout: v.GetDuration("monitor.trigger-timeout"),
		},
		Log: LogSettings{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			File:       v.GetString("log.file"),
			MaxSizeMB:  v.GetInt("log.max-size-mb"),
			MaxBackups: v.GetInt("log.max-backups"),
			MaxAgeDays: v.GetInt("log.max-age-days"),
		},
	}
	if v.GetBool("verbose") {
		s.Log.Level = "debug"
	}
	return s
}

// Validate rejects settings no component can run with.
func (s Settings) Validate() error {
	var errs []error
	if s.Collect.LogLines <= 0 {
		errs = append(errs, fmt.Errorf("collect.log-lines must be positive, got %d", s.Collect.LogLines))
	}
	if s.Collect.EventLimit <= 0 {
		errs = append(errs, fmt.Errorf("collect.event-limit must be positive, got %d", s.Collect.EventLimit))
	}
	for _, d := range []struct {
		key string
		val time.Duration
	}{
		{"llm.timeout", s.LLM.Timeout},
		{"slack.timeout", s.Slack.Timeout},
		{"monitor.cooldown", s.Monitor.Cooldown},
		{"monitor.trigger-timeout", s.Monitor.TriggerTimeout},
	} {
		if d.val <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", d.key, d.val))
		}
	}
	switch s.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", s.Log.Format))
	}
	switch s.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", s.Log.Level))
	}
	return errors.Join(errs...)
}

// Redacted returns a copy with secrets masked.
func (s Settings) Redacted() Settings {
	s.LLM.APIKey = mask(s.LLM.APIKey)
	s.Slack.WebhookURL = mask(s.Slack.WebhookURL)
	return s
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****"
}

// effectiveSettings loads the global configuration without validating it.
func effectiveSettings() Settings {
	s := loadSettings(viper.GetViper())
	s.Kubeconfig = GetKubeconfig()
	return s
}

// currentSettings loads and validates the global configuration.
func currentSettings() (Settings, error) {
	s := effectiveSettings()
	if err := s.Validate(); err != nil {
		return Settings{}, invalidInput(err)
	}
	return s, nil
}
