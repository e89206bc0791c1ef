package cli

import (
	"os/signal"
	"syscall"

	"github.com/ppiankov/podtriage/internal/monitor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch pods and trigger a remote podtriage service",
	Long: `Watch pods and trigger a triage when one enters a bad state.

A pod is in a bad state when it failed, a container is in CrashLoopBackOff,
ImagePullBackOff or ErrImagePull, a container terminated with Error, or a
container is restarting after an OOM kill. Each pod alerts at most once per
cooldown window.

Examples:
  # Trigger the local service
  podtriage watch

  # Watch one namespace and trigger a remote service
  podtriage watch -n prod --agent-url http://podtriage.ops:8000/summarize-pod`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("agent-url", "http://localhost:8000/summarize-pod", "triage endpoint to POST bad pods to")
	watchCmd.Flags().Duration("cooldown", monitor.DefaultCooldown, "minimum time between alerts for one pod")
	viper.BindPFlag("monitor.agent-url", watchCmd.Flags().Lookup("agent-url"))
	viper.BindPFlag("monitor.cooldown", watchCmd.Flags().Lookup("cooldown"))
}

func runWatch(cmd *cobra.Command, args []string) error {
	settings, err := currentSettings()
	if err != nil {
		return err
	}
	a, err := newApp(settings)
	if err != nil {
		return err
	}
	defer a.close()

	if a.connectErr != nil {
		return a.connectErr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	trigger := &monitor.HTTPTrigger{
		URL:     settings.Monitor.AgentURL,
		Timeout: settings.Monitor.TriggerTimeout,
	}
	w := monitor.NewWatcher(a.clientset, monitor.Config{
		Namespace: settings.Monitor.Namespace,
		Cooldown:  settings.Monitor.Cooldown,
	}, trigger, a.logger)
	return w.Run(ctx)
}
