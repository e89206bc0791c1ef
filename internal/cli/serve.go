package cli

import (
	"os/signal"
	"sync"
	"syscall"

	"github.com/ppiankov/podtriage/internal/monitor"
	"github.com/ppiankov/podtriage/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveWatch bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP triage service",
	Long: `Run the HTTP triage service.

Endpoints:
  GET  /               service info
  GET  /health         liveness, plus the monitor connection with --watch
  POST /summarize-pod  {"namespace", "pod_name", "reason"} -> {"status", "pod", "summary"}
  GET  /metrics        Prometheus metrics

With --watch the pod monitor runs in the same process and triggers triages
directly.

Examples:
  # Serve on the default port
  podtriage serve --llm-endpoint http://localhost:11434/v1 --model mixtral:8x22b

  # Serve and watch pods in one namespace
  podtriage serve --watch -n prod`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8000", "listen address")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "also run the pod monitor in-process")
	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
}

func runServe(cmd *cobra.Command, args []string) error {
	settings, err := currentSettings()
	if err != nil {
		return err
	}
	a, err := newApp(settings)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := server.Config{Addr: settings.Listen, Version: version}

	var wg sync.WaitGroup
	if serveWatch {
		if a.connectErr != nil {
			return a.connectErr
		}
		w := monitor.NewWatcher(a.clientset, monitor.Config{
			Namespace: settings.Monitor.Namespace,
			Cooldown:  settings.Monitor.Cooldown,
		}, a.service, a.logger)
		cfg.Monitor = w

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Run(ctx); err != nil {
				a.logger.Error("pod monitor stopped", zap.Error(err))
			}
		}()
	}

	srv := server.New(cfg, a.service, a.logger)
	err = srv.Run(ctx)
	stop()
	wg.Wait()
	return err
}
