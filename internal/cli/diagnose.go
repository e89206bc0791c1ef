package cli

import (
	"fmt"

	"github.com/ppiankov/podtriage/internal/result"
	"github.com/ppiankov/podtriage/internal/triage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var diagnoseOpts struct {
	Reason     string
	Format     string
	Notify     bool
	ShowBundle bool
}

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose NAMESPACE POD",
	Short: "Triage one pod and print the summary",
	Long: `Collect logs and events of one pod, summarize them and print the result.

Nothing is sent to Slack unless --notify is given.

Examples:
  # Diagnose a crash-looping pod
  podtriage diagnose prod api-7f --reason CrashLoopBackOff

  # Show what the summary was built from, as JSON
  podtriage diagnose prod api-7f --show-bundle --format json`,
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(2)(cmd, args); err != nil {
			return invalidInput(err)
		}
		return nil
	},
	RunE: runDiagnose,
}

func init() {
	rootCmd.AddCommand(diagnoseCmd)
	diagnoseCmd.Flags().StringVar(&diagnoseOpts.Reason, "reason", "", "trigger reason (CrashLoopBackOff reads the previous container first)")
	diagnoseCmd.Flags().StringVar(&diagnoseOpts.Format, "format", "human", "output format: human|json")
	diagnoseCmd.Flags().BoolVar(&diagnoseOpts.Notify, "notify", false, "send the summary to Slack")
	diagnoseCmd.Flags().BoolVar(&diagnoseOpts.ShowBundle, "show-bundle", false, "include collected logs, events and pod status in the output")
	diagnoseCmd.Flags().Int64("log-lines", 100, "number of log lines to read")
	viper.BindPFlag("collect.log-lines", diagnoseCmd.Flags().Lookup("log-lines"))
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	if diagnoseOpts.Format != "human" && diagnoseOpts.Format != "json" {
		return invalidInput(fmt.Errorf("--format must be human or json, got %q", diagnoseOpts.Format))
	}

	settings, err := currentSettings()
	if err != nil {
		return err
	}
	a, err := newApp(settings)
	if err != nil {
		return err
	}
	defer a.close()

	svc := *a.service
	if !diagnoseOpts.Notify {
		svc.Notifier = nil
	}

	out, err := svc.Run(cmd.Context(), triage.Request{Namespace: args[0], PodName: args[1], Reason: diagnoseOpts.Reason})
	if err != nil {
		return err
	}

	report := &result.Report{
		Response:     out.Response,
		Reason:       diagnoseOpts.Reason,
		Notification: out.Notification,
	}
	if diagnoseOpts.ShowBundle {
		report.Bundle = &out.Bundle
	}

	w := cmd.OutOrStdout()
	if diagnoseOpts.Format == "json" {
		js, err := result.PrettyJSON(report)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, js)
		return nil
	}
	result.RenderHuman(w, report)
	return nil
}
