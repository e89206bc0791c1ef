package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var version = "0.1.0"

// ErrInvalidInput marks errors caused by flags, arguments or configuration.
var ErrInvalidInput = errors.New("invalid input")

var (
	// Global flags
	cfgFile    string
	kubeconfig string
	namespace  string
	verbose    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "podtriage",
	Short: "Failing pod diagnostics with LLM summaries pushed to Slack",
	Long: `podtriage reacts to a failing Kubernetes pod: it gathers the pod's recent
logs and events, asks an OpenAI-compatible LLM for a short diagnosis and
pushes it to Slack.

Commands:
  serve     HTTP service accepting triage requests (optionally with the pod monitor)
  watch     Pod monitor that triggers a remote podtriage service
  diagnose  One-shot triage of a single pod
  config    Inspect the effective configuration`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	// Disable default completion command
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.podtriage.yaml)")
	rootCmd.PersistentFlags().StringVar(&kubeconfig, "kubeconfig", "", "path to kubeconfig file (default is $KUBECONFIG or $HOME/.kube/config)")
	rootCmd.PersistentFlags().StringVarP(&namespace, "namespace", "n", "", "namespace watched by the pod monitor (default is all namespaces)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.PersistentFlags().String("llm-endpoint", "", "OpenAI-compatible API endpoint (e.g. http://localhost:11434/v1)")
	rootCmd.PersistentFlags().String("model", "", "LLM model name")
	rootCmd.PersistentFlags().String("api-key", "", "LLM API key (or OPENAI_API_KEY)")
	rootCmd.PersistentFlags().String("slack-webhook-url", "", "Slack incoming webhook URL (or SLACK_WEBHOOK_URL)")

	// Bind flags to viper
	viper.BindPFlag("kubeconfig", rootCmd.PersistentFlags().Lookup("kubeconfig"))
	viper.BindPFlag("monitor.namespace", rootCmd.PersistentFlags().Lookup("namespace"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("llm.endpoint", rootCmd.PersistentFlags().Lookup("llm-endpoint"))
	viper.BindPFlag("llm.model", rootCmd.PersistentFlags().Lookup("model"))
	viper.BindPFlag("llm.api-key", rootCmd.PersistentFlags().Lookup("api-key"))
	viper.BindPFlag("slack.webhook-url", rootCmd.PersistentFlags().Lookup("slack-webhook-url"))

	// --log_lines and --log-lines are the same flag
	rootCmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	})

	setDefaults(viper.GetViper())
	bindEnv(viper.GetViper())
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		// Search config in home directory with name ".podtriage" (without extension)
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".podtriage")
	}

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && IsVerbose() {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// bindEnv maps PODTRIAGE_* variables onto config keys, plus the
// conventional unprefixed names for the two secrets.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("PODTRIAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.BindEnv("slack.webhook-url", "PODTRIAGE_SLACK_WEBHOOK_URL", "SLACK_WEBHOOK_URL")
	v.BindEnv("llm.api-key", "PODTRIAGE_LLM_API_KEY", "OPENAI_API_KEY")
}

// GetKubeconfig returns the kubeconfig path from flags or viper
func GetKubeconfig() string {
	if kubeconfig != "" {
		return kubeconfig
	}
	return viper.GetString("kubeconfig")
}

// IsVerbose returns the verbose flag value
func IsVerbose() bool {
	return verbose || viper.GetBool("verbose")
}

func invalidInput(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}
