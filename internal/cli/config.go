package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Print the effective configuration as YAML, secrets masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := effectiveSettings()

		out, err := yaml.Marshal(s.Redacted())
		if err != nil {
			return fmt.Errorf("marshal settings: %w", err)
		}
		if used := viper.ConfigFileUsed(); used != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "# config file: %s\n", used)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))

		if err := s.Validate(); err != nil {
			return invalidInput(err)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configViewCmd)
	rootCmd.AddCommand(configCmd)
}
