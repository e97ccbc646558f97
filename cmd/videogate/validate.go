package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"primeia/videogate/pkg/config"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Long: `Load the configuration file, apply defaults and environment overrides, and
report every invalid field.

Examples:
  # Validate the defaults plus environment
  videogate validate

  # Validate a file
  videogate validate --config /etc/videogate/config.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root.configPath)
			if err != nil {
				return err
			}
			printSummary(cmd, cfg)
			return nil
		},
	}
}

func printSummary(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "✓ Configuration valid")
	fmt.Fprintf(out, "  listen:     %s\n", cfg.Server.ListenAddress)
	fmt.Fprintf(out, "  storage:    %s (served at %s)\n", cfg.Storage.Directory, cfg.Storage.URLPrefix)

	if cfg.Retention.Enabled {
		schedule := cfg.Retention.Schedule
		if schedule == "" {
			schedule = "startup only"
		}
		fmt.Fprintf(out, "  retention:  %s, %s (%s)\n", cfg.Retention.Window, schedule, cfg.Retention.Timezone)
	} else {
		fmt.Fprintln(out, "  retention:  disabled")
	}

	if cfg.Ledger.Enabled {
		fmt.Fprintf(out, "  ledger:     %s (%s)\n", cfg.Ledger.Path, cfg.Ledger.Driver)
	} else {
		fmt.Fprintln(out, "  ledger:     disabled")
	}

	auth := "none"
	switch {
	case cfg.Security.APIKey.Enabled && cfg.Security.Token.Enabled:
		auth = "api key + bearer token"
	case cfg.Security.APIKey.Enabled:
		auth = fmt.Sprintf("api key (%d keys)", len(cfg.Security.APIKey.Keys))
	case cfg.Security.Token.Enabled:
		auth = "bearer token"
	}
	fmt.Fprintf(out, "  auth:       %s\n", auth)

	if cfg.Telemetry.Tracing.Enabled {
		fmt.Fprintf(out, "  tracing:    %s (%s)\n", cfg.Telemetry.Tracing.Endpoint, cfg.Telemetry.Tracing.Sampler)
	}
}
