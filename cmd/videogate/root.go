package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"primeia/videogate/pkg/cli"
	"primeia/videogate/pkg/config"
)

// rootOptions holds the global flags.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "videogate",
		Short: "videogate - video upload gateway with retention",
		Long: `videogate accepts multipart video uploads, stores them in a flat directory,
serves them back under a public URL prefix and deletes every video older than
the retention window, hourly and once at startup.

Configuration is read from an optional YAML file and VIDEOGATE_* environment
variables. API_KEY, SUPABASE_URL and SUPABASE_PUBLISHABLE_KEY are honoured
as fallbacks.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path (defaults and environment only when empty)")

	cmd.AddCommand(
		newRunCmd(opts),
		newValidateCmd(opts),
		newHistoryCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := newRootCmd().ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return cli.ExitCode(err)
}

// loadConfig loads the file at path with environment overrides applied.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, cli.NewConfigError(path, err)
	}
	return cfg, nil
}
