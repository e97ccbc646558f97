package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"primeia/videogate/pkg/cli"
	"primeia/videogate/pkg/config"
	"primeia/videogate/pkg/telemetry/logging"
)

type runOptions struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the videogate server",
		Long: `Start the upload gateway and the retention scheduler.

The retention sweeper runs once at startup and then on the configured cron
schedule (minute zero of every hour by default). Both stop on SIGINT or
SIGTERM; in-flight uploads and sweeps are allowed to finish.

Examples:
  # Start with defaults
  videogate run

  # Start with a config file
  videogate run --config /etc/videogate/config.yaml

  # Override listen address
  videogate run --listen 0.0.0.0:8080

  # Validate config without starting server
  videogate run --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.listenAddress, "listen", "l", "", "override listen address")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "validate config without starting server")
	return cmd
}

func runServer(cmd *cobra.Command, root *rootOptions, opts *runOptions) error {
	cfg, err := loadConfig(root.configPath)
	if err != nil {
		return err
	}

	if opts.listenAddress != "" {
		cfg.Server.ListenAddress = opts.listenAddress
	}
	if opts.logLevel != "" {
		cfg.Telemetry.Logging.Level = opts.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError(root.configPath, err)
	}

	if opts.dryRun {
		printSummary(cmd, cfg)
		return nil
	}

	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
	if err != nil {
		return cli.NewConfigError(root.configPath, err)
	}
	defer logger.Close()
	slog.SetDefault(logger.Logger)

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	a, err := newApp(cfg, logger.Logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer a.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "videogate %s listening on %s\n", Version, cfg.Server.ListenAddress)

	if err := a.Run(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}
