package main

import (
	"errors"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"primeia/videogate/pkg/cli"
	"primeia/videogate/pkg/ledger"
	"primeia/videogate/pkg/telemetry/logging"
)

var historyHeaders = []string{"STARTED", "TRIGGER", "DELETED", "ERRORS", "DURATION", "ID"}

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent retention sweeps",
		Long: `Print the most recent retention sweeps recorded in the ledger, newest first.

Examples:
  # Last 20 sweeps as a table
  videogate history

  # Last 5 sweeps with per-file outcomes as JSON
  videogate history --limit 5 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := cli.ParseOutputFormat(format)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(root.configPath)
			if err != nil {
				return err
			}
			if !cfg.Ledger.Enabled {
				return cli.NewCommandError("history", errors.New("the ledger is disabled (ledger.enabled: false)"))
			}
			if limit <= 0 {
				limit = cfg.Ledger.HistoryLimit
			}

			l, err := ledger.Open(ledger.Config{
				Driver:      cfg.Ledger.Driver,
				Path:        cfg.Ledger.Path,
				BusyTimeout: cfg.Ledger.BusyTimeout,
			}, logging.Discard())
			if err != nil {
				return cli.NewCommandError("history", err)
			}
			defer l.Close()

			runs, err := l.Recent(cmd.Context(), limit)
			if err != nil {
				return cli.NewCommandError("history", err)
			}

			formatter := cli.NewFormatter(outFormat)
			out := cmd.OutOrStdout()
			if outFormat == cli.FormatJSON {
				if runs == nil {
					runs = []ledger.RunRecord{}
				}
				return formatter.FormatTo(out, runs)
			}
			if len(runs) == 0 && outFormat == cli.FormatText {
				return formatter.FormatTo(out, "no sweeps recorded")
			}
			return formatter.FormatTo(out, historyTable(runs))
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of runs to show (default ledger.history_limit)")
	cmd.Flags().StringVarP(&format, "format", "o", "text", "output format: text, json, csv")
	return cmd
}

func historyTable(runs []ledger.RunRecord) cli.Table {
	table := cli.Table{Headers: historyHeaders}
	for _, run := range runs {
		table.Rows = append(table.Rows, []string{
			run.StartedAt.Format(time.RFC3339),
			run.Trigger,
			strconv.Itoa(run.Deleted),
			strconv.Itoa(run.Errors),
			run.Duration.Round(time.Millisecond).String(),
			run.ID,
		})
	}
	return table
}
