// Package cmd provides the ledgerctl commands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"honoraires/internal/cli"
	"honoraires/internal/config"
	"honoraires/internal/log"
)

type rootOptions struct {
	output string
	debug  bool
}

// NewRootCmd builds the ledgerctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Inspect and correct the honoraires ledger",
		Long: `ledgerctl reads balances and statements from the honoraires ledger and
applies the reclassification operations from the command line.

It uses the same configuration as the server (DATA_BACKEND, SQLITE_DB_PATH,
AMQP_URL, ...) and announces every change on the events queue.

Example:
  ledgerctl balances 12 --year 2024
  ledgerctl statement --scope office --month 3 --year 2024 -o yaml
  ledgerctl delete 42 --yes`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			level := slog.LevelWarn
			if opts.debug {
				level = slog.LevelDebug
			}
			// Logs go to stderr so stdout stays machine readable.
			l := log.New(log.Config{Level: level, Component: log.ComponentCLI, Output: os.Stderr})
			slog.SetDefault(l.Logger)
			return validateFormat(opts.output)
		},
	}

	root.PersistentFlags().StringVarP(&opts.output, "output", "o", formatText, "output format: text, json or yaml")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newClientsCmd(opts),
		newBalancesCmd(opts),
		newCarriedCmd(opts),
		newStatementCmd(opts),
		newAssignOfficeCmd(opts),
		newReturnClientCmd(opts),
		newDeleteCmd(opts),
		newMigrateCmd(opts),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// withLedger opens the configured ledger for the duration of fn.
func withLedger(cmd *cobra.Command, fn func(context.Context, *cli.Ledger) error) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ledger, err := cli.OpenLedger(ctx, slog.Default(), cfg, true)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			slog.Warn("Failed to close ledger", "error", err)
		}
	}()
	return fn(ctx, ledger)
}
