package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"honoraires/internal/cli"
	"honoraires/internal/core"
	"honoraires/internal/ledger"
)

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, s)
	}
	return id, nil
}

func newBalancesCmd(opts *rootOptions) *cobra.Command {
	var (
		year    int
		opening string
	)
	cmd := &cobra.Command{
		Use:   "balances CLIENT_ID",
		Short: "Show a client's monthly remainders for one year",
		Long: `Show the month by month roll-forward of a client's charges and advances,
December followed by the REGLT settlement month.

The year opens on the balance carried from earlier years unless --opening is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "client")
			if err != nil {
				return err
			}
			return withLedger(cmd, func(ctx context.Context, l *cli.Ledger) error {
				var start core.Money
				if opening != "" {
					if err := start.UnmarshalText([]byte(opening)); err != nil {
						return err
					}
				} else if start, err = l.Service.CarriedBalance(ctx, id, year); err != nil {
					return err
				}

				yb, err := l.Service.ComputeYearBalances(ctx, id, year, &start)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts.output, yb, func(w io.Writer) { writeBalances(w, yb) })
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "calendar year")
	cmd.Flags().StringVar(&opening, "opening", "", "opening balance, e.g. 120.500")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}

func writeBalances(w io.Writer, yb ledger.YearBalances) {
	fmt.Fprintf(w, "Client %d, %d\topening %s\n", yb.ClientID, yb.Year, yb.Opening)
	fmt.Fprintln(w, "MONTH\tCHARGE\tADVANCE\tREMAINING")
	for _, m := range yb.Months {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Label, m.Charge, m.Advance, m.Remaining)
	}
	fmt.Fprintf(w, "CLOSING\t\t\t%s\n", yb.Closing)
}

func newCarriedCmd(opts *rootOptions) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "carried CLIENT_ID",
		Short: "Show the balance a client carries into a year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "client")
			if err != nil {
				return err
			}
			return withLedger(cmd, func(ctx context.Context, l *cli.Ledger) error {
				carried, err := l.Service.CarriedBalance(ctx, id, year)
				if err != nil {
					return err
				}
				out := struct {
					ClientID int64      `json:"client_id" yaml:"client_id"`
					Year     int        `json:"year" yaml:"year"`
					Carried  core.Money `json:"carried" yaml:"carried"`
				}{id, year, carried}
				return render(cmd.OutOrStdout(), opts.output, out, func(w io.Writer) {
					fmt.Fprintf(w, "Client %d carries %s into %d\n", id, carried, year)
				})
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "calendar year")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}
