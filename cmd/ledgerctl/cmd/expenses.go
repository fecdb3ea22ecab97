package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"honoraires/internal/cli"
)

func newAssignOfficeCmd(opts *rootOptions) *cobra.Command {
	var beneficiary string
	cmd := &cobra.Command{
		Use:   "assign-office EXPENSE_ID",
		Short: "Move a client charge to the office",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "expense")
			if err != nil {
				return err
			}
			return withLedger(cmd, func(ctx context.Context, l *cli.Ledger) error {
				office, err := l.Service.AssignToOffice(ctx, id, beneficiary)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts.output, office, func(w io.Writer) {
					fmt.Fprintf(w, "Expense %d moved to office as %d\t%s\t%s\n", id, office.ID, office.Label, office.Amount)
				})
			})
		},
	}
	cmd.Flags().StringVar(&beneficiary, "beneficiary", "", "beneficiary shown on the office label (defaults to the expense's)")
	return cmd
}

func newReturnClientCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "return-client EXPENSE_ID",
		Short: "Give an office copy back to its client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "expense")
			if err != nil {
				return err
			}
			return withLedger(cmd, func(ctx context.Context, l *cli.Ledger) error {
				if err := l.Service.ReturnToClientCharge(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Expense %d returned to its client\n", id)
				return nil
			})
		},
	}
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete EXPENSE_ID",
		Short: "Permanently delete an expense",
		Long: `Permanently delete a live expense. Deleting an office copy also removes the
client original it replaced. This cannot be undone, so --yes is required.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "expense")
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to delete expense %d without --yes", id)
			}
			return withLedger(cmd, func(ctx context.Context, l *cli.Ledger) error {
				if err := l.Service.DeleteExpense(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Expense %d deleted\n", id)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return cmd
}
