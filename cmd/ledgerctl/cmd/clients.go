package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"honoraires/internal/cli"
	"honoraires/internal/core"
)

func newClientsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "List clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, func(ctx context.Context, l *cli.Ledger) error {
				clients, err := l.Service.Clients().List(ctx)
				if err != nil {
					return err
				}
				if clients == nil {
					clients = []core.Client{}
				}
				return render(cmd.OutOrStdout(), opts.output, clients, func(w io.Writer) {
					fmt.Fprintln(w, "ID\tNAME\tPHONE\tEMAIL")
					for _, c := range clients {
						fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.ID, c.Name, c.Phone, c.Email)
					}
				})
			})
		},
	}

	var c core.Client
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Register a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Name = args[0]
			return withLedger(cmd, func(ctx context.Context, l *cli.Ledger) error {
				saved, err := l.Service.CreateClient(ctx, c)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts.output, saved, func(w io.Writer) {
					fmt.Fprintf(w, "Created client %d\t%s\n", saved.ID, saved.Name)
				})
			})
		},
	}
	add.Flags().StringVar(&c.Phone, "phone", "", "phone number")
	add.Flags().StringVar(&c.Email, "email", "", "email address")
	add.Flags().StringVar(&c.Address, "address", "", "postal address")
	cmd.AddCommand(add)
	return cmd
}
