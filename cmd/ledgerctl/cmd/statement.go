package cmd

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"honoraires/internal/cli"
	"honoraires/internal/ledger"
)

type statementOptions struct {
	scope    string
	clientID int64
	day      string
	from     string
	to       string
	month    int
	year     int
	carry    bool
}

// filter maps the period flags onto the same parameters the API accepts.
func (o statementOptions) filter() (ledger.Filter, error) {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("day", o.day)
	set("from", o.from)
	set("to", o.to)
	if o.month > 0 {
		q.Set("month", strconv.Itoa(o.month))
	}
	if o.year > 0 {
		q.Set("year", strconv.Itoa(o.year))
	}
	return ledger.ParseFilter(q)
}

func newStatementCmd(opts *rootOptions) *cobra.Command {
	so := statementOptions{}
	cmd := &cobra.Command{
		Use:   "statement",
		Short: "Aggregate fees and expenses over a period",
		Long: `Aggregate the fees and live expenses of a client or of the office over a
period given by --day, --from/--to, --month/--year or --year.

With --carry on a month or year statement, the client's carried balance is
added to the net.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := so.filter()
			if err != nil {
				return err
			}
			return withLedger(cmd, func(ctx context.Context, l *cli.Ledger) error {
				var st ledger.Statement
				switch ledger.ScopeKind(so.scope) {
				case ledger.ScopeClient:
					st, err = l.Service.ClientStatement(ctx, so.clientID, f, so.carry)
				case ledger.ScopeOffice:
					iv, rerr := l.Service.ResolvePeriod(f)
					if rerr != nil {
						return rerr
					}
					st, err = l.Service.AggregateStatement(ctx, ledger.OfficeScope(), iv, nil)
				default:
					return fmt.Errorf("unknown scope %q (want client or office)", so.scope)
				}
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts.output, st, func(w io.Writer) { writeStatement(w, st) })
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&so.scope, "scope", string(ledger.ScopeClient), "client or office")
	fl.Int64Var(&so.clientID, "client", 0, "client id for a client statement")
	fl.StringVar(&so.day, "day", "", "single day, YYYY-MM-DD")
	fl.StringVar(&so.from, "from", "", "range start, YYYY-MM-DD")
	fl.StringVar(&so.to, "to", "", "range end, YYYY-MM-DD")
	fl.IntVar(&so.month, "month", 0, "month 1-12, with --year")
	fl.IntVar(&so.year, "year", 0, "calendar year")
	fl.BoolVar(&so.carry, "carry", false, "include the carried balance")
	return cmd
}

func writeStatement(w io.Writer, st ledger.Statement) {
	fmt.Fprintf(w, "Statement %s\t%s .. %s\n", st.Scope, st.Period.Start, st.Period.End)
	fmt.Fprintln(w, "\nFEES\tDATE\tLABEL\tRECEIVED")
	for _, l := range st.Fees {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", l.Fee.ID, l.Fee.Date, l.Fee.Label, l.Received)
	}
	fmt.Fprintln(w, "\nEXPENSES\tDATE\tLABEL\tAMOUNT")
	for _, e := range st.Expenses {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.ID, e.Date, e.Label, e.Amount)
	}
	fmt.Fprintf(w, "\nTotal fees\t\t\t%s\n", st.TotalFees)
	fmt.Fprintf(w, "Total expenses\t\t\t%s\n", st.TotalExpenses)
	fmt.Fprintf(w, "Net\t\t\t%s\n", st.Net)
	if st.Carried != nil {
		fmt.Fprintf(w, "Carried\t\t\t%s\n", *st.Carried)
		fmt.Fprintf(w, "Net final\t\t\t%s\n", *st.NetFinal)
	}
}
