package sheets

import (
	"context"

	"honoraires/internal/core"
	"honoraires/internal/ledger"
)

// Columns of a balance sheet row, after the client id and name.
var MonthColumns = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec", core.SettlementLabel}

// BalanceRow is one client's line in a yearly balance sheet. Months holds the
// running remainder after each month; nil means no record for that month.
type BalanceRow struct {
	ClientID int64
	Name     string
	Year     int
	Months   [core.SettlementMonth]*core.Money
	Closing  core.Money
}

// RowFromBalances flattens a client's roll-forward into a sheet row.
func RowFromBalances(c core.Client, yb ledger.YearBalances) BalanceRow {
	row := BalanceRow{ClientID: c.ID, Name: c.Name, Year: yb.Year, Closing: yb.Closing}
	for _, m := range yb.Months {
		if m.Month < 1 || m.Month > core.SettlementMonth {
			continue
		}
		v := m.Remaining
		row.Months[m.Month-1] = &v
	}
	return row
}

// Header returns the header line written above the first row.
func Header() []string {
	out := append([]string{"ID", "Client"}, MonthColumns...)
	return append(out, "Closing")
}

// Cells renders the row in sheet column order. Empty months are blank cells.
func (r BalanceRow) Cells() []any {
	out := make([]any, 0, len(r.Months)+3)
	out = append(out, r.ClientID, r.Name)
	for _, m := range r.Months {
		if m == nil {
			out = append(out, "")
			continue
		}
		out = append(out, m.String())
	}
	return append(out, r.Closing.String())
}

// Equal reports whether two rows would render the same cells.
func (r BalanceRow) Equal(o BalanceRow) bool {
	if r.ClientID != o.ClientID || r.Name != o.Name || r.Closing != o.Closing {
		return false
	}
	for i := range r.Months {
		a, b := r.Months[i], o.Months[i]
		if (a == nil) != (b == nil) {
			return false
		}
		if a != nil && *a != *b {
			return false
		}
	}
	return true
}

// Ports for outbound adapters.
type (
	// BalanceWriter stores one client row in the sheet for row.Year,
	// replacing any previous row for the same client.
	BalanceWriter interface {
		WriteBalanceRow(ctx context.Context, row BalanceRow) (rowRef string, err error)
	}

	// BalanceReader reads back the rows already exported for a year.
	BalanceReader interface {
		ReadBalanceRows(ctx context.Context, year int) ([]BalanceRow, error)
	}

	BalanceSheet interface {
		BalanceWriter
		BalanceReader
	}
)
