package ledger

import (
	"sort"

	"honoraires/internal/core"
)

// MonthBalance is one step of a client's running remainder.
type MonthBalance struct {
	Month      int        `json:"month" yaml:"month"`
	Label      string     `json:"label" yaml:"label"`
	Charge     core.Money `json:"montant_charge" yaml:"montant_charge"`
	Advance    core.Money `json:"avance" yaml:"avance"`
	Remaining  core.Money `json:"solde_restant" yaml:"solde_restant"`
	Settlement bool       `json:"settlement,omitempty" yaml:"settlement,omitempty"`
}

// YearBalances is the roll-forward of one client over one year.
type YearBalances struct {
	ClientID int64          `json:"client_id" yaml:"client_id"`
	Year     int            `json:"year" yaml:"year"`
	Opening  core.Money     `json:"opening" yaml:"opening"`
	Months   []MonthBalance `json:"months" yaml:"months"`
	Closing  core.Money     `json:"closing" yaml:"closing"`
}

// ComputeYearBalances runs solde(m) = solde(m-1) + charge(m) - avance(m)
// over the client's records for year, January to December and then REGLT.
// Months without a record are skipped and do not reset the running value.
// A negative remainder means the client owes money and is not an error.
func ComputeYearBalances(clientID int64, year int, records []core.MonthlyCharge, opening core.Money) YearBalances {
	months := make([]core.MonthlyCharge, 0, len(records))
	for _, r := range records {
		if r.ClientID == clientID && r.Year == year {
			months = append(months, r)
		}
	}
	sort.SliceStable(months, func(i, j int) bool { return months[i].Month < months[j].Month })

	out := YearBalances{
		ClientID: clientID,
		Year:     year,
		Opening:  opening,
		Months:   make([]MonthBalance, 0, len(months)),
	}
	running := opening
	for _, m := range months {
		running = running.Add(m.Charge).Sub(m.Advance)
		out.Months = append(out.Months, MonthBalance{
			Month:      m.Month,
			Label:      core.MonthLabel(m.Month),
			Charge:     m.Charge,
			Advance:    m.Advance,
			Remaining:  running,
			Settlement: m.Month == core.SettlementMonth,
		})
	}
	out.Closing = running
	return out
}

// Remainders returns only the running values, in order.
func (yb YearBalances) Remainders() []core.Money {
	out := make([]core.Money, len(yb.Months))
	for i, m := range yb.Months {
		out[i] = m.Remaining
	}
	return out
}

// CarryForward chains roll-forwards from firstYear through lastYear and
// returns the closing of lastYear. Years before firstYear contribute nothing.
func CarryForward(clientID int64, firstYear, lastYear int, records []core.MonthlyCharge) core.Money {
	var carried core.Money
	for y := firstYear; y <= lastYear; y++ {
		carried = ComputeYearBalances(clientID, y, records, carried).Closing
	}
	return carried
}
