package sheets

import (
	"testing"

	"honoraires/internal/core"
	"honoraires/internal/ledger"
)

func TestRowFromBalances(t *testing.T) {
	yb := ledger.ComputeYearBalances(4, 2024, []core.MonthlyCharge{
		{ClientID: 4, Year: 2024, Month: 1, Charge: core.MustParseAmount("60")},
		{ClientID: 4, Year: 2024, Month: 3, Charge: core.MustParseAmount("10"), Advance: core.MustParseAmount("5")},
		{ClientID: 4, Year: 2024, Month: 13, Advance: core.MustParseAmount("65")},
	}, core.Money{})
	row := RowFromBalances(core.Client{ID: 4, Name: "Jlassi"}, yb)

	cells := row.Cells()
	if len(cells) != len(Header()) {
		t.Fatalf("cells %d, header %d", len(cells), len(Header()))
	}
	want := []any{int64(4), "Jlassi", "60.000", "", "65.000", "", "", "", "", "", "", "", "", "", "0.000", "0.000"}
	for i := range want {
		if cells[i] != want[i] {
			t.Errorf("cell %d (%s) = %v, want %v", i, Header()[i], cells[i], want[i])
		}
	}
}

func TestBalanceRowEqual(t *testing.T) {
	a := BalanceRow{ClientID: 1, Name: "x"}
	v := core.Millimes(5)
	b := a
	b.Months[0] = &v
	if a.Equal(b) {
		t.Fatal("rows with different months must differ")
	}
	w := core.Millimes(5)
	c := a
	c.Months[0] = &w
	if !b.Equal(c) {
		t.Fatal("equal values behind different pointers must compare equal")
	}
}
