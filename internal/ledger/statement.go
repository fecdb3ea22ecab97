package ledger

import (
	"fmt"
	"sort"

	"honoraires/internal/core"
)

type ScopeKind string

const (
	ScopeClient ScopeKind = "client"
	ScopeOffice ScopeKind = "office"
)

// Scope selects whose statement is built: one client, or the office (bureau).
type Scope struct {
	Kind     ScopeKind `json:"kind" yaml:"kind"`
	ClientID int64     `json:"client_id,omitempty" yaml:"client_id,omitempty"`
}

func ClientScope(id int64) Scope { return Scope{Kind: ScopeClient, ClientID: id} }

func OfficeScope() Scope { return Scope{Kind: ScopeOffice} }

func (s Scope) Validate() error {
	switch s.Kind {
	case ScopeClient:
		if s.ClientID <= 0 {
			return fmt.Errorf("%w: client scope without client id", core.ErrInvalidFilter)
		}
		return nil
	case ScopeOffice:
		return nil
	default:
		return fmt.Errorf("%w: unknown scope %q", core.ErrInvalidFilter, s.Kind)
	}
}

// Bucket is the expense bucket a scope reads from.
func (s Scope) Bucket() core.Bucket {
	if s.Kind == ScopeOffice {
		return core.OfficeCharge
	}
	return core.ClientCharge
}

func (s Scope) String() string {
	if s.Kind == ScopeClient {
		return fmt.Sprintf("client:%d", s.ClientID)
	}
	return string(s.Kind)
}

// FeeLine is a fee with its reconciled received amount.
type FeeLine struct {
	Fee      core.FeeEntry `json:"fee" yaml:"fee"`
	Received core.Money    `json:"received" yaml:"received"`
}

type Statement struct {
	Scope         Scope          `json:"scope" yaml:"scope"`
	Period        Interval       `json:"period" yaml:"period"`
	Fees          []FeeLine      `json:"fees" yaml:"fees"`
	Expenses      []core.Expense `json:"expenses" yaml:"expenses"`
	TotalFees     core.Money     `json:"total_fees" yaml:"total_fees"`
	TotalExpenses core.Money     `json:"total_expenses" yaml:"total_expenses"`
	Net           core.Money     `json:"net" yaml:"net"`
	Carried       *core.Money    `json:"carried,omitempty" yaml:"carried,omitempty"`
	NetFinal      *core.Money    `json:"net_final,omitempty" yaml:"net_final,omitempty"`
}

// AggregateStatement sums fees and expenses that belong to scope and fall in
// period. Entries outside either are ignored, so the result depends only on
// the arguments. carried, when given, is folded into NetFinal.
func AggregateStatement(scope Scope, period Interval, fees []core.FeeEntry, expenses []core.Expense, carried *core.Money) Statement {
	st := Statement{
		Scope:    scope,
		Period:   period,
		Fees:     []FeeLine{},
		Expenses: []core.Expense{},
	}

	for _, f := range fees {
		if !period.Contains(f.Date) {
			continue
		}
		if scope.Kind == ScopeClient && f.ClientID != scope.ClientID {
			continue
		}
		received := f.Received()
		st.Fees = append(st.Fees, FeeLine{Fee: f, Received: received})
		st.TotalFees = st.TotalFees.Add(received)
	}

	bucket := scope.Bucket()
	for _, e := range expenses {
		if !e.IsLive() || e.Bucket != bucket || !period.Contains(e.Date) {
			continue
		}
		if scope.Kind == ScopeClient && e.ClientID != scope.ClientID {
			continue
		}
		st.Expenses = append(st.Expenses, e)
		st.TotalExpenses = st.TotalExpenses.Add(e.Amount)
	}

	sort.SliceStable(st.Fees, func(i, j int) bool {
		return lessByDateID(st.Fees[i].Fee.Date, st.Fees[i].Fee.ID, st.Fees[j].Fee.Date, st.Fees[j].Fee.ID)
	})
	sort.SliceStable(st.Expenses, func(i, j int) bool {
		return lessByDateID(st.Expenses[i].Date, st.Expenses[i].ID, st.Expenses[j].Date, st.Expenses[j].ID)
	})

	st.Net = st.TotalFees.Sub(st.TotalExpenses)
	if carried != nil {
		c := *carried
		final := st.Net.Add(c)
		st.Carried = &c
		st.NetFinal = &final
	}
	return st
}

func lessByDateID(a core.Date, aID int64, b core.Date, bID int64) bool {
	if !a.Equal(b.Time) {
		return a.Before(b)
	}
	return aID < bID
}
