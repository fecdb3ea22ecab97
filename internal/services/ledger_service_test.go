package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honoraires/internal/amqp"
	"honoraires/internal/core"
	"honoraires/internal/ledger"
	"honoraires/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, ev amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type fixture struct {
	svc    *LedgerService
	store  *memory.Store
	events *recordingPublisher
	client core.Client
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.New()
	events := &recordingPublisher{}
	svc := NewLedgerService(store, events, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }

	c, err := svc.CreateClient(context.Background(), core.Client{Name: "Dupont"})
	require.NoError(t, err)
	return fixture{svc: svc, store: store, events: events, client: c}
}

func TestComputeYearBalances_JanFeb(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.RegisterMonthlyCharge(ctx, core.MonthlyCharge{ClientID: f.client.ID, Year: 2024, Month: 1, Charge: core.MustParseAmount("100.000")})
	require.NoError(t, err)
	_, err = f.svc.AddAdvance(ctx, f.client.ID, 2024, 1, core.MustParseAmount("40.000"))
	require.NoError(t, err)
	_, err = f.svc.RegisterMonthlyCharge(ctx, core.MonthlyCharge{ClientID: f.client.ID, Year: 2024, Month: 2, Charge: core.MustParseAmount("50.000"), Advance: core.MustParseAmount("50.000")})
	require.NoError(t, err)

	yb, err := f.svc.ComputeYearBalances(ctx, f.client.ID, 2024, nil)
	require.NoError(t, err)
	require.Len(t, yb.Months, 2)
	assert.Equal(t, "60.000", yb.Months[0].Remaining.String())
	assert.Equal(t, "60.000", yb.Months[1].Remaining.String())

	opening := core.MustParseAmount("5")
	yb, err = f.svc.ComputeYearBalances(ctx, f.client.ID, 2024, &opening)
	require.NoError(t, err)
	assert.Equal(t, "65.000", yb.Closing.String())

	_, err = f.svc.ComputeYearBalances(ctx, 999, 2024, nil)
	require.ErrorIs(t, err, core.ErrEntryNotFound)

	_, err = f.svc.RegisterMonthlyCharge(ctx, core.MonthlyCharge{ClientID: f.client.ID, Year: 2024, Month: 1})
	require.ErrorIs(t, err, core.ErrDuplicateMonth)

	_, err = f.svc.AddAdvance(ctx, f.client.ID, 2024, 1, core.Money{})
	require.ErrorIs(t, err, core.ErrAdvanceNotAllowed)
}

func TestCarriedBalanceChainsYears(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.client.ID

	for _, mc := range []core.MonthlyCharge{
		{ClientID: id, Year: 2022, Month: 3, Charge: core.MustParseAmount("30")},
		{ClientID: id, Year: 2023, Month: 1, Charge: core.MustParseAmount("100"), Advance: core.MustParseAmount("20")},
		{ClientID: id, Year: 2023, Month: core.SettlementMonth, Advance: core.MustParseAmount("50")},
		{ClientID: id, Year: 2024, Month: 6, Charge: core.MustParseAmount("999")},
	} {
		_, err := f.svc.RegisterMonthlyCharge(ctx, mc)
		require.NoError(t, err)
	}

	carried, err := f.svc.CarriedBalance(ctx, id, 2024)
	require.NoError(t, err)
	assert.Equal(t, "60.000", carried.String())

	first, err := f.svc.CarriedBalance(ctx, id, 2022)
	require.NoError(t, err)
	assert.True(t, first.IsZero())

	// Closing of 2023 computed with its own carry must equal the 2024 opening.
	open2023, err := f.svc.CarriedBalance(ctx, id, 2023)
	require.NoError(t, err)
	yb, err := f.svc.ComputeYearBalances(ctx, id, 2023, &open2023)
	require.NoError(t, err)
	assert.Equal(t, carried, yb.Closing)
}

func TestReclassificationRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	orig, err := f.svc.RecordClientExpense(ctx, core.Expense{
		Date:        core.NewDate(2024, 3, 5),
		Label:       "Transport",
		Amount:      core.MustParseAmount("12.500"),
		Beneficiary: "Dupont",
		ClientID:    f.client.ID,
	})
	require.NoError(t, err)

	march, err := f.svc.ResolvePeriod(ledger.MonthFilter(3, 2024))
	require.NoError(t, err)
	before, err := f.svc.AggregateStatement(ctx, ledger.ClientScope(f.client.ID), march, nil)
	require.NoError(t, err)
	require.Len(t, before.Expenses, 1)

	office, err := f.svc.AssignToOffice(ctx, orig.ID, "Dupont")
	require.NoError(t, err)
	assert.Equal(t, "[CGM] Transport (Dupont)", office.Label)

	clientSt, err := f.svc.AggregateStatement(ctx, ledger.ClientScope(f.client.ID), march, nil)
	require.NoError(t, err)
	assert.Empty(t, clientSt.Expenses, "assigned expense leaves the client statement")

	officeSt, err := f.svc.AggregateStatement(ctx, ledger.OfficeScope(), march, nil)
	require.NoError(t, err)
	require.Len(t, officeSt.Expenses, 1)
	assert.Equal(t, office.ID, officeSt.Expenses[0].ID)

	_, err = f.svc.AssignToOffice(ctx, orig.ID, "Dupont")
	require.ErrorIs(t, err, core.ErrInvalidTransition, "a shadowed original cannot be assigned twice")

	require.NoError(t, f.svc.ReturnToClientCharge(ctx, office.ID))

	after, err := f.svc.AggregateStatement(ctx, ledger.ClientScope(f.client.ID), march, nil)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	officeAfter, err := f.svc.AggregateStatement(ctx, ledger.OfficeScope(), march, nil)
	require.NoError(t, err)
	assert.Empty(t, officeAfter.Expenses)

	assert.Equal(t, []amqp.EventType{
		amqp.EventClientCreated,
		amqp.EventExpenseRecorded,
		amqp.EventExpenseToOffice,
		amqp.EventExpenseToClient,
	}, f.events.types())
}

func TestReturnToClientCharge_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	native, err := f.svc.RecordOfficeExpense(ctx, core.Expense{
		Date: core.NewDate(2024, 3, 1), Label: "Loyer", Amount: core.MustParseAmount("300"),
	})
	require.NoError(t, err)
	require.ErrorIs(t, f.svc.ReturnToClientCharge(ctx, native.ID), core.ErrInvalidTransition)

	// An office copy whose original was removed behind the engine's back.
	orphan, err := f.store.CreateExpense(ctx, core.Expense{
		Date: core.NewDate(2024, 3, 2), Label: "[CGM] Timbres", Amount: core.MustParseAmount("3"),
		Bucket: core.OfficeCharge, OriginID: 4242,
	})
	require.NoError(t, err)
	require.ErrorIs(t, f.svc.ReturnToClientCharge(ctx, orphan.ID), core.ErrOriginalChargeMissing)

	require.ErrorIs(t, f.svc.ReturnToClientCharge(ctx, 999999), core.ErrEntryNotFound)
}

func TestDeleteExpense(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	e, err := f.svc.RecordClientExpense(ctx, core.Expense{
		Date: core.NewDate(2024, 3, 5), Label: "Transport", Amount: core.MustParseAmount("7"), ClientID: f.client.ID,
	})
	require.NoError(t, err)
	office, err := f.svc.AssignToOffice(ctx, e.ID, "")
	require.NoError(t, err)

	require.ErrorIs(t, f.svc.DeleteExpense(ctx, e.ID), core.ErrInvalidTransition, "shadowed records are not deletable")
	require.NoError(t, f.svc.DeleteExpense(ctx, office.ID))

	_, err = f.svc.GetExpense(ctx, e.ID)
	require.ErrorIs(t, err, core.ErrEntryNotFound)
	require.ErrorIs(t, f.svc.DeleteExpense(ctx, office.ID), core.ErrEntryNotFound)
}

func TestFeesAndReceipts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	fee, err := f.svc.RecordFee(ctx, core.FeeEntry{
		ClientID: f.client.ID,
		Date:     core.NewDate(2024, 4, 2),
		Label:    "Bilan 2023",
		Charged:  core.MustParseAmount("500"),
		Advanced: core.MustParseAmount("200"),
	})
	require.NoError(t, err)
	assert.Equal(t, "300.000", fee.Remainder().String())

	fee.Charged = core.MustParseAmount("450")
	fee.ClientID = 0
	amended, err := f.svc.AmendFee(ctx, fee)
	require.NoError(t, err)
	assert.Equal(t, f.client.ID, amended.ClientID, "amending never moves a fee to another client")
	assert.Equal(t, "450.000", amended.Charged.String())

	rc, err := f.svc.PrintReceipt(ctx, fee.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "450.000", rc.Amount.String())

	_, err = f.svc.AmendFee(ctx, fee)
	require.ErrorIs(t, err, core.ErrFeeLocked)

	receipts, err := f.svc.ListReceipts(ctx, fee.ID)
	require.NoError(t, err)
	assert.Len(t, receipts, 1)

	zero := core.Money{}
	_, err = f.svc.PrintReceipt(ctx, fee.ID, &zero)
	require.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = f.svc.RecordFee(ctx, core.FeeEntry{ClientID: 999, Date: core.NewDate(2024, 1, 1), Label: "x", Charged: core.MustParseAmount("1")})
	require.ErrorIs(t, err, core.ErrEntryNotFound)
}

func TestClientStatementWithCarry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.client.ID

	_, err := f.svc.RegisterMonthlyCharge(ctx, core.MonthlyCharge{ClientID: id, Year: 2023, Month: 12, Charge: core.MustParseAmount("40")})
	require.NoError(t, err)
	_, err = f.svc.RecordFee(ctx, core.FeeEntry{ClientID: id, Date: core.NewDate(2024, 2, 10), Label: "Tenue", Charged: core.MustParseAmount("100")})
	require.NoError(t, err)
	_, err = f.svc.RecordClientExpense(ctx, core.Expense{Date: core.NewDate(2024, 2, 11), Label: "Timbres", Amount: core.MustParseAmount("10"), ClientID: id})
	require.NoError(t, err)

	st, err := f.svc.ClientStatement(ctx, id, ledger.MonthFilter(2, 2024), true)
	require.NoError(t, err)
	assert.Equal(t, "90.000", st.Net.String())
	require.NotNil(t, st.NetFinal)
	assert.Equal(t, "130.000", st.NetFinal.String())

	day, err := f.svc.ClientStatement(ctx, id, ledger.DayFilter(core.NewDate(2024, 2, 10)), true)
	require.NoError(t, err)
	assert.Nil(t, day.Carried, "carry only applies to month and year views")
	assert.Equal(t, "100.000", day.Net.String())

	_, err = f.svc.ClientStatement(ctx, id, ledger.RangeFilter(core.NewDate(2024, 3, 1), core.NewDate(2024, 2, 1)), false)
	require.ErrorIs(t, err, core.ErrInvalidRange)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.events.err = errors.New("connection refused")

	fee, err := f.svc.RecordFee(ctx, core.FeeEntry{ClientID: f.client.ID, Date: core.NewDate(2024, 1, 1), Label: "x", Charged: core.MustParseAmount("1")})
	require.NoError(t, err)
	assert.NotZero(t, fee.ID)

	noBroker := NewLedgerService(f.store, nil, nil)
	_, err = noBroker.RecordOfficeExpense(ctx, core.Expense{Date: core.NewDate(2024, 1, 2), Label: "Papier", Amount: core.MustParseAmount("4")})
	require.NoError(t, err)
}
