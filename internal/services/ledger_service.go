package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"honoraires/internal/amqp"
	"honoraires/internal/core"
	"honoraires/internal/ledger"
)

// LedgerService runs the ledger engine against a store. Every committed write
// is announced on the event publisher; a failed publish is logged and never
// fails the write.
type LedgerService struct {
	store   LedgerStore
	events  EventPublisher
	clients *ClientDirectory
	now     func() time.Time
}

func NewLedgerService(store LedgerStore, events EventPublisher, clients *ClientDirectory) *LedgerService {
	if clients == nil {
		clients = NewClientDirectory(store, 0, 0)
	}
	return &LedgerService{
		store:   store,
		events:  events,
		clients: clients,
		now:     time.Now,
	}
}

// Clients exposes the cached client directory the service validates against.
func (s *LedgerService) Clients() *ClientDirectory { return s.clients }

// Ready reports whether the store answers.
func (s *LedgerService) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ResolvePeriod turns a filter into an inclusive interval.
func (s *LedgerService) ResolvePeriod(f ledger.Filter) (ledger.Interval, error) {
	return ledger.ResolvePeriod(f)
}

// ComputeYearBalances rolls the client's monthly records for year forward
// from opening, or from zero when opening is nil.
func (s *LedgerService) ComputeYearBalances(ctx context.Context, clientID int64, year int, opening *core.Money) (ledger.YearBalances, error) {
	if year < 1 {
		return ledger.YearBalances{}, fmt.Errorf("%w: %d", core.ErrInvalidYear, year)
	}
	if _, err := s.clients.Get(ctx, clientID); err != nil {
		return ledger.YearBalances{}, err
	}

	records, err := s.store.ListMonthlyCharges(ctx, clientID, year, year)
	if err != nil {
		return ledger.YearBalances{}, fmt.Errorf("load monthly charges: %w", err)
	}

	var start core.Money
	if opening != nil {
		start = *opening
	}
	return ledger.ComputeYearBalances(clientID, year, records, start), nil
}

// CarriedBalance is the closing remainder of year-1, obtained by chaining
// every year from the client's first charged year.
func (s *LedgerService) CarriedBalance(ctx context.Context, clientID int64, year int) (core.Money, error) {
	if year < 1 {
		return core.Money{}, fmt.Errorf("%w: %d", core.ErrInvalidYear, year)
	}
	if _, err := s.clients.Get(ctx, clientID); err != nil {
		return core.Money{}, err
	}

	first, err := s.store.FirstChargedYear(ctx, clientID)
	if err != nil {
		return core.Money{}, fmt.Errorf("first charged year: %w", err)
	}
	if first == 0 || first >= year {
		return core.Money{}, nil
	}

	records, err := s.store.ListMonthlyCharges(ctx, clientID, first, year-1)
	if err != nil {
		return core.Money{}, fmt.Errorf("load monthly charges: %w", err)
	}
	return ledger.CarryForward(clientID, first, year-1, records), nil
}

// AggregateStatement builds the statement of scope over iv.
func (s *LedgerService) AggregateStatement(ctx context.Context, scope ledger.Scope, iv ledger.Interval, carried *core.Money) (ledger.Statement, error) {
	if err := scope.Validate(); err != nil {
		return ledger.Statement{}, err
	}
	if iv.Start.After(iv.End) {
		return ledger.Statement{}, fmt.Errorf("%w: %s", core.ErrInvalidRange, iv)
	}
	if scope.Kind == ledger.ScopeClient {
		if _, err := s.clients.Get(ctx, scope.ClientID); err != nil {
			return ledger.Statement{}, err
		}
	}

	fees, err := s.store.ListFees(ctx, iv)
	if err != nil {
		return ledger.Statement{}, fmt.Errorf("load fees: %w", err)
	}
	expenses, err := s.store.ListExpenses(ctx, iv)
	if err != nil {
		return ledger.Statement{}, fmt.Errorf("load expenses: %w", err)
	}
	return ledger.AggregateStatement(scope, iv, fees, expenses, carried), nil
}

// ClientStatement resolves f and aggregates the client's statement. With
// withCarry on a month or year filter, the carried balance of that year is
// folded into the net.
func (s *LedgerService) ClientStatement(ctx context.Context, clientID int64, f ledger.Filter, withCarry bool) (ledger.Statement, error) {
	iv, err := ledger.ResolvePeriod(f)
	if err != nil {
		return ledger.Statement{}, err
	}

	var carried *core.Money
	if withCarry && (f.Kind == ledger.FilterMonth || f.Kind == ledger.FilterYear) {
		c, err := s.CarriedBalance(ctx, clientID, f.Year)
		if err != nil {
			return ledger.Statement{}, err
		}
		carried = &c
	}
	return s.AggregateStatement(ctx, ledger.ClientScope(clientID), iv, carried)
}

// Expenses

func (s *LedgerService) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	return s.store.GetExpense(ctx, id)
}

// RecordClientExpense stores a live expense charged to clientID.
func (s *LedgerService) RecordClientExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.Bucket = core.ClientCharge
	return s.recordExpense(ctx, e)
}

// RecordOfficeExpense stores a live expense borne by the office.
func (s *LedgerService) RecordOfficeExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.Bucket = core.OfficeCharge
	return s.recordExpense(ctx, e)
}

func (s *LedgerService) recordExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.ID = 0
	e.Status = core.StatusLive
	e.OriginID = 0
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.ClientID != 0 {
		if _, err := s.clients.Get(ctx, e.ClientID); err != nil {
			return core.Expense{}, err
		}
	}

	saved, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	ev := amqp.NewLedgerEvent(amqp.EventExpenseRecorded, saved.ClientID, saved.Date.Year())
	ev.ExpenseID = saved.ID
	s.publish(ctx, ev)
	return saved, nil
}

// AssignToOffice moves a client charge to the office bucket and returns the
// office copy.
func (s *LedgerService) AssignToOffice(ctx context.Context, expenseID int64, beneficiary string) (core.Expense, error) {
	e, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return core.Expense{}, err
	}
	tr, err := ledger.PlanAssignToOffice(e, beneficiary)
	if err != nil {
		return core.Expense{}, err
	}

	office, err := s.store.ApplyTransition(ctx, tr)
	if err != nil {
		return core.Expense{}, fmt.Errorf("assign expense %d to office: %w", expenseID, err)
	}

	ev := amqp.NewLedgerEvent(amqp.EventExpenseToOffice, e.ClientID, e.Date.Year())
	ev.ExpenseID = office.ID
	s.publish(ctx, ev)
	return office, nil
}

// ReturnToClientCharge removes an office copy and brings its client original back.
func (s *LedgerService) ReturnToClientCharge(ctx context.Context, expenseID int64) error {
	e, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return err
	}
	original, err := s.originOf(ctx, e)
	if err != nil {
		return err
	}
	tr, err := ledger.PlanReturnToClientCharge(e, original)
	if err != nil {
		return err
	}

	restored, err := s.store.ApplyTransition(ctx, tr)
	if err != nil {
		return fmt.Errorf("return expense %d to client: %w", expenseID, err)
	}

	ev := amqp.NewLedgerEvent(amqp.EventExpenseToClient, restored.ClientID, restored.Date.Year())
	ev.ExpenseID = restored.ID
	s.publish(ctx, ev)
	return nil
}

// DeleteExpense permanently removes a live expense. Callers confirm intent
// before calling.
func (s *LedgerService) DeleteExpense(ctx context.Context, expenseID int64) error {
	e, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return err
	}
	original, err := s.originOf(ctx, e)
	if err != nil {
		return err
	}
	tr, err := ledger.PlanDelete(e, original)
	if err != nil {
		return err
	}

	if _, err := s.store.ApplyTransition(ctx, tr); err != nil {
		return fmt.Errorf("delete expense %d: %w", expenseID, err)
	}

	ev := amqp.NewLedgerEvent(amqp.EventExpenseDeleted, e.ClientID, e.Date.Year())
	ev.ExpenseID = e.ID
	s.publish(ctx, ev)
	return nil
}

// originOf loads the client original behind an office copy. A missing
// original is not an error here; the planner decides what it means.
func (s *LedgerService) originOf(ctx context.Context, e core.Expense) (*core.Expense, error) {
	if !e.HasProvenance() {
		return nil, nil
	}
	o, err := s.store.GetExpense(ctx, e.OriginID)
	if errors.Is(err, core.ErrEntryNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Monthly charges

// RegisterMonthlyCharge creates the record for one client month. Each
// (client, year, month) exists at most once.
func (s *LedgerService) RegisterMonthlyCharge(ctx context.Context, mc core.MonthlyCharge) (core.MonthlyCharge, error) {
	if err := mc.Validate(); err != nil {
		return core.MonthlyCharge{}, err
	}
	if _, err := s.clients.Get(ctx, mc.ClientID); err != nil {
		return core.MonthlyCharge{}, err
	}
	if err := s.store.InsertMonthlyCharge(ctx, mc); err != nil {
		return core.MonthlyCharge{}, err
	}

	ev := amqp.NewLedgerEvent(amqp.EventChargeRegistered, mc.ClientID, mc.Year)
	ev.Month = mc.Month
	s.publish(ctx, ev)
	return mc, nil
}

// AddAdvance adds a payment on account to an existing month.
func (s *LedgerService) AddAdvance(ctx context.Context, clientID int64, year, month int, amount core.Money) (core.MonthlyCharge, error) {
	if amount.Millimes <= 0 {
		return core.MonthlyCharge{}, core.ErrAdvanceNotAllowed
	}
	if err := validateYearMonth(year, month); err != nil {
		return core.MonthlyCharge{}, err
	}

	mc, err := s.store.AddAdvance(ctx, clientID, year, month, amount)
	if err != nil {
		return core.MonthlyCharge{}, err
	}

	ev := amqp.NewLedgerEvent(amqp.EventAdvanceAdded, clientID, year)
	ev.Month = month
	s.publish(ctx, ev)
	return mc, nil
}

// RemoveMonth deletes one month record; later remainders shift accordingly.
func (s *LedgerService) RemoveMonth(ctx context.Context, clientID int64, year, month int) error {
	if err := validateYearMonth(year, month); err != nil {
		return err
	}
	if err := s.store.DeleteMonthlyCharge(ctx, clientID, year, month); err != nil {
		return err
	}

	ev := amqp.NewLedgerEvent(amqp.EventChargeRemoved, clientID, year)
	ev.Month = month
	s.publish(ctx, ev)
	return nil
}

func (s *LedgerService) ListMonthlyCharges(ctx context.Context, clientID int64, year int) ([]core.MonthlyCharge, error) {
	if year < 1 {
		return nil, fmt.Errorf("%w: %d", core.ErrInvalidYear, year)
	}
	return s.store.ListMonthlyCharges(ctx, clientID, year, year)
}

func validateYearMonth(year, month int) error {
	if year < 1 {
		return fmt.Errorf("%w: %d", core.ErrInvalidYear, year)
	}
	if month < 1 || month > core.SettlementMonth {
		return fmt.Errorf("%w: %d", core.ErrInvalidMonth, month)
	}
	return nil
}

// Fees

func (s *LedgerService) RecordFee(ctx context.Context, f core.FeeEntry) (core.FeeEntry, error) {
	f.ID = 0
	f.Printed = false
	if err := f.Validate(); err != nil {
		return core.FeeEntry{}, err
	}
	if _, err := s.clients.Get(ctx, f.ClientID); err != nil {
		return core.FeeEntry{}, err
	}

	saved, err := s.store.CreateFee(ctx, f)
	if err != nil {
		return core.FeeEntry{}, fmt.Errorf("save fee: %w", err)
	}

	ev := amqp.NewLedgerEvent(amqp.EventFeeRecorded, saved.ClientID, saved.Date.Year())
	ev.FeeID = saved.ID
	s.publish(ctx, ev)
	return saved, nil
}

// AmendFee rewrites date, label and amounts of a fee that has no receipt yet.
func (s *LedgerService) AmendFee(ctx context.Context, f core.FeeEntry) (core.FeeEntry, error) {
	current, err := s.store.GetFee(ctx, f.ID)
	if err != nil {
		return core.FeeEntry{}, err
	}
	if current.Printed {
		return core.FeeEntry{}, fmt.Errorf("%w: fee %d", core.ErrFeeLocked, f.ID)
	}
	f.ClientID = current.ClientID
	if err := f.Validate(); err != nil {
		return core.FeeEntry{}, err
	}

	saved, err := s.store.UpdateFee(ctx, f)
	if err != nil {
		return core.FeeEntry{}, err
	}

	ev := amqp.NewLedgerEvent(amqp.EventFeeAmended, saved.ClientID, saved.Date.Year())
	ev.FeeID = saved.ID
	s.publish(ctx, ev)
	return saved, nil
}

// PrintReceipt records a receipt for the fee and locks it. A nil amount
// prints the fee's received amount.
func (s *LedgerService) PrintReceipt(ctx context.Context, feeID int64, amount *core.Money) (core.Receipt, error) {
	fee, err := s.store.GetFee(ctx, feeID)
	if err != nil {
		return core.Receipt{}, err
	}
	value := fee.Received()
	if amount != nil {
		value = *amount
	}
	if err := value.Validate(); err != nil {
		return core.Receipt{}, err
	}

	rc, err := s.store.CreateReceipt(ctx, feeID, value, s.now())
	if err != nil {
		return core.Receipt{}, err
	}

	ev := amqp.NewLedgerEvent(amqp.EventReceiptPrinted, fee.ClientID, fee.Date.Year())
	ev.FeeID = feeID
	s.publish(ctx, ev)
	return rc, nil
}

func (s *LedgerService) ListReceipts(ctx context.Context, feeID int64) ([]core.Receipt, error) {
	if _, err := s.store.GetFee(ctx, feeID); err != nil {
		return nil, err
	}
	return s.store.ListReceipts(ctx, feeID)
}

// Clients

func (s *LedgerService) CreateClient(ctx context.Context, c core.Client) (core.Client, error) {
	saved, err := s.clients.Create(ctx, c)
	if err != nil {
		return core.Client{}, err
	}
	s.publish(ctx, amqp.NewLedgerEvent(amqp.EventClientCreated, saved.ID, 0))
	return saved, nil
}

func (s *LedgerService) publish(ctx context.Context, ev amqp.LedgerEvent) {
	if s.events == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping ledger event", "type", string(ev.Type))
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, ev); err != nil {
		// The write is committed; consumers catch up on the next full export.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"event_id", ev.ID,
			"type", string(ev.Type),
			"client_id", ev.ClientID,
			"error", err)
	}
}

// Close closes the store.
func (s *LedgerService) Close() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}
