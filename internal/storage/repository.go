package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"honoraires/internal/core"
	"honoraires/internal/ledger"

	_ "modernc.org/sqlite"
)

const dayLayout = "2006-01-02"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

// DSN adds the connection pragmas the ledger relies on: foreign keys, a busy
// timeout and immediate write transactions.
func DSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", DSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database still answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return persistence("ping", err)
	}
	return nil
}

// withTx runs fn inside one transaction. Any error rolls everything back.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return persistence("begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(r.queries.WithTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return persistence("commit transaction", err)
	}
	return nil
}

func persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", core.ErrPersistence, op, err)
}

func notFoundOr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", core.ErrEntryNotFound, op)
	}
	return persistence(op, err)
}

// Clients

func (r *SQLiteRepository) CreateClient(ctx context.Context, c core.Client) (core.Client, error) {
	row, err := r.queries.CreateClient(ctx, CreateClientParams{
		Name:    c.Name,
		Phone:   c.Phone,
		Email:   c.Email,
		Address: c.Address,
	})
	if err != nil {
		return core.Client{}, persistence("create client", err)
	}

	slog.InfoContext(ctx, "Client saved to SQLite", "client_id", row.ID, "name", row.Name)
	return toClient(row), nil
}

func (r *SQLiteRepository) GetClient(ctx context.Context, id int64) (core.Client, error) {
	row, err := r.queries.GetClient(ctx, id)
	if err != nil {
		return core.Client{}, notFoundOr(fmt.Sprintf("client %d", id), err)
	}
	return toClient(row), nil
}

func (r *SQLiteRepository) ListClients(ctx context.Context) ([]core.Client, error) {
	rows, err := r.queries.ListClients(ctx)
	if err != nil {
		return nil, persistence("list clients", err)
	}
	out := make([]core.Client, len(rows))
	for i, row := range rows {
		out[i] = toClient(row)
	}
	return out, nil
}

// Monthly charges

func (r *SQLiteRepository) InsertMonthlyCharge(ctx context.Context, mc core.MonthlyCharge) error {
	n, err := r.queries.InsertMonthlyCharge(ctx, InsertMonthlyChargeParams{
		ClientID:        mc.ClientID,
		Year:            int64(mc.Year),
		Month:           int64(mc.Month),
		ChargeMillimes:  mc.Charge.Millimes,
		AdvanceMillimes: mc.Advance.Millimes,
	})
	if err != nil {
		return persistence("insert monthly charge", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: client %d %d/%s", core.ErrDuplicateMonth, mc.ClientID, mc.Year, core.MonthLabel(mc.Month))
	}

	slog.InfoContext(ctx, "Monthly charge saved to SQLite",
		"client_id", mc.ClientID,
		"year", mc.Year,
		"month", core.MonthLabel(mc.Month),
		"charge_millimes", mc.Charge.Millimes,
		"advance_millimes", mc.Advance.Millimes)
	return nil
}

func (r *SQLiteRepository) AddAdvance(ctx context.Context, clientID int64, year, month int, amount core.Money) (core.MonthlyCharge, error) {
	row, err := r.queries.AddMonthlyAdvance(ctx, AddMonthlyAdvanceParams{
		AdvanceMillimes: amount.Millimes,
		ClientID:        clientID,
		Year:            int64(year),
		Month:           int64(month),
	})
	if err != nil {
		return core.MonthlyCharge{}, notFoundOr(fmt.Sprintf("monthly charge %d %d/%s", clientID, year, core.MonthLabel(month)), err)
	}

	slog.InfoContext(ctx, "Advance added",
		"client_id", clientID,
		"year", year,
		"month", core.MonthLabel(month),
		"amount_millimes", amount.Millimes)
	return toMonthlyCharge(row), nil
}

func (r *SQLiteRepository) DeleteMonthlyCharge(ctx context.Context, clientID int64, year, month int) error {
	n, err := r.queries.DeleteMonthlyCharge(ctx, DeleteMonthlyChargeParams{
		ClientID: clientID,
		Year:     int64(year),
		Month:    int64(month),
	})
	if err != nil {
		return persistence("delete monthly charge", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: monthly charge %d %d/%s", core.ErrEntryNotFound, clientID, year, core.MonthLabel(month))
	}

	slog.InfoContext(ctx, "Monthly charge removed", "client_id", clientID, "year", year, "month", core.MonthLabel(month))
	return nil
}

// ListMonthlyCharges returns the client's records with fromYear <= year <= toYear.
func (r *SQLiteRepository) ListMonthlyCharges(ctx context.Context, clientID int64, fromYear, toYear int) ([]core.MonthlyCharge, error) {
	rows, err := r.queries.ListMonthlyCharges(ctx, ListMonthlyChargesParams{
		ClientID: clientID,
		FromYear: int64(fromYear),
		ToYear:   int64(toYear),
	})
	if err != nil {
		return nil, persistence("list monthly charges", err)
	}
	out := make([]core.MonthlyCharge, len(rows))
	for i, row := range rows {
		out[i] = toMonthlyCharge(row)
	}
	return out, nil
}

// FirstChargedYear returns 0 when the client has no monthly record at all.
func (r *SQLiteRepository) FirstChargedYear(ctx context.Context, clientID int64) (int, error) {
	y, err := r.queries.FirstChargedYear(ctx, clientID)
	if err != nil {
		return 0, persistence("first charged year", err)
	}
	return int(y), nil
}

// Fees

func (r *SQLiteRepository) CreateFee(ctx context.Context, f core.FeeEntry) (core.FeeEntry, error) {
	row, err := r.queries.CreateFee(ctx, CreateFeeParams{
		ClientID:         f.ClientID,
		Day:              f.Date.String(),
		Label:            f.Label,
		ChargedMillimes:  f.Charged.Millimes,
		AdvancedMillimes: f.Advanced.Millimes,
	})
	if err != nil {
		return core.FeeEntry{}, persistence("create fee", err)
	}

	slog.InfoContext(ctx, "Fee saved to SQLite",
		"fee_id", row.ID,
		"client_id", row.ClientID,
		"day", row.Day,
		"charged_millimes", row.ChargedMillimes,
		"advanced_millimes", row.AdvancedMillimes)
	return toFee(row)
}

func (r *SQLiteRepository) GetFee(ctx context.Context, id int64) (core.FeeEntry, error) {
	row, err := r.queries.GetFee(ctx, id)
	if err != nil {
		return core.FeeEntry{}, notFoundOr(fmt.Sprintf("fee %d", id), err)
	}
	return toFee(row)
}

// UpdateFee rewrites an unprinted fee. Printed fees are frozen.
func (r *SQLiteRepository) UpdateFee(ctx context.Context, f core.FeeEntry) (core.FeeEntry, error) {
	var out core.FeeEntry
	err := r.withTx(ctx, func(q *Queries) error {
		current, err := q.GetFee(ctx, f.ID)
		if err != nil {
			return notFoundOr(fmt.Sprintf("fee %d", f.ID), err)
		}
		if current.Printed != 0 {
			return fmt.Errorf("%w: fee %d", core.ErrFeeLocked, f.ID)
		}
		row, err := q.UpdateUnprintedFee(ctx, UpdateUnprintedFeeParams{
			Day:              f.Date.String(),
			Label:            f.Label,
			ChargedMillimes:  f.Charged.Millimes,
			AdvancedMillimes: f.Advanced.Millimes,
			ID:               f.ID,
		})
		if err != nil {
			return persistence("update fee", err)
		}
		out, err = toFee(row)
		return err
	})
	if err != nil {
		return core.FeeEntry{}, err
	}

	slog.InfoContext(ctx, "Fee amended", "fee_id", out.ID, "client_id", out.ClientID)
	return out, nil
}

// ListFees returns every fee dated inside iv, all clients included.
func (r *SQLiteRepository) ListFees(ctx context.Context, iv ledger.Interval) ([]core.FeeEntry, error) {
	rows, err := r.queries.ListFeesBetween(ctx, ListFeesBetweenParams{
		FromDay: iv.Start.String(),
		ToDay:   iv.End.String(),
	})
	if err != nil {
		return nil, persistence("list fees", err)
	}
	out := make([]core.FeeEntry, 0, len(rows))
	for _, row := range rows {
		f, err := toFee(row)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// CreateReceipt records a printed receipt and locks the fee in the same transaction.
func (r *SQLiteRepository) CreateReceipt(ctx context.Context, feeID int64, amount core.Money, at time.Time) (core.Receipt, error) {
	var out core.Receipt
	err := r.withTx(ctx, func(q *Queries) error {
		if _, err := q.GetFee(ctx, feeID); err != nil {
			return notFoundOr(fmt.Sprintf("fee %d", feeID), err)
		}
		row, err := q.CreateReceipt(ctx, CreateReceiptParams{
			FeeID:          feeID,
			AmountMillimes: amount.Millimes,
			PrintedAt:      at.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return persistence("create receipt", err)
		}
		if err := q.MarkFeePrinted(ctx, feeID); err != nil {
			return persistence("mark fee printed", err)
		}
		out, err = toReceipt(row)
		return err
	})
	if err != nil {
		return core.Receipt{}, err
	}

	slog.InfoContext(ctx, "Receipt printed", "receipt_id", out.ID, "fee_id", feeID, "amount_millimes", amount.Millimes)
	return out, nil
}

func (r *SQLiteRepository) ListReceipts(ctx context.Context, feeID int64) ([]core.Receipt, error) {
	rows, err := r.queries.ListReceipts(ctx, feeID)
	if err != nil {
		return nil, persistence("list receipts", err)
	}
	out := make([]core.Receipt, 0, len(rows))
	for _, row := range rows {
		rc, err := toReceipt(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, nil
}

// Expenses

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	row, err := r.queries.CreateExpense(ctx, createExpenseParams(e))
	if err != nil {
		return core.Expense{}, persistence("create expense", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"expense_id", row.ID,
		"bucket", row.Bucket,
		"label", row.Label,
		"amount_millimes", row.AmountMillimes,
		"day", row.Day)
	return toExpense(row)
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, notFoundOr(fmt.Sprintf("expense %d", id), err)
	}
	return toExpense(row)
}

// ListExpenses returns every expense dated inside iv, shadowed ones included.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, iv ledger.Interval) ([]core.Expense, error) {
	rows, err := r.queries.ListExpensesBetween(ctx, ListExpensesBetweenParams{
		FromDay: iv.Start.String(),
		ToDay:   iv.End.String(),
	})
	if err != nil {
		return nil, persistence("list expenses", err)
	}
	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := toExpense(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// ApplyTransition commits a planned bucket change atomically. Every step is a
// conditional write; a record that changed state since it was read makes the
// whole transition fail and nothing is written.
func (r *SQLiteRepository) ApplyTransition(ctx context.Context, tr ledger.Transition) (core.Expense, error) {
	result := tr.Subject
	err := r.withTx(ctx, func(q *Queries) error {
		if tr.Shadow != 0 {
			n, err := q.ShadowLiveClientExpense(ctx, tr.Shadow)
			if err != nil {
				return persistence("shadow expense", err)
			}
			if n == 0 {
				return fmt.Errorf("%w: expense %d is no longer a live client charge", core.ErrInvalidTransition, tr.Shadow)
			}
		}

		if tr.Create != nil {
			row, err := q.CreateExpense(ctx, createExpenseParams(*tr.Create))
			if err != nil {
				return persistence("create office expense", err)
			}
			if result, err = toExpense(row); err != nil {
				return err
			}
		}

		if tr.Restore != 0 {
			n, err := q.RestoreShadowedExpense(ctx, tr.Restore)
			if err != nil {
				return persistence("restore expense", err)
			}
			if n == 0 {
				return fmt.Errorf("%w: expense %d", core.ErrOriginalChargeMissing, tr.Restore)
			}
			row, err := q.GetExpense(ctx, tr.Restore)
			if err != nil {
				return persistence("reload restored expense", err)
			}
			if result, err = toExpense(row); err != nil {
				return err
			}
		}

		for _, id := range tr.Remove {
			status := core.StatusShadowed
			if id == tr.Subject.ID {
				status = core.StatusLive
			}
			n, err := q.DeleteExpense(ctx, DeleteExpenseParams{ID: id, Status: string(status)})
			if err != nil {
				return persistence("delete expense", err)
			}
			if n == 0 {
				return fmt.Errorf("%w: expense %d is no longer %s", core.ErrInvalidTransition, id, status)
			}
		}
		return nil
	})
	if err != nil {
		return core.Expense{}, err
	}

	slog.InfoContext(ctx, "Expense transition committed",
		"transition", string(tr.Kind),
		"expense_id", tr.Subject.ID,
		"result_id", result.ID,
		"bucket", string(result.Bucket))
	return result, nil
}

func createExpenseParams(e core.Expense) CreateExpenseParams {
	status := e.Status
	if status == "" {
		status = core.StatusLive
	}
	return CreateExpenseParams{
		Day:            e.Date.String(),
		Label:          e.Label,
		AmountMillimes: e.Amount.Millimes,
		Beneficiary:    e.Beneficiary,
		ClientID:       nullID(e.ClientID),
		Bucket:         string(e.Bucket),
		Status:         string(status),
		OriginID:       nullID(e.OriginID),
	}
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id > 0}
}

func parseDay(s string) (core.Date, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return core.Date{}, persistence("decode day", err)
	}
	return core.DateOf(t), nil
}

func toClient(c Client) core.Client {
	return core.Client{
		ID:      c.ID,
		Name:    c.Name,
		Phone:   c.Phone,
		Email:   c.Email,
		Address: c.Address,
	}
}

func toMonthlyCharge(m MonthlyCharge) core.MonthlyCharge {
	return core.MonthlyCharge{
		ClientID: m.ClientID,
		Year:     int(m.Year),
		Month:    int(m.Month),
		Charge:   core.Millimes(m.ChargeMillimes),
		Advance:  core.Millimes(m.AdvanceMillimes),
	}
}

func toFee(f Fee) (core.FeeEntry, error) {
	day, err := parseDay(f.Day)
	if err != nil {
		return core.FeeEntry{}, err
	}
	return core.FeeEntry{
		ID:       f.ID,
		ClientID: f.ClientID,
		Date:     day,
		Label:    f.Label,
		Charged:  core.Millimes(f.ChargedMillimes),
		Advanced: core.Millimes(f.AdvancedMillimes),
		Printed:  f.Printed != 0,
	}, nil
}

func toReceipt(r Receipt) (core.Receipt, error) {
	at, err := time.Parse(time.RFC3339Nano, r.PrintedAt)
	if err != nil {
		return core.Receipt{}, persistence("decode receipt time", err)
	}
	return core.Receipt{
		ID:        r.ID,
		FeeID:     r.FeeID,
		Amount:    core.Millimes(r.AmountMillimes),
		PrintedAt: at,
	}, nil
}

func toExpense(e Expense) (core.Expense, error) {
	day, err := parseDay(e.Day)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		ID:          e.ID,
		Date:        day,
		Label:       e.Label,
		Amount:      core.Millimes(e.AmountMillimes),
		Beneficiary: e.Beneficiary,
		ClientID:    e.ClientID.Int64,
		Bucket:      core.Bucket(e.Bucket),
		Status:      core.ExpenseStatus(e.Status),
		OriginID:    e.OriginID.Int64,
	}, nil
}
