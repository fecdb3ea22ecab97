package services

import (
	"context"
	"time"

	"honoraires/internal/amqp"
	"honoraires/internal/core"
	"honoraires/internal/ledger"
)

// LedgerStore is the persistence boundary of the ledger. ApplyTransition must
// commit a whole ledger.Transition or nothing.
type LedgerStore interface {
	Ping(ctx context.Context) error
	Close() error

	CreateClient(ctx context.Context, c core.Client) (core.Client, error)
	GetClient(ctx context.Context, id int64) (core.Client, error)
	ListClients(ctx context.Context) ([]core.Client, error)

	InsertMonthlyCharge(ctx context.Context, mc core.MonthlyCharge) error
	AddAdvance(ctx context.Context, clientID int64, year, month int, amount core.Money) (core.MonthlyCharge, error)
	DeleteMonthlyCharge(ctx context.Context, clientID int64, year, month int) error
	ListMonthlyCharges(ctx context.Context, clientID int64, fromYear, toYear int) ([]core.MonthlyCharge, error)
	FirstChargedYear(ctx context.Context, clientID int64) (int, error)

	CreateFee(ctx context.Context, f core.FeeEntry) (core.FeeEntry, error)
	GetFee(ctx context.Context, id int64) (core.FeeEntry, error)
	UpdateFee(ctx context.Context, f core.FeeEntry) (core.FeeEntry, error)
	ListFees(ctx context.Context, iv ledger.Interval) ([]core.FeeEntry, error)
	CreateReceipt(ctx context.Context, feeID int64, amount core.Money, at time.Time) (core.Receipt, error)
	ListReceipts(ctx context.Context, feeID int64) ([]core.Receipt, error)

	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	ListExpenses(ctx context.Context, iv ledger.Interval) ([]core.Expense, error)
	ApplyTransition(ctx context.Context, tr ledger.Transition) (core.Expense, error)
}

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev amqp.LedgerEvent) error
}
