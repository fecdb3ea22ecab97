package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"honoraires/internal/amqp"
	"honoraires/internal/core"
	"honoraires/internal/ledger"
	"honoraires/internal/sheets"
)

const defaultConcurrency = 4

// Ledger is the part of the ledger service the exporter reads from.
type Ledger interface {
	CarriedBalance(ctx context.Context, clientID int64, year int) (core.Money, error)
	ComputeYearBalances(ctx context.Context, clientID int64, year int, opening *core.Money) (ledger.YearBalances, error)
}

// Directory resolves clients.
type Directory interface {
	Get(ctx context.Context, id int64) (core.Client, error)
	List(ctx context.Context) ([]core.Client, error)
}

// ExportStats summarizes a full-year export.
type ExportStats struct {
	Clients   int
	Written   int
	Unchanged int
}

// ExportWorker writes client balances to the yearly balance sheet.
type ExportWorker struct {
	ledger      Ledger
	clients     Directory
	sheet       sheets.BalanceSheet
	concurrency int
	now         func() time.Time
}

func NewExportWorker(l Ledger, clients Directory, sheet sheets.BalanceSheet, concurrency int) *ExportWorker {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &ExportWorker{
		ledger:      l,
		clients:     clients,
		sheet:       sheet,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// HandleEvent processes a single ledger event from AMQP. Charge events
// re-export the client from the event year up to the current year, since a
// change in one year moves the carried balance of every later year.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	if !ev.AffectsBalances() {
		slog.DebugContext(ctx, "Ignoring ledger event", "event_id", ev.ID, "type", string(ev.Type))
		return nil
	}

	slog.InfoContext(ctx, "Processing ledger event",
		"event_id", ev.ID,
		"type", string(ev.Type),
		"client_id", ev.ClientID,
		"year", ev.Year)

	if ev.Year < 1 {
		return fmt.Errorf("event %s: %w: %d", ev.ID, core.ErrInvalidYear, ev.Year)
	}

	if ev.Type == amqp.EventYearExportRequired {
		_, err := w.ExportYear(ctx, ev.Year)
		return err
	}

	client, err := w.clients.Get(ctx, ev.ClientID)
	if err != nil {
		return fmt.Errorf("get client %d: %w", ev.ClientID, err)
	}
	last := w.now().Year()
	if last < ev.Year {
		last = ev.Year
	}
	for year := ev.Year; year <= last; year++ {
		if _, err := w.ExportClientYear(ctx, client, year); err != nil {
			return err
		}
	}
	return nil
}

// ExportClientYear computes one client's year, opening on the carried
// balance, and writes its row.
func (w *ExportWorker) ExportClientYear(ctx context.Context, client core.Client, year int) (sheets.BalanceRow, error) {
	row, err := w.buildRow(ctx, client, year)
	if err != nil {
		return sheets.BalanceRow{}, err
	}
	if _, err := w.sheet.WriteBalanceRow(ctx, row); err != nil {
		return sheets.BalanceRow{}, fmt.Errorf("write balances for client %d/%d: %w", client.ID, year, err)
	}
	return row, nil
}

func (w *ExportWorker) buildRow(ctx context.Context, client core.Client, year int) (sheets.BalanceRow, error) {
	carried, err := w.ledger.CarriedBalance(ctx, client.ID, year)
	if err != nil {
		return sheets.BalanceRow{}, fmt.Errorf("carried balance for client %d/%d: %w", client.ID, year, err)
	}
	yb, err := w.ledger.ComputeYearBalances(ctx, client.ID, year, &carried)
	if err != nil {
		return sheets.BalanceRow{}, fmt.Errorf("year balances for client %d/%d: %w", client.ID, year, err)
	}
	return sheets.RowFromBalances(client, yb), nil
}

// ExportYear re-exports every client for year with bounded concurrency.
// Rows already identical in the sheet are not rewritten. The first failure
// cancels the remaining clients.
func (w *ExportWorker) ExportYear(ctx context.Context, year int) (ExportStats, error) {
	clients, err := w.clients.List(ctx)
	if err != nil {
		return ExportStats{}, fmt.Errorf("list clients: %w", err)
	}

	existing := map[int64]sheets.BalanceRow{}
	rows, err := w.sheet.ReadBalanceRows(ctx, year)
	if err != nil {
		slog.WarnContext(ctx, "Could not read exported balances, rewriting every row", "year", year, "error", err)
	}
	for _, r := range rows {
		existing[r.ClientID] = r
	}

	var written, unchanged atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, c := range clients {
		g.Go(func() error {
			row, err := w.buildRow(gctx, c, year)
			if err != nil {
				return err
			}
			if prev, ok := existing[c.ID]; ok && prev.Equal(row) {
				unchanged.Add(1)
				return nil
			}
			if _, err := w.sheet.WriteBalanceRow(gctx, row); err != nil {
				return fmt.Errorf("write balances for client %d/%d: %w", c.ID, year, err)
			}
			written.Add(1)
			return nil
		})
	}
	err = g.Wait()

	stats := ExportStats{Clients: len(clients), Written: int(written.Load()), Unchanged: int(unchanged.Load())}
	if err != nil {
		slog.ErrorContext(ctx, "Year export failed",
			"year", year,
			"written", stats.Written,
			"error", err)
		return stats, err
	}
	slog.InfoContext(ctx, "Year export completed",
		"year", year,
		"clients", stats.Clients,
		"written", stats.Written,
		"unchanged", stats.Unchanged)
	return stats, nil
}

// IsPermanent reports whether err will fail again on redelivery.
func IsPermanent(err error) bool {
	return errors.Is(err, core.ErrEntryNotFound) ||
		errors.Is(err, core.ErrMissingClient) ||
		errors.Is(err, core.ErrInvalidYear)
}

// Handle is the queue consumer entry point. Permanent failures are logged
// and acknowledged so a bad event is not redelivered forever.
func (w *ExportWorker) Handle(ctx context.Context, ev *amqp.LedgerEvent) error {
	err := w.HandleEvent(ctx, ev)
	if err != nil && IsPermanent(err) {
		slog.WarnContext(ctx, "Dropping ledger event",
			"event_id", ev.ID,
			"type", string(ev.Type),
			"error", err)
		return nil
	}
	return err
}
