// Package memory is an in-process ledger store for the memory backend and tests.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"honoraires/internal/core"
	"honoraires/internal/ledger"
)

type chargeKey struct {
	client int64
	year   int
	month  int
}

type Store struct {
	mu       sync.Mutex
	nextID   int64
	clients  map[int64]core.Client
	charges  map[chargeKey]core.MonthlyCharge
	fees     map[int64]core.FeeEntry
	receipts []core.Receipt
	expenses map[int64]core.Expense
}

func New() *Store {
	return &Store{
		clients:  map[int64]core.Client{},
		charges:  map[chargeKey]core.MonthlyCharge{},
		fees:     map[int64]core.FeeEntry{},
		expenses: map[int64]core.Expense{},
	}
}

// NewFromFiles seeds clients from seed_clients.txt in base, one name per line.
// Blank lines and lines starting with # are ignored.
func NewFromFiles(base string) *Store {
	s := New()
	for _, name := range readLines(filepath.Join(base, "seed_clients.txt")) {
		s.nextID++
		s.clients[s.nextID] = core.Client{ID: s.nextID, Name: name}
	}
	return s
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) CreateClient(_ context.Context, c core.Client) (core.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	s.clients[c.ID] = c
	return c, nil
}

func (s *Store) GetClient(_ context.Context, id int64) (core.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok {
		return core.Client{}, fmt.Errorf("%w: client %d", core.ErrEntryNotFound, id)
	}
	return c, nil
}

func (s *Store) ListClients(_ context.Context) ([]core.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) InsertMonthlyCharge(_ context.Context, mc core.MonthlyCharge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := chargeKey{mc.ClientID, mc.Year, mc.Month}
	if _, ok := s.charges[k]; ok {
		return fmt.Errorf("%w: client %d %d/%s", core.ErrDuplicateMonth, mc.ClientID, mc.Year, core.MonthLabel(mc.Month))
	}
	s.charges[k] = mc
	return nil
}

func (s *Store) AddAdvance(_ context.Context, clientID int64, year, month int, amount core.Money) (core.MonthlyCharge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := chargeKey{clientID, year, month}
	mc, ok := s.charges[k]
	if !ok {
		return core.MonthlyCharge{}, fmt.Errorf("%w: monthly charge %d %d/%s", core.ErrEntryNotFound, clientID, year, core.MonthLabel(month))
	}
	mc.Advance = mc.Advance.Add(amount)
	s.charges[k] = mc
	return mc, nil
}

func (s *Store) DeleteMonthlyCharge(_ context.Context, clientID int64, year, month int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := chargeKey{clientID, year, month}
	if _, ok := s.charges[k]; !ok {
		return fmt.Errorf("%w: monthly charge %d %d/%s", core.ErrEntryNotFound, clientID, year, core.MonthLabel(month))
	}
	delete(s.charges, k)
	return nil
}

func (s *Store) ListMonthlyCharges(_ context.Context, clientID int64, fromYear, toYear int) ([]core.MonthlyCharge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.MonthlyCharge
	for k, mc := range s.charges {
		if k.client == clientID && k.year >= fromYear && k.year <= toYear {
			out = append(out, mc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out, nil
}

func (s *Store) FirstChargedYear(_ context.Context, clientID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	first := 0
	for k := range s.charges {
		if k.client == clientID && (first == 0 || k.year < first) {
			first = k.year
		}
	}
	return first, nil
}

func (s *Store) CreateFee(_ context.Context, f core.FeeEntry) (core.FeeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = s.id()
	f.Printed = false
	s.fees[f.ID] = f
	return f, nil
}

func (s *Store) GetFee(_ context.Context, id int64) (core.FeeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fees[id]
	if !ok {
		return core.FeeEntry{}, fmt.Errorf("%w: fee %d", core.ErrEntryNotFound, id)
	}
	return f, nil
}

func (s *Store) UpdateFee(_ context.Context, f core.FeeEntry) (core.FeeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.fees[f.ID]
	if !ok {
		return core.FeeEntry{}, fmt.Errorf("%w: fee %d", core.ErrEntryNotFound, f.ID)
	}
	if current.Printed {
		return core.FeeEntry{}, fmt.Errorf("%w: fee %d", core.ErrFeeLocked, f.ID)
	}
	current.Date = f.Date
	current.Label = f.Label
	current.Charged = f.Charged
	current.Advanced = f.Advanced
	s.fees[f.ID] = current
	return current, nil
}

func (s *Store) ListFees(_ context.Context, iv ledger.Interval) ([]core.FeeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.FeeEntry
	for _, f := range s.fees {
		if iv.Contains(f.Date) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateReceipt(_ context.Context, feeID int64, amount core.Money, at time.Time) (core.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fees[feeID]
	if !ok {
		return core.Receipt{}, fmt.Errorf("%w: fee %d", core.ErrEntryNotFound, feeID)
	}
	rc := core.Receipt{ID: s.id(), FeeID: feeID, Amount: amount, PrintedAt: at.UTC()}
	s.receipts = append(s.receipts, rc)
	f.Printed = true
	s.fees[feeID] = f
	return rc, nil
}

func (s *Store) ListReceipts(_ context.Context, feeID int64) ([]core.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Receipt
	for _, rc := range s.receipts {
		if rc.FeeID == feeID {
			out = append(out, rc)
		}
	}
	return out, nil
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertExpense(e), nil
}

func (s *Store) insertExpense(e core.Expense) core.Expense {
	e.ID = s.id()
	if e.Status == "" {
		e.Status = core.StatusLive
	}
	s.expenses[e.ID] = e
	return e
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, fmt.Errorf("%w: expense %d", core.ErrEntryNotFound, id)
	}
	return e, nil
}

func (s *Store) ListExpenses(_ context.Context, iv ledger.Interval) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if iv.Contains(e.Date) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ApplyTransition checks every precondition before touching anything, so a
// failed transition leaves the store unchanged.
func (s *Store) ApplyTransition(_ context.Context, tr ledger.Transition) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tr.Shadow != 0 {
		e, ok := s.expenses[tr.Shadow]
		if !ok || e.Bucket != core.ClientCharge || e.Status != core.StatusLive {
			return core.Expense{}, fmt.Errorf("%w: expense %d is no longer a live client charge", core.ErrInvalidTransition, tr.Shadow)
		}
	}
	if tr.Restore != 0 {
		e, ok := s.expenses[tr.Restore]
		if !ok || e.Status != core.StatusShadowed {
			return core.Expense{}, fmt.Errorf("%w: expense %d", core.ErrOriginalChargeMissing, tr.Restore)
		}
	}
	for _, id := range tr.Remove {
		want := core.StatusShadowed
		if id == tr.Subject.ID {
			want = core.StatusLive
		}
		if e, ok := s.expenses[id]; !ok || e.Status != want {
			return core.Expense{}, fmt.Errorf("%w: expense %d is no longer %s", core.ErrInvalidTransition, id, want)
		}
	}

	result := tr.Subject
	if tr.Shadow != 0 {
		e := s.expenses[tr.Shadow]
		e.Status = core.StatusShadowed
		s.expenses[tr.Shadow] = e
	}
	if tr.Create != nil {
		result = s.insertExpense(*tr.Create)
	}
	if tr.Restore != 0 {
		e := s.expenses[tr.Restore]
		e.Status = core.StatusLive
		s.expenses[tr.Restore] = e
		result = e
	}
	for _, id := range tr.Remove {
		delete(s.expenses, id)
	}
	return result, nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	seen := map[string]struct{}{}
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
