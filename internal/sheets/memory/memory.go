package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	ports "honoraires/internal/sheets"
)

// Store keeps exported balance rows in memory, keyed by year then client.
type Store struct {
	mu     sync.Mutex
	years  map[int]map[int64]ports.BalanceRow
	writes int
}

var _ ports.BalanceSheet = (*Store)(nil)

func New() *Store {
	return &Store{years: map[int]map[int64]ports.BalanceRow{}}
}

// WriteBalanceRow stores the row and returns a synthetic row reference.
func (s *Store) WriteBalanceRow(_ context.Context, row ports.BalanceRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.years[row.Year] == nil {
		s.years[row.Year] = map[int64]ports.BalanceRow{}
	}
	s.years[row.Year][row.ClientID] = row
	s.writes++
	return fmt.Sprintf("memory!%d:%d", row.Year, row.ClientID), nil
}

func (s *Store) ReadBalanceRows(_ context.Context, year int) ([]ports.BalanceRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ports.BalanceRow, 0, len(s.years[year]))
	for _, r := range s.years[year] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out, nil
}

// Writes counts calls to WriteBalanceRow.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
