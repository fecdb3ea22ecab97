package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"honoraires/internal/core"
	"honoraires/internal/ledger"
	ports "honoraires/internal/sheets"
)

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewSheetsService_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := newSheetsService(context.Background())
	if err == nil {
		t.Fatal("expected error without credentials")
	}
	if !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewSheetsService_UnreadableFile(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", t.TempDir()+"/missing.json")

	_, err := newSheetsService(context.Background())
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Balances", 2024, "2024 Balances"},
		{"  Balances ", 2024, "2024 Balances"},
		{"2023 Balances", 2024, "2023 Balances"},
		{"", 2024, ""},
		{"1234", 2024, "2024 1234"},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}

func TestColumnLetter(t *testing.T) {
	for n, want := range map[int]string{1: "A", 16: "P", 26: "Z", 27: "AA", 52: "AZ"} {
		if got := columnLetter(n); got != want {
			t.Errorf("columnLetter(%d) = %q, want %q", n, got, want)
		}
	}
	if lastColumn() != "P" {
		t.Errorf("lastColumn() = %q, want P", lastColumn())
	}
}

func TestParseAmountCell(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"60.000", 60000, true},
		{"-12,5", -12500, true},
		{"0", 0, true},
		{"", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseAmountCell(tt.in)
		if ok != tt.ok || got.Millimes != tt.want {
			t.Errorf("parseAmountCell(%q) = %v,%v want %d,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseBalanceSheet(t *testing.T) {
	yb := ledger.ComputeYearBalances(7, 2024, []core.MonthlyCharge{
		{ClientID: 7, Year: 2024, Month: 1, Charge: core.MustParseAmount("100"), Advance: core.MustParseAmount("40")},
		{ClientID: 7, Year: 2024, Month: 13, Advance: core.MustParseAmount("80")},
	}, core.Money{})
	want := ports.RowFromBalances(core.Client{ID: 7, Name: "Ben Salah"}, yb)

	values := [][]any{toAny(ports.Header()), want.Cells(), {"", "note"}}
	rows, err := parseBalanceSheet(values, 2024)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if !rows[0].Equal(want) {
		t.Fatalf("parsed %+v, want %+v", rows[0], want)
	}
	if rows[0].Closing.Millimes != -20000 {
		t.Errorf("closing = %s", rows[0].Closing)
	}
}

func TestParseBalanceSheet_BadHeader(t *testing.T) {
	_, err := parseBalanceSheet([][]any{{"ID", "Client", "Jan"}}, 2024)
	if err == nil || !strings.Contains(err.Error(), "unexpected balance header") {
		t.Fatalf("expected header error, got %v", err)
	}
	if rows, err := parseBalanceSheet(nil, 2024); err != nil || rows != nil {
		t.Fatalf("empty sheet: %v %v", rows, err)
	}
}

// fakeSheets serves the two Values endpoints the client uses over an
// in-memory grid.
type fakeSheets struct {
	mu   sync.Mutex
	grid map[string][][]any
	gets int
	puts []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := strings.Index(r.URL.Path, "/values/")
	if i < 0 {
		http.NotFound(w, r)
		return
	}
	rng := r.URL.Path[i+len("/values/"):]
	sheet, cells, _ := strings.Cut(rng, "!")
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		f.gets++
		out := [][]any{}
		for _, row := range f.grid[sheet] {
			if cells == "A:A" && len(row) > 0 {
				row = row[:1]
			}
			out = append(out, row)
		}
		json.NewEncoder(w).Encode(map[string]any{"range": rng, "values": out})
	case http.MethodPut:
		var vr struct {
			Values [][]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		start, _, _ := strings.Cut(cells, ":")
		n, err := strconv.Atoi(strings.TrimLeft(start, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if f.grid == nil {
			f.grid = map[string][][]any{}
		}
		for len(f.grid[sheet]) < n {
			f.grid[sheet] = append(f.grid[sheet], []any{})
		}
		f.grid[sheet][n-1] = vr.Values[0]
		f.puts = append(f.puts, rng)
		json.NewEncoder(w).Encode(map[string]any{"updatedRange": rng})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func newFakeClient(t *testing.T) (*Client, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("sheets service: %v", err)
	}
	return New(svc, "sheet-id", ""), fake
}

func balanceRow(id int64, name string, closing string) ports.BalanceRow {
	yb := ledger.ComputeYearBalances(id, 2024, []core.MonthlyCharge{
		{ClientID: id, Year: 2024, Month: 2, Charge: core.MustParseAmount(closing)},
	}, core.Money{})
	return ports.RowFromBalances(core.Client{ID: id, Name: name}, yb)
}

func TestWriteBalanceRow_AppendsThenUpdates(t *testing.T) {
	ctx := context.Background()
	c, fake := newFakeClient(t)

	ref, err := c.WriteBalanceRow(ctx, balanceRow(3, "Trabelsi", "60"))
	if err != nil {
		t.Fatalf("first write: %v", err)
	}
	if ref != "2024 Balances!A2:P2" {
		t.Errorf("ref = %q", ref)
	}

	if ref, err = c.WriteBalanceRow(ctx, balanceRow(9, "Gharbi", "15")); err != nil || ref != "2024 Balances!A3:P3" {
		t.Fatalf("second client: %q %v", ref, err)
	}
	if ref, err = c.WriteBalanceRow(ctx, balanceRow(3, "Trabelsi", "75")); err != nil || ref != "2024 Balances!A2:P2" {
		t.Fatalf("rewrite: %q %v", ref, err)
	}

	// Header plus three row writes, and the row index read only once.
	if len(fake.puts) != 4 || fake.puts[0] != "2024 Balances!A1:P1" {
		t.Errorf("puts = %v", fake.puts)
	}
	if fake.gets != 1 {
		t.Errorf("expected a single index read, got %d", fake.gets)
	}

	rows, err := c.ReadBalanceRows(ctx, 2024)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %+v", rows)
	}
	if rows[0].ClientID != 3 || rows[0].Closing.String() != "75.000" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].ClientID != 9 || rows[1].Months[1] == nil || rows[1].Months[0] != nil {
		t.Errorf("row 1 = %+v", rows[1])
	}
}

func TestWriteBalanceRow_ReloadsExpiredIndex(t *testing.T) {
	ctx := context.Background()
	c, fake := newFakeClient(t)
	c.cacheValidDuration = time.Millisecond

	if _, err := c.WriteBalanceRow(ctx, balanceRow(3, "Trabelsi", "60")); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	ref, err := c.WriteBalanceRow(ctx, balanceRow(3, "Trabelsi", "61"))
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if ref != "2024 Balances!A2:P2" {
		t.Errorf("expired index must still find the row, got %q", ref)
	}
	if fake.gets != 2 {
		t.Errorf("expected index reload, gets = %d", fake.gets)
	}
}

func TestWriteBalanceRow_NoService(t *testing.T) {
	c := &Client{}
	if _, err := c.WriteBalanceRow(context.Background(), ports.BalanceRow{Year: 2024}); err == nil {
		t.Fatal("expected error without service")
	}
	if _, err := c.ReadBalanceRows(context.Background(), 2024); err == nil {
		t.Fatal("expected error without service")
	}
}
