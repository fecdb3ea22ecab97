package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"honoraires/internal/core"
	ports "honoraires/internal/sheets"
)

const (
	defaultBalanceSheet = "Balances"
	defaultRowCacheTTL  = 5 * time.Minute
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base name without year (e.g. "Balances"); code prefixes year.
	balanceBase string

	// Writes are serialized so two clients never land on the same new row.
	mu                 sync.Mutex
	cacheValidDuration time.Duration
	rowIndexes         map[string]*rowIndex
}

// rowIndex maps client ids to sheet rows for one yearly sheet.
type rowIndex struct {
	rows      map[int64]int
	next      int
	expiresAt time.Time
}

var _ ports.BalanceSheet = (*Client)(nil)

// New wraps an existing Sheets service.
func New(svc *gsheet.Service, spreadsheetID, balanceBase string) *Client {
	if strings.TrimSpace(balanceBase) == "" {
		balanceBase = defaultBalanceSheet
	}
	return &Client{
		svc:                svc,
		spreadsheetID:      spreadsheetID,
		balanceBase:        strings.TrimSpace(balanceBase),
		cacheValidDuration: defaultRowCacheTTL,
		rowIndexes:         map[string]*rowIndex{},
	}
}

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID and service account credentials.
// Optional: GOOGLE_BALANCE_SHEET_NAME (default "Balances").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return New(svc, spreadsheetID, os.Getenv("GOOGLE_BALANCE_SHEET_NAME")), nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

// WriteBalanceRow overwrites the client's row in "<year> <base>", appending a
// new row (and the header on an empty sheet) the first time a client is seen.
func (c *Client) WriteBalanceRow(ctx context.Context, row ports.BalanceRow) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	sheet := c.balanceSheetName(row.Year)

	c.mu.Lock()
	defer c.mu.Unlock()

	idx, err := c.rowIndexLocked(ctx, sheet)
	if err != nil {
		return "", err
	}

	target, found := idx.rows[row.ClientID]
	if !found {
		if idx.next <= 1 {
			if err := c.update(ctx, sheet, 1, toAny(ports.Header())); err != nil {
				c.invalidateLocked(sheet)
				return "", fmt.Errorf("write header in %s: %w", sheet, err)
			}
			idx.next = 2
		}
		target = idx.next
	}

	if err := c.update(ctx, sheet, target, row.Cells()); err != nil {
		c.invalidateLocked(sheet)
		return "", fmt.Errorf("write client %d in %s: %w", row.ClientID, sheet, err)
	}
	idx.rows[row.ClientID] = target
	if target >= idx.next {
		idx.next = target + 1
	}

	ref := fmt.Sprintf("%s!A%d:%s%d", sheet, target, lastColumn(), target)
	slog.InfoContext(ctx, "Balance row written",
		"client_id", row.ClientID,
		"year", row.Year,
		"range", ref,
		"appended", !found)
	return ref, nil
}

// ReadBalanceRows returns every client row of the year's balance sheet.
func (c *Client) ReadBalanceRows(ctx context.Context, year int) ([]ports.BalanceRow, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:%s", c.balanceSheetName(year), lastColumn())
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseBalanceSheet(resp.Values, year)
}

func (c *Client) update(ctx context.Context, sheet string, row int, cells []any) error {
	rng := fmt.Sprintf("%s!A%d:%s%d", sheet, row, lastColumn(), row)
	vr := &gsheet.ValueRange{Values: [][]any{cells}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}

// rowIndexLocked returns the cached client→row map for sheet, reading
// column A again once the cache has expired. Callers hold c.mu.
func (c *Client) rowIndexLocked(ctx context.Context, sheet string) (*rowIndex, error) {
	if c.rowIndexes == nil {
		c.rowIndexes = map[string]*rowIndex{}
	}
	if idx, ok := c.rowIndexes[sheet]; ok && time.Now().Before(idx.expiresAt) {
		return idx, nil
	}

	rng := fmt.Sprintf("%s!A:A", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get sheet dimensions for %s: %w", sheet, err)
	}

	idx := &rowIndex{
		rows:      indexClientRows(resp.Values),
		next:      len(resp.Values) + 1,
		expiresAt: time.Now().Add(c.cacheValidDuration),
	}
	c.rowIndexes[sheet] = idx
	return idx, nil
}

func (c *Client) invalidateLocked(sheet string) {
	delete(c.rowIndexes, sheet)
}

func (c *Client) balanceSheetName(year int) string {
	return yearPrefixedName(c.balanceBase, year)
}

// indexClientRows maps the numeric ids of column A to 1-based row numbers.
func indexClientRows(values [][]any) map[int64]int {
	rows := make(map[int64]int, len(values))
	for i, v := range values {
		if len(v) == 0 {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(fmt.Sprint(v[0])), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		if _, dup := rows[id]; !dup {
			rows[id] = i + 1
		}
	}
	return rows
}

// parseBalanceSheet converts a values matrix (as returned by Sheets API)
// into balance rows. It expects a header with ID, Client, Jan..Dec, REGLT
// and Closing; column order is taken from the header.
func parseBalanceSheet(values [][]any, year int) ([]ports.BalanceRow, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	colID := indexOf(headers, "ID")
	colName := indexOf(headers, "Client")
	colClosing := indexOf(headers, "Closing")
	colMonths := make([]int, len(ports.MonthColumns))
	missing := make([]string, 0)
	for i, h := range ports.MonthColumns {
		colMonths[i] = indexOf(headers, h)
		if colMonths[i] == -1 {
			missing = append(missing, h)
		}
	}
	if colID == -1 {
		missing = append(missing, "ID")
	}
	if colName == -1 {
		missing = append(missing, "Client")
	}
	if colClosing == -1 {
		missing = append(missing, "Closing")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected balance header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	var out []ports.BalanceRow
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		id, err := strconv.ParseInt(safeGet(row, colID), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		br := ports.BalanceRow{ClientID: id, Name: safeGet(row, colName), Year: year}
		for m, col := range colMonths {
			if v, ok := parseAmountCell(safeGet(row, col)); ok {
				br.Months[m] = &v
			}
		}
		br.Closing, _ = parseAmountCell(safeGet(row, colClosing))
		out = append(out, br)
	}
	return out, nil
}

// parseAmountCell reads a signed amount as rendered by the sheet. Balances
// go negative when a client owes money, so core.ParseAmount does not apply.
func parseAmountCell(s string) (core.Money, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Money{}, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return core.Money{}, false
	}
	return core.Millimes(d.Shift(3).Round(0).IntPart()), true
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

// lastColumn is the letter of the Closing column.
func lastColumn() string {
	return columnLetter(len(ports.Header()))
}

// columnLetter converts a 1-based column number to A1 notation.
func columnLetter(n int) string {
	var out []byte
	for n > 0 {
		n--
		out = append([]byte{byte('A' + n%26)}, out...)
		n /= 26
	}
	return string(out)
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
