package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	ClientCharge Bucket = "client"
	OfficeCharge Bucket = "office"

	StatusLive     ExpenseStatus = "live"
	StatusShadowed ExpenseStatus = "shadowed"
)

// SettlementMonth is the ordinal of the REGLT pseudo-month. It sorts after December.
const (
	SettlementMonth = 13
	SettlementLabel = "REGLT"
)

type (
	Bucket        string
	ExpenseStatus string

	Date struct {
		time.Time
	}

	Client struct {
		ID      int64  `json:"id" yaml:"id"`
		Name    string `json:"name" yaml:"name"`
		Phone   string `json:"phone,omitempty" yaml:"phone,omitempty"`
		Email   string `json:"email,omitempty" yaml:"email,omitempty"`
		Address string `json:"address,omitempty" yaml:"address,omitempty"`
	}

	// FeeEntry is a honoraire: money received from a client toward a charge.
	FeeEntry struct {
		ID       int64  `json:"id" yaml:"id"`
		ClientID int64  `json:"client_id" yaml:"client_id"`
		Date     Date   `json:"date" yaml:"date"`
		Label    string `json:"label" yaml:"label"`
		Charged  Money  `json:"charged" yaml:"charged"`
		Advanced Money  `json:"advanced" yaml:"advanced"`
		Printed  bool   `json:"printed" yaml:"printed"` // referenced by at least one receipt
	}

	Expense struct {
		ID          int64         `json:"id" yaml:"id"`
		Date        Date          `json:"date" yaml:"date"`
		Label       string        `json:"label" yaml:"label"`
		Amount      Money         `json:"amount" yaml:"amount"`
		Beneficiary string        `json:"beneficiary,omitempty" yaml:"beneficiary,omitempty"`
		ClientID    int64         `json:"client_id,omitempty" yaml:"client_id,omitempty"` // owner for ClientCharge entries, provenance for office copies
		Bucket      Bucket        `json:"bucket" yaml:"bucket"`
		Status      ExpenseStatus `json:"status" yaml:"status"`
		OriginID    int64         `json:"origin_id,omitempty" yaml:"origin_id,omitempty"` // office copy -> shadowed client original, display only
	}

	MonthlyCharge struct {
		ClientID int64 `json:"client_id" yaml:"client_id"`
		Year     int   `json:"year" yaml:"year"`
		Month    int   `json:"month" yaml:"month"` // 1-12, SettlementMonth for REGLT
		Charge   Money `json:"montant_charge" yaml:"montant_charge"`
		Advance  Money `json:"avance" yaml:"avance"`
	}

	// Receipt records that a fee amount was printed.
	Receipt struct {
		ID        int64     `json:"id" yaml:"id"`
		FeeID     int64     `json:"fee_id" yaml:"fee_id"`
		Amount    Money     `json:"amount" yaml:"amount"`
		PrintedAt time.Time `json:"printed_at" yaml:"printed_at"`
	}
)

var (
	ErrInvalidDay        = errors.New("invalid day")
	ErrInvalidMonth      = errors.New("invalid month")
	ErrInvalidYear       = errors.New("invalid year")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyLabel        = errors.New("empty label")
	ErrEmptyName         = errors.New("empty client name")
	ErrInvalidBucket     = errors.New("invalid bucket")
	ErrMissingClient     = errors.New("missing client reference")
	ErrNegativeAdvance   = errors.New("advance cannot be negative")
	ErrLabelTooLong      = errors.New("label too long (max 200 characters)")
	ErrZeroDate          = errors.New("date cannot be zero")
	ErrAdvanceNotAllowed = errors.New("advance amount must be positive")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON overrides the promoted time.Time encoding so dates stay YYYY-MM-DD.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	return d.UnmarshalText([]byte(s))
}

func (b Bucket) Valid() bool {
	return b == ClientCharge || b == OfficeCharge
}

// MonthLabel renders a month ordinal the way statements print it.
func MonthLabel(month int) string {
	if month == SettlementMonth {
		return SettlementLabel
	}
	if month < 1 || month > 12 {
		return fmt.Sprintf("M%d", month)
	}
	return fmt.Sprintf("%02d", month)
}

// ParseMonth accepts 1-12 or the REGLT label.
func ParseMonth(s string) (int, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, SettlementLabel) {
		return SettlementMonth, nil
	}
	var m int
	if _, err := fmt.Sscanf(s, "%d", &m); err != nil {
		return 0, ErrInvalidMonth
	}
	if m < 1 || m > SettlementMonth {
		return 0, ErrInvalidMonth
	}
	return m, nil
}

func (c Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// Remainder is what the client still owes on this fee.
func (f FeeEntry) Remainder() Money {
	return f.Charged.Sub(f.Advanced)
}

// Received reconciles the two "amount received" conventions found in the
// entry source: whichever of advanced and charged is larger.
func (f FeeEntry) Received() Money {
	return Max(f.Advanced, f.Charged)
}

func (f FeeEntry) Validate() error {
	if f.ClientID <= 0 {
		return ErrMissingClient
	}
	if err := f.Date.Validate(); err != nil {
		return err
	}
	if err := validateLabel(f.Label); err != nil {
		return err
	}
	if f.Charged.IsNegative() || f.Advanced.IsNegative() {
		return ErrInvalidAmount
	}
	if f.Charged.IsZero() && f.Advanced.IsZero() {
		return ErrInvalidAmount
	}
	return nil
}

// IsLive reports whether the record currently represents its expense.
func (e Expense) IsLive() bool {
	return e.Status == StatusLive
}

// HasProvenance reports whether an office entry was reclassified from a client charge.
func (e Expense) HasProvenance() bool {
	return e.Bucket == OfficeCharge && e.OriginID > 0
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := validateLabel(e.Label); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Bucket.Valid() {
		return ErrInvalidBucket
	}
	if e.Bucket == ClientCharge && e.ClientID <= 0 {
		return ErrMissingClient
	}
	return nil
}

func (mc MonthlyCharge) Validate() error {
	if mc.ClientID <= 0 {
		return ErrMissingClient
	}
	if mc.Year < 1 {
		return ErrInvalidYear
	}
	if mc.Month < 1 || mc.Month > SettlementMonth {
		return ErrInvalidMonth
	}
	if mc.Charge.IsNegative() {
		return ErrInvalidAmount
	}
	if mc.Advance.IsNegative() {
		return ErrNegativeAdvance
	}
	return nil
}

// Remainder is charge minus advance for this month alone.
func (mc MonthlyCharge) Remainder() Money {
	return mc.Charge.Sub(mc.Advance)
}

func validateLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return ErrEmptyLabel
	}
	if len(label) > 200 {
		return ErrLabelTooLong
	}
	return nil
}
