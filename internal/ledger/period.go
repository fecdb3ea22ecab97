// Package ledger holds the consolidation and reclassification rules. Nothing
// in this package performs I/O: callers fetch entries and pass them in.
package ledger

import (
	"fmt"
	"time"

	"honoraires/internal/core"
)

type FilterKind int

const (
	FilterNone FilterKind = iota
	FilterDay
	FilterRange
	FilterMonth
	FilterYear
)

func (k FilterKind) String() string {
	switch k {
	case FilterDay:
		return "day"
	case FilterRange:
		return "range"
	case FilterMonth:
		return "month"
	case FilterYear:
		return "year"
	default:
		return "none"
	}
}

// Filter describes the period a caller asked for. Only the fields matching
// Kind are read.
type Filter struct {
	Kind  FilterKind
	Day   core.Date
	From  core.Date
	To    core.Date
	Month int
	Year  int
}

func DayFilter(d core.Date) Filter { return Filter{Kind: FilterDay, Day: d} }

func RangeFilter(from, to core.Date) Filter { return Filter{Kind: FilterRange, From: from, To: to} }

func MonthFilter(month, year int) Filter { return Filter{Kind: FilterMonth, Month: month, Year: year} }

func YearFilter(year int) Filter { return Filter{Kind: FilterYear, Year: year} }

// Interval is an inclusive calendar-date interval.
type Interval struct {
	Start core.Date `json:"start" yaml:"start"`
	End   core.Date `json:"end" yaml:"end"`
}

// Contains reports whether d falls on or between Start and End.
func (i Interval) Contains(d core.Date) bool {
	day := core.DateOf(d.Time)
	return !day.Before(i.Start) && !day.After(i.End)
}

func (i Interval) String() string {
	return fmt.Sprintf("[%s, %s]", i.Start, i.End)
}

// ResolvePeriod turns a filter into the canonical inclusive interval.
func ResolvePeriod(f Filter) (Interval, error) {
	switch f.Kind {
	case FilterDay:
		if f.Day.IsZero() {
			return Interval{}, fmt.Errorf("%w: day filter without a date", core.ErrInvalidFilter)
		}
		d := core.DateOf(f.Day.Time)
		return Interval{Start: d, End: d}, nil

	case FilterRange:
		if f.From.IsZero() || f.To.IsZero() {
			return Interval{}, fmt.Errorf("%w: range filter needs both bounds", core.ErrInvalidFilter)
		}
		start, end := core.DateOf(f.From.Time), core.DateOf(f.To.Time)
		if start.After(end) {
			return Interval{}, fmt.Errorf("%w: %s > %s", core.ErrInvalidRange, start, end)
		}
		return Interval{Start: start, End: end}, nil

	case FilterMonth:
		if f.Month < 1 || f.Month > 12 {
			return Interval{}, fmt.Errorf("%w: month %d", core.ErrInvalidFilter, f.Month)
		}
		if f.Year < 1 {
			return Interval{}, fmt.Errorf("%w: year %d", core.ErrInvalidFilter, f.Year)
		}
		start := core.NewDate(f.Year, f.Month, 1)
		// Day 0 of the next month normalizes to the last day of this one.
		end := core.NewDate(f.Year, f.Month+1, 0)
		return Interval{Start: start, End: end}, nil

	case FilterYear:
		if f.Year < 1 {
			return Interval{}, fmt.Errorf("%w: year %d", core.ErrInvalidFilter, f.Year)
		}
		return Interval{Start: core.NewDate(f.Year, 1, 1), End: core.NewDate(f.Year, 12, 31)}, nil

	default:
		return Interval{}, core.ErrInvalidFilter
	}
}

// DaysInMonth returns the calendar length of a month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
