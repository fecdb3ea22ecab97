package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honoraires/internal/core"
)

func TestResolvePeriod(t *testing.T) {
	tests := []struct {
		name    string
		filter  Filter
		start   core.Date
		end     core.Date
		wantErr error
	}{
		{
			name:   "single day",
			filter: DayFilter(core.NewDate(2024, 3, 15)),
			start:  core.NewDate(2024, 3, 15),
			end:    core.NewDate(2024, 3, 15),
		},
		{
			name:   "day ignores time of day",
			filter: DayFilter(core.Date{Time: time.Date(2024, 3, 15, 17, 45, 0, 0, time.UTC)}),
			start:  core.NewDate(2024, 3, 15),
			end:    core.NewDate(2024, 3, 15),
		},
		{
			name:   "explicit range",
			filter: RangeFilter(core.NewDate(2024, 1, 10), core.NewDate(2024, 2, 5)),
			start:  core.NewDate(2024, 1, 10),
			end:    core.NewDate(2024, 2, 5),
		},
		{
			name:    "inverted range",
			filter:  RangeFilter(core.NewDate(2024, 2, 5), core.NewDate(2024, 1, 10)),
			wantErr: core.ErrInvalidRange,
		},
		{
			name:   "leap february",
			filter: MonthFilter(2, 2024),
			start:  core.NewDate(2024, 2, 1),
			end:    core.NewDate(2024, 2, 29),
		},
		{
			name:   "common february",
			filter: MonthFilter(2, 2023),
			start:  core.NewDate(2023, 2, 1),
			end:    core.NewDate(2023, 2, 28),
		},
		{
			name:   "december",
			filter: MonthFilter(12, 2024),
			start:  core.NewDate(2024, 12, 1),
			end:    core.NewDate(2024, 12, 31),
		},
		{
			name:   "whole year",
			filter: YearFilter(2024),
			start:  core.NewDate(2024, 1, 1),
			end:    core.NewDate(2024, 12, 31),
		},
		{
			name:    "month out of range",
			filter:  MonthFilter(13, 2024),
			wantErr: core.ErrInvalidFilter,
		},
		{
			name:    "no filter",
			filter:  Filter{},
			wantErr: core.ErrInvalidFilter,
		},
		{
			name:    "range missing bound",
			filter:  Filter{Kind: FilterRange, From: core.NewDate(2024, 1, 1)},
			wantErr: core.ErrInvalidFilter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePeriod(tt.filter)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.start.String(), got.Start.String())
			assert.Equal(t, tt.end.String(), got.End.String())
		})
	}
}

func TestResolvePeriod_MonthEndIsTrueLastDay(t *testing.T) {
	for year := 1999; year <= 2030; year++ {
		for month := 1; month <= 12; month++ {
			iv, err := ResolvePeriod(MonthFilter(month, year))
			require.NoError(t, err)
			assert.Equal(t, DaysInMonth(year, time.Month(month)), iv.End.Day(), "%d-%02d", year, month)
			assert.Equal(t, month, iv.End.Month())
			assert.Equal(t, 1, iv.Start.Day())
		}
	}
}

func TestIntervalContains(t *testing.T) {
	iv := Interval{Start: core.NewDate(2024, 1, 1), End: core.NewDate(2024, 1, 31)}
	assert.True(t, iv.Contains(core.NewDate(2024, 1, 1)))
	assert.True(t, iv.Contains(core.Date{Time: time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC)}))
	assert.False(t, iv.Contains(core.NewDate(2024, 2, 1)))
	assert.False(t, iv.Contains(core.NewDate(2023, 12, 31)))
}
