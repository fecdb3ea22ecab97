package ledger

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"honoraires/internal/core"
)

// ParseFilter reads a period filter from query parameters. The first form
// present wins, checked in this order: day, from+to, month+year, year.
func ParseFilter(q url.Values) (Filter, error) {
	get := func(k string) string { return strings.TrimSpace(q.Get(k)) }

	switch {
	case get("day") != "":
		d, err := core.ParseDate(get("day"))
		if err != nil {
			return Filter{}, fmt.Errorf("%w: %v", core.ErrInvalidFilter, err)
		}
		return DayFilter(d), nil

	case get("from") != "" || get("to") != "":
		from, err := core.ParseDate(get("from"))
		if err != nil {
			return Filter{}, fmt.Errorf("%w: from: %v", core.ErrInvalidFilter, err)
		}
		to, err := core.ParseDate(get("to"))
		if err != nil {
			return Filter{}, fmt.Errorf("%w: to: %v", core.ErrInvalidFilter, err)
		}
		return RangeFilter(from, to), nil

	case get("month") != "":
		month, err := strconv.Atoi(get("month"))
		if err != nil {
			return Filter{}, fmt.Errorf("%w: month %q", core.ErrInvalidFilter, get("month"))
		}
		year, err := strconv.Atoi(get("year"))
		if err != nil {
			return Filter{}, fmt.Errorf("%w: month filter needs a year", core.ErrInvalidFilter)
		}
		return MonthFilter(month, year), nil

	case get("year") != "":
		year, err := strconv.Atoi(get("year"))
		if err != nil {
			return Filter{}, fmt.Errorf("%w: year %q", core.ErrInvalidFilter, get("year"))
		}
		return YearFilter(year), nil
	}
	return Filter{}, fmt.Errorf("%w: no period given", core.ErrInvalidFilter)
}
