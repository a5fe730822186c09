package period

import (
	"fmt"
	"strings"
	"time"
)

// ReportWindow is the reporting month used for team time reports.
//
// Start and End are exclusive day boundaries for absence counting. Cuts are
// the ascending sub-interval starts for time-entry queries (three or four)
// and Until closes the last sub-interval.
type ReportWindow struct {
	Month    time.Time
	Start    time.Time
	End      time.Time
	Cuts     []time.Time
	Until    time.Time
	Workdays int
}

// ParseMonth parses YYYY-MM into the first day of that month.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: month %q: %v", ErrInvalidPeriod, s, err)
	}
	return t, nil
}

// MonthWindow covers the whole calendar month. Time entries are fetched in
// blocks starting on the 1st, 11th and 21st, plus the 31st in long months.
func MonthWindow(month string, loc *time.Location) (ReportWindow, error) {
	first, err := ParseMonth(month)
	if err != nil {
		return ReportWindow{}, err
	}
	next := first.AddDate(0, 1, 0)
	last := next.AddDate(0, 0, -1)

	cuts := []time.Time{
		at(first, loc),
		at(first.AddDate(0, 0, 10), loc),
		at(first.AddDate(0, 0, 20), loc),
	}
	if last.Day() == 31 {
		cuts = append(cuts, at(last, loc))
	}

	return ReportWindow{
		Month:    first,
		Start:    first.AddDate(0, 0, -1),
		End:      next,
		Cuts:     cuts,
		Until:    at(next, loc),
		Workdays: Workdays(first, last),
	}, nil
}

// StudentWindow runs from the 16th of the previous month to the 15th of the
// selected month, matching the student payroll cycle.
func StudentWindow(month string, loc *time.Location) (ReportWindow, error) {
	first, err := ParseMonth(month)
	if err != nil {
		return ReportWindow{}, err
	}
	prev := first.AddDate(0, -1, 0)
	from := prev.AddDate(0, 0, 15)
	until := first.AddDate(0, 0, 15)

	return ReportWindow{
		Month: first,
		Start: from.AddDate(0, 0, -1),
		End:   until,
		Cuts: []time.Time{
			at(from, loc),
			at(prev.AddDate(0, 0, 25), loc),
			at(first.AddDate(0, 0, 4), loc),
		},
		Until:    at(until, loc),
		Workdays: Workdays(from, until.AddDate(0, 0, -1)),
	}, nil
}

// MonthBounds returns the first and last day of the month.
func MonthBounds(month string) (time.Time, time.Time, error) {
	first, err := ParseMonth(month)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return first, first.AddDate(0, 1, -1), nil
}

func at(day time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
}
