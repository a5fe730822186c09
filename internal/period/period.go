package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidPeriod is returned for date, week or month input that cannot be
// parsed. Callers decide whether to fall back to today.
var ErrInvalidPeriod = errors.New("invalid period")

type Kind int

const (
	KindDate Kind = iota
	KindWeek
)

func (k Kind) String() string {
	if k == KindWeek {
		return "week"
	}
	return "date"
}

// Period is a single day or the business days of an ISO week.
//
// Dates holds the focal days (1 for KindDate, Monday to Friday for KindWeek).
// Start and End are the exclusive boundaries of the window used to query
// absences, so records spanning midnight on either side are still returned.
type Period struct {
	Kind  Kind
	Dates []time.Time
	Start time.Time
	End   time.Time
}

// Civil truncates t to its calendar date in t's own location and returns it
// as midnight UTC, so dates from different offsets compare by day.
func Civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ForDate expands a single day into its day-before/day-after query window.
func ForDate(day time.Time) Period {
	day = Civil(day)
	return Period{
		Kind:  KindDate,
		Dates: []time.Time{day},
		Start: day.AddDate(0, 0, -1),
		End:   day.AddDate(0, 0, 1),
	}
}

// ForWeek expands the ISO week containing monday into Monday to Friday.
func ForWeek(monday time.Time) Period {
	monday = Civil(monday)
	monday = monday.AddDate(0, 0, -weekdayIndex(monday))
	dates := make([]time.Time, 5)
	for i := range dates {
		dates[i] = monday.AddDate(0, 0, i)
	}
	return Period{
		Kind:  KindWeek,
		Dates: dates,
		Start: monday.AddDate(0, 0, -1),
		End:   monday.AddDate(0, 0, 5),
	}
}

// Focal returns the day evaluated in single-date mode.
func (p Period) Focal() time.Time {
	return p.Start.AddDate(0, 0, 1)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Period, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Period{}, fmt.Errorf("%w: date %q: %v", ErrInvalidPeriod, s, err)
	}
	return ForDate(t), nil
}

// ParseWeek parses an ISO week such as "2025-W10".
func ParseWeek(s string) (Period, error) {
	monday, err := weekStart(strings.TrimSpace(s))
	if err != nil {
		return Period{}, err
	}
	return ForWeek(monday), nil
}

// Parse dispatches on kind ("date" or "week").
func Parse(kind, value string) (Period, error) {
	switch kind {
	case "date":
		return ParseDate(value)
	case "week":
		return ParseWeek(value)
	default:
		return Period{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidPeriod, kind)
	}
}

func weekStart(s string) (time.Time, error) {
	yearStr, weekStr, ok := strings.Cut(s, "-W")
	if !ok {
		return time.Time{}, fmt.Errorf("%w: week %q, expected YYYY-Www", ErrInvalidPeriod, s)
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil || len(yearStr) != 4 {
		return time.Time{}, fmt.Errorf("%w: week %q has no valid year", ErrInvalidPeriod, s)
	}
	week, err := strconv.Atoi(weekStr)
	if err != nil || week < 1 || week > isoWeeksIn(year) {
		return time.Time{}, fmt.Errorf("%w: week %q out of range", ErrInvalidPeriod, s)
	}

	// January 4th is always in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	week1 := jan4.AddDate(0, 0, -weekdayIndex(jan4))
	return week1.AddDate(0, 0, (week-1)*7), nil
}

func isoWeeksIn(year int) int {
	_, w := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return w
}

// weekdayIndex maps Monday..Sunday to 0..6.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// IsWorkday reports whether t falls on Monday to Friday.
func IsWorkday(t time.Time) bool {
	return weekdayIndex(t) < 5
}

// Between returns the days strictly between start and end.
func Between(start, end time.Time) []time.Time {
	return Through(Civil(start).AddDate(0, 0, 1), Civil(end).AddDate(0, 0, -1))
}

// Through returns the days from start to end inclusive.
func Through(start, end time.Time) []time.Time {
	var days []time.Time
	for d := Civil(start); !d.After(Civil(end)); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Workdays counts Monday to Friday from start to end inclusive.
func Workdays(start, end time.Time) int {
	n := 0
	for _, d := range Through(start, end) {
		if IsWorkday(d) {
			n++
		}
	}
	return n
}

// Years returns every calendar year touched by [start, end].
func Years(start, end time.Time) []int {
	var years []int
	for y := start.Year(); y <= end.Year(); y++ {
		years = append(years, y)
	}
	return years
}
