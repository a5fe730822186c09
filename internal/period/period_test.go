package period

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestParseWeek_2025W10(t *testing.T) {
	p, err := ParseWeek("2025-W10")
	require.NoError(t, err)

	require.Len(t, p.Dates, 5)
	want := []string{"2025-03-03", "2025-03-04", "2025-03-05", "2025-03-06", "2025-03-07"}
	for i, d := range p.Dates {
		assert.Equal(t, want[i], d.Format("2006-01-02"))
	}
	assert.Equal(t, time.Monday, p.Dates[0].Weekday())
	assert.Equal(t, time.Friday, p.Dates[4].Weekday())
	assert.Equal(t, "2025-03-02", p.Start.Format("2006-01-02"))
	assert.Equal(t, "2025-03-08", p.End.Format("2006-01-02"))
	assert.Equal(t, KindWeek, p.Kind)
}

func TestParseWeek_YearBoundary(t *testing.T) {
	p, err := ParseWeek("2026-W01")
	require.NoError(t, err)
	assert.Equal(t, "2025-12-29", p.Dates[0].Format("2006-01-02"))

	p, err = ParseWeek("2020-W53")
	require.NoError(t, err)
	assert.Equal(t, "2020-12-28", p.Dates[0].Format("2006-01-02"))
}

func TestParseWeek_Invalid(t *testing.T) {
	for _, in := range []string{"", "2025", "2025-10", "2025-W00", "2025-W53", "25-W10", "2025-Wxx"} {
		_, err := ParseWeek(in)
		assert.True(t, errors.Is(err, ErrInvalidPeriod), "input %q", in)
	}
}

func TestParseDate(t *testing.T) {
	p, err := ParseDate("2025-03-05")
	require.NoError(t, err)
	require.Len(t, p.Dates, 1)
	assert.Equal(t, "2025-03-04", p.Start.Format("2006-01-02"))
	assert.Equal(t, "2025-03-06", p.End.Format("2006-01-02"))
	assert.Equal(t, p.Dates[0], p.Focal())

	_, err = ParseDate("05.03.2025")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestParse_UnknownKind(t *testing.T) {
	_, err := Parse("month", "2025-03")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestBetweenAndThrough(t *testing.T) {
	days := Between(day("2025-02-28"), day("2025-03-04"))
	require.Len(t, days, 3)
	assert.Equal(t, "2025-03-01", days[0].Format("2006-01-02"))
	assert.Equal(t, "2025-03-03", days[2].Format("2006-01-02"))

	assert.Len(t, Through(day("2025-03-01"), day("2025-03-01")), 1)
	assert.Empty(t, Between(day("2025-03-01"), day("2025-03-02")))
}

func TestCivil_IgnoresOffset(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	late := time.Date(2025, 3, 3, 23, 30, 0, 0, berlin)
	assert.Equal(t, day("2025-03-03"), Civil(late))
}

func TestMonthWindow(t *testing.T) {
	w, err := MonthWindow("2025-03", time.UTC)
	require.NoError(t, err)

	assert.Equal(t, "2025-02-28", w.Start.Format("2006-01-02"))
	assert.Equal(t, "2025-04-01", w.End.Format("2006-01-02"))
	require.Len(t, w.Cuts, 4)
	assert.Equal(t, "2025-03-11", w.Cuts[1].Format("2006-01-02"))
	assert.Equal(t, "2025-03-31", w.Cuts[3].Format("2006-01-02"))
	assert.Equal(t, "2025-04-01", w.Until.Format("2006-01-02"))
	assert.Equal(t, 21, w.Workdays)

	w, err = MonthWindow("2025-04", time.UTC)
	require.NoError(t, err)
	assert.Len(t, w.Cuts, 3)
	assert.Equal(t, 22, w.Workdays)
}

func TestStudentWindow(t *testing.T) {
	w, err := StudentWindow("2025-03", time.UTC)
	require.NoError(t, err)

	assert.Equal(t, "2025-02-15", w.Start.Format("2006-01-02"))
	assert.Equal(t, "2025-03-16", w.End.Format("2006-01-02"))
	require.Len(t, w.Cuts, 3)
	assert.Equal(t, "2025-02-16", w.Cuts[0].Format("2006-01-02"))
	assert.Equal(t, "2025-02-26", w.Cuts[1].Format("2006-01-02"))
	assert.Equal(t, "2025-03-05", w.Cuts[2].Format("2006-01-02"))
	assert.Equal(t, "2025-03-16", w.Until.Format("2006-01-02"))
	// 2025-02-16 (Sun) .. 2025-03-15 (Sat)
	assert.Equal(t, 20, w.Workdays)
}

func TestMonthWindow_Invalid(t *testing.T) {
	_, err := MonthWindow("March", time.UTC)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}
