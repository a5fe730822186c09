// Package absence reconciles public holidays and provider days-off records
// into absence figures and per-day roster labels.
package absence

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/christopherklint97/teamtime/internal/holiday"
	"github.com/christopherklint97/teamtime/internal/leavetype"
	"github.com/christopherklint97/teamtime/internal/period"
	"github.com/christopherklint97/teamtime/internal/teamleader"
)

const (
	GlyphApproved = "✅ "
	GlyphOther    = "❌ "
)

// DaysOffSource lists days-off records of a user.
type DaysOffSource interface {
	ListDaysOff(ctx context.Context, token, userID string, after, before time.Time) ([]teamleader.DayOff, error)
}

// Policy holds the organization's absence rules.
type Policy struct {
	Region string
	// Counted lists the categories that reduce the expected workdays.
	Counted map[string]bool
	// VacationFamily lists the categories shown with an approval glyph.
	VacationFamily map[string]bool
	HoursPerDay    float64
}

func DefaultPolicy() Policy {
	return Policy{
		Region: "BY",
		Counted: leavetype.Set(
			"Urlaub", "Krankheit", "Berufsschule/FH/Uni", "Elternzeit", "Kind krank",
			"Überstunden", "Mutterschutz", "Kurzarbeit", "Resturlaub", "Resturlaub 2024",
			"Sonderurlaub", "Unbezahlter Urlaub", "Urlaubsdoku_Studis", "Gleitzeit",
		),
		VacationFamily: leavetype.Set(
			"Urlaub", "Unbezahlter Urlaub", "Urlaubsdokus_Studis", "Sonderurlaub", "Resturlaub",
		),
		HoursPerDay: 8,
	}
}

type Engine struct {
	days     DaysOffSource
	holidays holiday.Provider
	catalog  leavetype.Source
	policy   Policy
	logger   *slog.Logger
}

func NewEngine(days DaysOffSource, holidays holiday.Provider, catalog leavetype.Source, policy Policy, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if policy.HoursPerDay <= 0 {
		policy.HoursPerDay = 8
	}
	return &Engine{days: days, holidays: holidays, catalog: catalog, policy: policy, logger: logger}
}

// holidaysFor never fails; an unavailable calendar yields no holidays.
func (e *Engine) holidaysFor(ctx context.Context, start, end time.Time) holiday.Set {
	set, err := e.holidays.HolidaysFor(ctx, e.policy.Region, period.Years(start, end)...)
	if err != nil {
		e.logger.Warn("holiday calendar unavailable, treating days as regular", "region", e.policy.Region, "error", err)
		return holiday.Set{}
	}
	return set
}

// fetch loads the days-off records. Failures degrade to no records; a
// rejected credential is returned so callers can surface it.
func (e *Engine) fetch(ctx context.Context, token, userID string, start, end time.Time) ([]teamleader.DayOff, error) {
	records, err := e.days.ListDaysOff(ctx, token, userID, start, end)
	if err != nil {
		e.logger.Warn("days off unavailable", "user", userID, "start", start, "end", end, "error", err)
		if errors.Is(err, teamleader.ErrUnauthorized) {
			return nil, err
		}
		return nil, nil
	}
	return records, nil
}

func covers(r teamleader.DayOff, day time.Time) bool {
	return !day.Before(period.Civil(r.StartsAt)) && !day.After(period.Civil(r.EndsAt))
}

// firstMatch returns the first record covering day whose category is in set.
func firstMatch(records []teamleader.DayOff, day time.Time, catalog *leavetype.Catalog, set map[string]bool) (teamleader.DayOff, bool) {
	for _, r := range records {
		if covers(r, day) && catalog.Is(r.LeaveType.ID, set) {
			return r, true
		}
	}
	return teamleader.DayOff{}, false
}

// AbsenceDays counts the days strictly between start and end. A holiday is a
// full day; otherwise the first counted record covering the day contributes
// its booked hours as a fraction of a workday, capped at one.
func (e *Engine) AbsenceDays(ctx context.Context, token, userID string, start, end time.Time) (decimal.Decimal, error) {
	catalog, err := e.catalog.Load()
	if err != nil {
		return decimal.Zero, err
	}
	records, err := e.fetch(ctx, token, userID, start, end)
	if err != nil {
		return decimal.Zero, err
	}
	holidays := e.holidaysFor(ctx, start, end)

	one := decimal.NewFromInt(1)
	perDay := decimal.NewFromFloat(e.policy.HoursPerDay)
	total := decimal.Zero
	for _, day := range period.Between(start, end) {
		if _, ok := holidays.Lookup(day); ok {
			total = total.Add(one)
			continue
		}
		r, ok := firstMatch(records, day, catalog, e.policy.Counted)
		if !ok {
			continue
		}
		fraction := decimal.NewFromFloat(r.Hours()).Div(perDay)
		if fraction.GreaterThan(one) {
			fraction = one
		}
		total = total.Add(fraction)
	}
	return total.Round(2), nil
}

// IllnessDays counts the days from start to end inclusive covered by an
// illness record.
func (e *Engine) IllnessDays(ctx context.Context, token, userID string, start, end time.Time) (int, error) {
	catalog, err := e.catalog.Load()
	if err != nil {
		return 0, err
	}
	records, err := e.fetch(ctx, token, userID, start, end)
	if err != nil {
		return 0, err
	}

	illness := leavetype.Set(leavetype.Illness)
	n := 0
	for _, day := range period.Through(start, end) {
		if _, ok := firstMatch(records, day, catalog, illness); ok {
			n++
		}
	}
	return n, nil
}

// VacationDays counts the vacation records returned for the window.
func (e *Engine) VacationDays(ctx context.Context, token, userID string, start, end time.Time) (int, error) {
	catalog, err := e.catalog.Load()
	if err != nil {
		return 0, err
	}
	records, err := e.fetch(ctx, token, userID, start, end)
	if err != nil {
		return 0, err
	}

	vacation := leavetype.Set(leavetype.Vacation)
	n := 0
	for _, r := range records {
		if catalog.Is(r.LeaveType.ID, vacation) {
			n++
		}
	}
	return n, nil
}

// Labels returns one roster label per day of p: the holiday name, the leave
// category of the first covering record, or Office. Vacation categories
// carry an approval glyph. In date mode only the focal day is labelled.
// Remote failures yield Office for every day.
func (e *Engine) Labels(ctx context.Context, token, userID string, p period.Period) ([]string, error) {
	days := p.Dates
	if p.Kind == period.KindDate {
		days = []time.Time{p.Focal()}
	}
	labels := make([]string, len(days))
	for i := range labels {
		labels[i] = leavetype.Office
	}

	catalog, err := e.catalog.Load()
	if err != nil {
		return nil, err
	}
	holidays := e.holidaysFor(ctx, p.Start, p.End)
	records, err := e.fetch(ctx, token, userID, p.Start, p.End)
	if err != nil {
		return labels, err
	}

	for i, day := range days {
		if name, ok := holidays.Lookup(day); ok {
			labels[i] = name
			continue
		}
		labels[i] = e.label(records, day, catalog)
	}
	return labels, nil
}

func (e *Engine) label(records []teamleader.DayOff, day time.Time, catalog *leavetype.Catalog) string {
	for _, r := range records {
		if !covers(r, day) {
			continue
		}
		category, ok := catalog.Category(r.LeaveType.ID)
		if !ok {
			return leavetype.Office
		}
		if e.policy.VacationFamily[category] {
			if r.Status == teamleader.StatusApproved {
				return GlyphApproved + category
			}
			return GlyphOther + category
		}
		return category
	}
	return leavetype.Office
}

// ExpectedWorkdays pro-rates workdays for part-time contracts of fewer than
// 40 weekly hours, rounding up.
func ExpectedWorkdays(workdays, weeklyHours int) int {
	if weeklyHours <= 0 || weeklyHours >= 40 {
		return workdays
	}
	return int(math.Ceil(float64(workdays*weeklyHours) / 40))
}
