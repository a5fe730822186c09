// Package holiday provides public holiday calendars by region.
package holiday

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"
)

// ErrDataUnavailable is returned when a calendar cannot be produced.
// Callers treat affected days as regular working days.
var ErrDataUnavailable = errors.New("holiday data unavailable")

// Set maps calendar dates (midnight UTC) to holiday names.
type Set map[time.Time]string

// Lookup returns the holiday name for the day containing t.
func (s Set) Lookup(t time.Time) (string, bool) {
	y, m, d := t.Date()
	name, ok := s[time.Date(y, m, d, 0, 0, 0, 0, time.UTC)]
	return name, ok
}

func (s Set) add(t time.Time, name string) {
	y, m, d := t.Date()
	s[time.Date(y, m, d, 0, 0, 0, 0, time.UTC)] = name
}

// Provider supplies the holidays of a region for the given years.
type Provider interface {
	HolidaysFor(ctx context.Context, region string, years ...int) (Set, error)
}

// Layered applies Overlay on top of Base. Overlay entries win on the same
// date. A failing overlay is logged and the base calendar is used alone.
type Layered struct {
	Base    Provider
	Overlay Provider
	Logger  *slog.Logger
}

func (l *Layered) HolidaysFor(ctx context.Context, region string, years ...int) (Set, error) {
	set, err := l.Base.HolidaysFor(ctx, region, years...)
	if err != nil {
		return nil, err
	}
	if l.Overlay == nil {
		return set, nil
	}

	extra, err := l.Overlay.HolidaysFor(ctx, region, years...)
	if err != nil {
		l.logger().Warn("holiday overlay unavailable, using computed calendar", "region", region, "error", err)
		return set, nil
	}
	for d, name := range extra {
		set[d] = name
	}
	return set, nil
}

func (l *Layered) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l.Logger
}
