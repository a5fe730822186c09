// Package worktime collects time entries of an employee across the
// sub-intervals of a reporting window and summarizes them.
package worktime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/christopherklint97/teamtime/internal/period"
	"github.com/christopherklint97/teamtime/internal/teamleader"
)

var ErrMissingBoundary = errors.New("missing interval boundary")

// TimeSource lists the first page of time entries of a user.
type TimeSource interface {
	ListTimeEntries(ctx context.Context, token, userID string, after, before time.Time) ([]teamleader.TimeEntry, error)
}

// Boundaries split a window into three or four half-open sub-intervals.
// B4 is optional.
type Boundaries struct {
	B1, B2, B3, B4 time.Time
	End            time.Time
}

// FromCuts builds boundaries from three or four ascending cut points and a
// terminal boundary, as produced by a report window.
func FromCuts(cuts []time.Time, end time.Time) (Boundaries, error) {
	if len(cuts) < 3 || len(cuts) > 4 {
		return Boundaries{}, fmt.Errorf("%w: need 3 or 4 cuts, got %d", ErrMissingBoundary, len(cuts))
	}
	b := Boundaries{B1: cuts[0], B2: cuts[1], B3: cuts[2], End: end}
	if len(cuts) == 4 {
		b.B4 = cuts[3]
	}
	return b, b.Validate()
}

func (b Boundaries) Validate() error {
	if b.B1.IsZero() || b.B2.IsZero() || b.B3.IsZero() || b.End.IsZero() {
		return ErrMissingBoundary
	}
	points := []time.Time{b.B1, b.B2, b.B3}
	if !b.B4.IsZero() {
		points = append(points, b.B4)
	}
	points = append(points, b.End)
	for i := 1; i < len(points); i++ {
		if !points[i].After(points[i-1]) {
			return fmt.Errorf("%w: boundaries must be strictly ascending", period.ErrInvalidPeriod)
		}
	}
	return nil
}

// Interval is a half-open [Start, End) time range.
type Interval struct {
	Start, End time.Time
}

func (b Boundaries) Intervals() []Interval {
	third := b.End
	if !b.B4.IsZero() {
		third = b.B4
	}
	intervals := []Interval{
		{b.B1, b.B2},
		{b.B2, b.B3},
		{b.B3, third},
	}
	if !b.B4.IsZero() {
		intervals = append(intervals, Interval{b.B4, b.End})
	}
	return intervals
}

type Aggregator struct {
	source TimeSource
	logger *slog.Logger
}

func NewAggregator(source TimeSource, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Aggregator{source: source, logger: logger}
}

// Collect fetches the entries of every sub-interval. A failing sub-interval
// is logged and skipped unless the credential was rejected. When nothing was
// found a single placeholder without date or duration is returned.
func (a *Aggregator) Collect(ctx context.Context, token, userID string, b Boundaries) ([]teamleader.TimeEntry, error) {
	if token == "" || userID == "" {
		return nil, fmt.Errorf("%w: token and user id are required", ErrMissingBoundary)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	var all []teamleader.TimeEntry
	for _, iv := range b.Intervals() {
		entries, err := a.source.ListTimeEntries(ctx, token, userID, iv.Start, iv.End)
		if err != nil {
			if errors.Is(err, teamleader.ErrUnauthorized) {
				return nil, err
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.logger.Warn("skipping time entry interval", "user", userID, "start", iv.Start, "end", iv.End, "error", err)
			continue
		}
		all = append(all, entries...)
	}

	if len(all) == 0 {
		all = []teamleader.TimeEntry{{}}
	}
	return all, nil
}

// Summary collects and summarizes in one step.
func (a *Aggregator) Summary(ctx context.Context, token, userID string, b Boundaries) (Summary, error) {
	entries, err := a.Collect(ctx, token, userID, b)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(entries), nil
}
