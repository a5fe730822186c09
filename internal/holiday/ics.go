package holiday

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	ical "github.com/emersion/go-ical"
)

// ICS reads holidays from an iCalendar feed. Source is an http(s) URL or a
// file path. Every VEVENT with a summary becomes a holiday on each day it
// covers; the region argument is ignored since a feed is already regional.
type ICS struct {
	Source     string
	HTTPClient *http.Client
}

func (c *ICS) HolidaysFor(ctx context.Context, _ string, years ...int) (Set, error) {
	r, err := c.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	defer r.Close()

	wanted := make(map[int]bool, len(years))
	for _, y := range years {
		wanted[y] = true
	}

	set := make(Set)
	dec := ical.NewDecoder(r)
	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: parsing calendar: %v", ErrDataUnavailable, err)
		}

		for _, component := range cal.Children {
			if component.Name != ical.CompEvent {
				continue
			}
			event := ical.Event{Component: component}

			summary, _ := event.Props.Text(ical.PropSummary)
			if summary == "" {
				continue
			}
			start, err := event.DateTimeStart(time.UTC)
			if err != nil {
				continue
			}
			end, err := event.DateTimeEnd(time.UTC)
			if err != nil || !end.After(start) {
				end = start.AddDate(0, 0, 1)
			}

			for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
				if wanted[d.Year()] {
					set.add(d, summary)
				}
			}
		}
	}

	return set, nil
}

func (c *ICS) open(ctx context.Context) (io.ReadCloser, error) {
	if strings.HasPrefix(c.Source, "http://") || strings.HasPrefix(c.Source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Source, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		client := c.HTTPClient
		if client == nil {
			client = &http.Client{Timeout: 10 * time.Second}
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching calendar: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("calendar fetch returned status %d", resp.StatusCode)
		}
		return resp.Body, nil
	}

	f, err := os.Open(c.Source)
	if err != nil {
		return nil, fmt.Errorf("opening calendar file: %w", err)
	}
	return f, nil
}
