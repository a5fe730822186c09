package holiday

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
)

// Computed derives German public holidays. Regions only list days off
// for the whole state, so Mariä Himmelfahrt is missing in Bavaria where it
// applies to Catholic municipalities only.
type Computed struct{}

func fixed(name string, month time.Month, day int) *cal.Holiday {
	return &cal.Holiday{Name: name, Month: month, Day: day, Func: cal.CalcDayOfMonth}
}

func fixedSince(since int, name string, month time.Month, day int) *cal.Holiday {
	h := fixed(name, month, day)
	h.StartYear = since
	return h
}

func easter(name string, offset int) *cal.Holiday {
	return &cal.Holiday{Name: name, Offset: offset, Func: cal.CalcEasterOffset}
}

// repentance is the Wednesday before November 23rd.
func repentance(h *cal.Holiday, year int) time.Time {
	d := time.Date(year, time.November, 22, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Wednesday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

var (
	epiphany       = fixed("Heilige Drei Könige", time.January, 6)
	corpusChristi  = easter("Fronleichnam", 60)
	assumption     = fixed("Mariä Himmelfahrt", time.August, 15)
	allSaints      = fixed("Allerheiligen", time.November, 1)
	reformationDay = fixed("Reformationstag", time.October, 31)
	reformation18  = fixedSince(2018, "Reformationstag", time.October, 31)
	easterSunday   = easter("Ostersonntag", 0)
	whitSunday     = easter("Pfingstsonntag", 49)
	dayOfPrayer    = &cal.Holiday{Name: "Buß- und Bettag", Func: repentance}
)

var national = []*cal.Holiday{
	fixed("Neujahr", time.January, 1),
	easter("Karfreitag", -2),
	easter("Ostermontag", 1),
	fixed("Erster Mai", time.May, 1),
	easter("Christi Himmelfahrt", 39),
	easter("Pfingstmontag", 50),
	fixed("Tag der Deutschen Einheit", time.October, 3),
	fixed("Erster Weihnachtstag", time.December, 25),
	fixed("Zweiter Weihnachtstag", time.December, 26),
}

var regional = map[string][]*cal.Holiday{
	"BW": {epiphany, corpusChristi, allSaints},
	"BY": {epiphany, corpusChristi, allSaints},
	"BE": {fixedSince(2019, "Internationaler Frauentag", time.March, 8)},
	"BB": {easterSunday, whitSunday, reformationDay},
	"HB": {reformation18},
	"HH": {reformation18},
	"HE": {corpusChristi},
	"MV": {fixedSince(2023, "Internationaler Frauentag", time.March, 8), reformationDay},
	"NI": {reformation18},
	"NW": {corpusChristi, allSaints},
	"RP": {corpusChristi, allSaints},
	"SH": {reformation18},
	"SL": {corpusChristi, assumption, allSaints},
	"SN": {reformationDay, dayOfPrayer},
	"ST": {epiphany, reformationDay},
	"TH": {fixedSince(2019, "Weltkindertag", time.September, 20), reformationDay},
}

// HolidaysFor returns the national and regional holidays. Region is a
// German state code such as "BY".
func (Computed) HolidaysFor(_ context.Context, region string, years ...int) (Set, error) {
	extra, ok := regional[strings.ToUpper(region)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown region %q", ErrDataUnavailable, region)
	}

	set := make(Set)
	for _, year := range years {
		for _, h := range append(append([]*cal.Holiday{}, national...), extra...) {
			if actual, _ := h.Calc(year); !actual.IsZero() {
				set.add(actual, h.Name)
			}
		}
		if year == 2017 {
			set.add(time.Date(2017, time.October, 31, 0, 0, 0, 0, time.UTC), "Reformationstag")
		}
	}
	return set, nil
}
