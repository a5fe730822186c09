package holiday

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputed_EasterSunday(t *testing.T) {
	cases := map[int]time.Time{
		2019: date(2019, time.April, 21),
		2024: date(2024, time.March, 31),
		2025: date(2025, time.April, 20),
		2026: date(2026, time.April, 5),
	}
	for year, want := range cases {
		set, err := Computed{}.HolidaysFor(context.Background(), "BB", year)
		require.NoError(t, err)
		name, ok := set.Lookup(want)
		assert.True(t, ok, "year %d", year)
		assert.Equal(t, "Ostersonntag", name)
	}
}

func TestComputed_Bavaria2025(t *testing.T) {
	set, err := Computed{}.HolidaysFor(context.Background(), "BY", 2025)
	require.NoError(t, err)

	want := map[time.Time]string{
		date(2025, time.January, 1):   "Neujahr",
		date(2025, time.January, 6):   "Heilige Drei Könige",
		date(2025, time.April, 18):    "Karfreitag",
		date(2025, time.April, 21):    "Ostermontag",
		date(2025, time.May, 1):       "Erster Mai",
		date(2025, time.May, 29):      "Christi Himmelfahrt",
		date(2025, time.June, 9):      "Pfingstmontag",
		date(2025, time.June, 19):     "Fronleichnam",
		date(2025, time.October, 3):   "Tag der Deutschen Einheit",
		date(2025, time.November, 1):  "Allerheiligen",
		date(2025, time.December, 25): "Erster Weihnachtstag",
		date(2025, time.December, 26): "Zweiter Weihnachtstag",
	}
	assert.Equal(t, Set(want), set)

	name, ok := set.Lookup(time.Date(2025, time.October, 3, 15, 0, 0, 0, time.FixedZone("CEST", 7200)))
	assert.True(t, ok)
	assert.Equal(t, "Tag der Deutschen Einheit", name)

	_, ok = set.Lookup(date(2025, time.March, 3))
	assert.False(t, ok)
}

func TestComputed_AssumptionOnlyInSaarland(t *testing.T) {
	by, err := Computed{}.HolidaysFor(context.Background(), "BY", 2025)
	require.NoError(t, err)
	_, ok := by.Lookup(date(2025, time.August, 15))
	assert.False(t, ok, "not a state-wide holiday in Bavaria")

	sl, err := Computed{}.HolidaysFor(context.Background(), "SL", 2025)
	require.NoError(t, err)
	name, ok := sl.Lookup(date(2025, time.August, 15))
	assert.True(t, ok)
	assert.Equal(t, "Mariä Himmelfahrt", name)
}

func TestComputed_StartYears(t *testing.T) {
	set, err := Computed{}.HolidaysFor(context.Background(), "BE", 2018, 2019)
	require.NoError(t, err)
	_, ok := set.Lookup(date(2018, time.March, 8))
	assert.False(t, ok)
	name, ok := set.Lookup(date(2019, time.March, 8))
	assert.True(t, ok)
	assert.Equal(t, "Internationaler Frauentag", name)
}

func TestComputed_MultipleYearsAndRegions(t *testing.T) {
	set, err := Computed{}.HolidaysFor(context.Background(), "sn", 2024, 2025)
	require.NoError(t, err)

	name, ok := set.Lookup(date(2024, time.November, 20))
	assert.True(t, ok)
	assert.Equal(t, "Buß- und Bettag", name)
	_, ok = set.Lookup(date(2025, time.November, 19))
	assert.True(t, ok)
	_, ok = set.Lookup(date(2025, time.January, 6))
	assert.False(t, ok, "epiphany is not a holiday in Saxony")
}

func TestComputed_UnknownRegion(t *testing.T) {
	_, err := Computed{}.HolidaysFor(context.Background(), "XX", 2025)
	assert.True(t, errors.Is(err, ErrDataUnavailable))
}

const feed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//teamtime//test//DE
BEGIN:VEVENT
UID:1@test
DTSTAMP:20250101T000000Z
DTSTART;VALUE=DATE:20250808
DTEND;VALUE=DATE:20250809
SUMMARY:Augsburger Friedensfest
END:VEVENT
BEGIN:VEVENT
UID:2@test
DTSTAMP:20250101T000000Z
DTSTART;VALUE=DATE:20241224
DTEND;VALUE=DATE:20241225
SUMMARY:Heiligabend
END:VEVENT
END:VCALENDAR
`

func writeFeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "holidays.ics")
	require.NoError(t, os.WriteFile(path, []byte(feed), 0644))
	return path
}

func TestICS_FiltersYears(t *testing.T) {
	ics := &ICS{Source: writeFeed(t)}
	set, err := ics.HolidaysFor(context.Background(), "BY", 2025)
	require.NoError(t, err)

	require.Len(t, set, 1)
	name, ok := set.Lookup(date(2025, time.August, 8))
	assert.True(t, ok)
	assert.Equal(t, "Augsburger Friedensfest", name)
}

func TestICS_MissingFile(t *testing.T) {
	ics := &ICS{Source: filepath.Join(t.TempDir(), "nope.ics")}
	_, err := ics.HolidaysFor(context.Background(), "BY", 2025)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestLayered(t *testing.T) {
	l := &Layered{Base: Computed{}, Overlay: &ICS{Source: writeFeed(t)}}
	set, err := l.HolidaysFor(context.Background(), "BY", 2025)
	require.NoError(t, err)

	_, ok := set.Lookup(date(2025, time.August, 8))
	assert.True(t, ok)
	_, ok = set.Lookup(date(2025, time.January, 1))
	assert.True(t, ok)

	broken := &Layered{Base: Computed{}, Overlay: &ICS{Source: "/does/not/exist.ics"}}
	set, err = broken.HolidaysFor(context.Background(), "BY", 2025)
	require.NoError(t, err)
	assert.Len(t, set, 12)
}
