// Package roster builds the birthday overview shown to staff.
package roster

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/christopherklint97/teamtime/internal/period"
	"github.com/christopherklint97/teamtime/internal/teamleader"
)

const (
	pastWindow   = 7
	futureWindow = 30
	maxPast      = 7
	maxFuture    = 30
)

type Birthday struct {
	Name      string
	Birthdate time.Time
	// Age is the age reached on the birthday in question.
	Age int
	// Days until the birthday; negative for past ones.
	Days   int
	Status string
}

type Birthdays struct {
	Past   []Birthday
	Today  []Birthday
	Future []Birthday
}

// Classify sorts contacts into recent, today's and upcoming birthdays,
// nearest first. Contacts without a name or a parsable birthdate are
// skipped.
func Classify(contacts []teamleader.Contact, today time.Time) Birthdays {
	today = period.Civil(today)

	var all []Birthday
	for _, c := range contacts {
		name := strings.TrimSpace(c.FirstName + " " + c.LastName)
		if name == "" || c.Birthdate == "" {
			continue
		}
		born, err := time.Parse("2006-01-02", c.Birthdate)
		if err != nil {
			continue
		}
		next := nearest(born, today)
		all = append(all, Birthday{
			Name:      name,
			Birthdate: born,
			Age:       next.Year() - born.Year(),
			Days:      int(next.Sub(today).Hours() / 24),
		})
	}

	sort.SliceStable(all, func(i, j int) bool {
		return abs(all[i].Days) < abs(all[j].Days)
	})

	var b Birthdays
	for _, bd := range all {
		switch {
		case bd.Days < 0 && bd.Days >= -pastWindow && len(b.Past) < maxPast:
			bd.Status = pastStatus(bd.Days)
			b.Past = append(b.Past, bd)
		case bd.Days == 0:
			bd.Status = "heute"
			b.Today = append(b.Today, bd)
		case bd.Days > 0 && bd.Days <= futureWindow && len(b.Future) < maxFuture:
			bd.Status = futureStatus(bd.Days)
			b.Future = append(b.Future, bd)
		}
	}
	return b
}

// nearest returns the anniversary of born closest to today, looking at the
// previous, current and next year so birthdays around New Year are found.
func nearest(born, today time.Time) time.Time {
	best := anniversary(born, today.Year())
	for _, y := range []int{today.Year() - 1, today.Year() + 1} {
		c := anniversary(born, y)
		if absDur(c.Sub(today)) < absDur(best.Sub(today)) {
			best = c
		}
	}
	return best
}

func anniversary(born time.Time, year int) time.Time {
	return time.Date(year, born.Month(), born.Day(), 0, 0, 0, 0, time.UTC)
}

func pastStatus(days int) string {
	if days == -1 {
		return "gestern"
	}
	return fmt.Sprintf("vor %d Tagen", -days)
}

func futureStatus(days int) string {
	switch days {
	case 1:
		return "morgen"
	case 7:
		return "in einer Woche"
	case 14:
		return "in zwei Wochen"
	case 21:
		return "in drei Wochen"
	case 28:
		return "in vier Wochen"
	}
	return fmt.Sprintf("in %d Tagen", days)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func absDur(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
