package roster

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/teamtime/internal/teamleader"
)

func contact(first, birthdate string) teamleader.Contact {
	return teamleader.Contact{FirstName: first, LastName: "Muster", Birthdate: birthdate}
}

func TestClassify(t *testing.T) {
	today := time.Date(2025, time.June, 15, 14, 30, 0, 0, time.Local)
	b := Classify([]teamleader.Contact{
		contact("Heute", "1990-06-15"),
		contact("Gestern", "1985-06-14"),
		contact("Woche", "2000-06-22"),
		contact("Fern", "1970-09-01"),
		contact("Alt", "1980-06-05"),
		contact("Kaputt", "15.06.1990"),
		{FirstName: "", LastName: "", Birthdate: "1990-01-01"},
	}, today)

	require.Len(t, b.Today, 1)
	assert.Equal(t, "Heute Muster", b.Today[0].Name)
	assert.Equal(t, 35, b.Today[0].Age)

	require.Len(t, b.Past, 1)
	assert.Equal(t, "gestern", b.Past[0].Status)
	assert.Equal(t, -1, b.Past[0].Days)

	require.Len(t, b.Future, 1)
	assert.Equal(t, "in einer Woche", b.Future[0].Status)
	assert.Equal(t, 25, b.Future[0].Age)
}

func TestClassify_OrderAndStatus(t *testing.T) {
	today := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	b := Classify([]teamleader.Contact{
		contact("C", "1990-03-15"),
		contact("A", "1990-03-02"),
		contact("B", "1990-03-08"),
		contact("D", "1990-02-24"),
	}, today)

	require.Len(t, b.Future, 3)
	assert.Equal(t, []string{"morgen", "in einer Woche", "in zwei Wochen"},
		[]string{b.Future[0].Status, b.Future[1].Status, b.Future[2].Status})
	require.Len(t, b.Past, 1)
	assert.Equal(t, "vor 5 Tagen", b.Past[0].Status)
}

func TestClassify_AcrossNewYear(t *testing.T) {
	today := time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)
	b := Classify([]teamleader.Contact{
		contact("Silvester", "1990-12-31"),
		contact("Neujahr", "1990-01-05"),
	}, today)

	require.Len(t, b.Past, 1)
	assert.Equal(t, "vor 2 Tagen", b.Past[0].Status)
	assert.Equal(t, 35, b.Past[0].Age)
	require.Len(t, b.Future, 1)
	assert.Equal(t, "in 3 Tagen", b.Future[0].Status)
}

func TestClassify_Limits(t *testing.T) {
	today := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	var contacts []teamleader.Contact
	for i := 0; i < 12; i++ {
		contacts = append(contacts, contact(fmt.Sprintf("P%d", i), "1990-06-10"))
	}
	b := Classify(contacts, today)
	assert.Len(t, b.Past, maxPast)
}
