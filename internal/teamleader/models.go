package teamleader

import "time"

type Ref struct {
	ID   string `json:"id"`
	Type string `json:"type,omitempty"`
}

type User struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Function  string `json:"function"`
	Status    string `json:"status"`
	Teams     []Ref  `json:"teams"`
}

// TeamID returns the first team the user belongs to, if any.
func (u User) TeamID() string {
	if len(u.Teams) == 0 {
		return ""
	}
	return u.Teams[0].ID
}

type Team struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Members []Ref  `json:"members"`
}

// TimeEntry is a tracked block of work. StartedOn is the calendar date the
// provider attributes the entry to; Duration is in seconds.
type TimeEntry struct {
	ID          string    `json:"id"`
	User        Ref       `json:"user"`
	StartedAt   time.Time `json:"started_at"`
	StartedOn   string    `json:"started_on"`
	Duration    int64     `json:"duration"`
	Invoiceable bool      `json:"invoiceable"`
}

const (
	StatusApproved = "approved"
	StatusPending  = "pending"
)

type DayOff struct {
	ID        string    `json:"id"`
	LeaveType Ref       `json:"leave_type"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Status    string    `json:"status"`
}

// Hours is the booked length of the record.
func (d DayOff) Hours() float64 {
	h := d.EndsAt.Sub(d.StartsAt).Hours()
	if h < 0 {
		return 0
	}
	return h
}

type Contact struct {
	ID        string   `json:"id"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Birthdate string   `json:"birthdate"`
	Tags      []string `json:"tags"`
}

type ContactFilter struct {
	CompanyID string
	Tags      []string
}

type page struct {
	Size   int `json:"size"`
	Number int `json:"number"`
}

type sortField struct {
	Field string `json:"field"`
}
