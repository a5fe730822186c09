package http

import (
	"context"
	"net/http"
	"time"

	"github.com/christopherklint97/teamtime/internal/handler/http/middleware"
	"github.com/christopherklint97/teamtime/internal/handler/http/response"
	"github.com/christopherklint97/teamtime/internal/period"
	"github.com/christopherklint97/teamtime/internal/report"
)

type AbsenceHandler interface {
	// List handles GET /absences
	List(w http.ResponseWriter, r *http.Request)
}

// Rosters builds per-day absence labels for a team.
type Rosters interface {
	Roster(ctx context.Context, token, teamID string, p period.Period) ([]report.RosterRow, error)
}

type absenceHandlerImpl struct {
	rosters Rosters
	now     func() time.Time
}

func NewAbsenceHandler(rosters Rosters, now func() time.Time) AbsenceHandler {
	if now == nil {
		now = time.Now
	}
	return &absenceHandlerImpl{rosters: rosters, now: now}
}

type rosterResponse struct {
	Kind  string       `json:"kind"`
	Dates []string     `json:"dates"`
	Rows  []rosterJSON `json:"rows"`
}

type rosterJSON struct {
	EmployeeID string   `json:"employee_id"`
	Employee   string   `json:"employee"`
	Labels     []string `json:"labels"`
}

func (h *absenceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	date, week := q.Get("date"), q.Get("week")
	var p period.Period
	var err error
	switch {
	case date != "" && week != "":
		response.BadRequest(w, "date and week are mutually exclusive")
		return
	case week != "":
		p, err = period.ParseWeek(week)
	case date != "":
		p, err = period.ParseDate(date)
	default:
		p = period.ForDate(h.now())
	}
	if err != nil {
		response.HandleError(w, err)
		return
	}

	rows, err := h.rosters.Roster(ctx, middleware.Token(ctx), q.Get("team"), p)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	resp := rosterResponse{
		Kind:  p.Kind.String(),
		Dates: make([]string, 0, len(p.Dates)),
		Rows:  make([]rosterJSON, 0, len(rows)),
	}
	for _, d := range p.Dates {
		resp.Dates = append(resp.Dates, d.Format("2006-01-02"))
	}
	for _, row := range rows {
		resp.Rows = append(resp.Rows, rosterJSON{
			EmployeeID: row.EmployeeID,
			Employee:   row.Employee,
			Labels:     row.Labels,
		})
	}
	response.Success(w, resp)
}
