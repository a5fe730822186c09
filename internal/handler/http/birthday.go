package http

import (
	"context"
	"net/http"
	"time"

	"github.com/christopherklint97/teamtime/internal/handler/http/middleware"
	"github.com/christopherklint97/teamtime/internal/handler/http/response"
	"github.com/christopherklint97/teamtime/internal/roster"
	"github.com/christopherklint97/teamtime/internal/teamleader"
)

type BirthdayHandler interface {
	// List handles GET /birthdays
	List(w http.ResponseWriter, r *http.Request)
}

type ContactLister interface {
	ListContacts(ctx context.Context, token string, f teamleader.ContactFilter) ([]teamleader.Contact, error)
}

type birthdayHandlerImpl struct {
	contacts  ContactLister
	companyID string
	now       func() time.Time
}

func NewBirthdayHandler(contacts ContactLister, companyID string, now func() time.Time) BirthdayHandler {
	if now == nil {
		now = time.Now
	}
	return &birthdayHandlerImpl{contacts: contacts, companyID: companyID, now: now}
}

type birthdaysResponse struct {
	Past   []birthdayJSON `json:"past"`
	Today  []birthdayJSON `json:"today"`
	Future []birthdayJSON `json:"future"`
}

type birthdayJSON struct {
	Name      string `json:"name"`
	Birthdate string `json:"birthdate"`
	Age       int    `json:"age"`
	Days      int    `json:"days"`
	Status    string `json:"status"`
}

func toBirthdayJSON(in []roster.Birthday) []birthdayJSON {
	out := make([]birthdayJSON, 0, len(in))
	for _, b := range in {
		out = append(out, birthdayJSON{
			Name:      b.Name,
			Birthdate: b.Birthdate.Format("2006-01-02"),
			Age:       b.Age,
			Days:      b.Days,
			Status:    b.Status,
		})
	}
	return out
}

func (h *birthdayHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	contacts, err := h.contacts.ListContacts(ctx, middleware.Token(ctx), teamleader.ContactFilter{CompanyID: h.companyID})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	b := roster.Classify(contacts, h.now())
	response.Success(w, birthdaysResponse{
		Past:   toBirthdayJSON(b.Past),
		Today:  toBirthdayJSON(b.Today),
		Future: toBirthdayJSON(b.Future),
	})
}
