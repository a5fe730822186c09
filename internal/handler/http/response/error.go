package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/christopherklint97/teamtime/internal/directory"
	"github.com/christopherklint97/teamtime/internal/holiday"
	"github.com/christopherklint97/teamtime/internal/leavetype"
	"github.com/christopherklint97/teamtime/internal/period"
	"github.com/christopherklint97/teamtime/internal/teamleader"
	"github.com/christopherklint97/teamtime/internal/worktime"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, teamleader.ErrUnauthorized):
		Unauthorized(w, "Teamleader rejected the access token")
	case errors.Is(err, teamleader.ErrNotAuthenticated):
		Unauthorized(w, "Not authenticated with Teamleader")

	case errors.Is(err, period.ErrInvalidPeriod):
		BadRequest(w, err.Error())
	case errors.Is(err, worktime.ErrMissingBoundary):
		BadRequest(w, err.Error())

	case errors.Is(err, directory.ErrNotFound):
		NotFound(w, "Employee not found")

	case errors.Is(err, leavetype.ErrMalformedReference):
		InternalServerError(w, "Leave-type reference data is malformed")
	case errors.Is(err, holiday.ErrDataUnavailable):
		ServiceUnavailable(w, "Holiday data unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		GatewayTimeout(w, "Teamleader did not answer in time")

	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
