package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/christopherklint97/teamtime/internal/handler/http/middleware"
	"github.com/christopherklint97/teamtime/internal/handler/http/response"
	"github.com/christopherklint97/teamtime/internal/report"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type ReportHandler interface {
	// Time handles GET /reports/time
	Time(w http.ResponseWriter, r *http.Request)

	// Illness handles GET /reports/illness
	Illness(w http.ResponseWriter, r *http.Request)
}

// Reports assembles the monthly reports.
type Reports interface {
	TimeReport(ctx context.Context, token, teamID, month string) ([]report.Row, error)
	IllnessReport(ctx context.Context, token, month string) ([]report.IllnessRow, error)
}

type reportHandlerImpl struct {
	reports Reports
}

func NewReportHandler(reports Reports) ReportHandler {
	return &reportHandlerImpl{reports: reports}
}

func (h *reportHandlerImpl) Time(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	team, month := q.Get("team"), q.Get("month")
	if team == "" || month == "" {
		response.BadRequest(w, "team and month are required")
		return
	}

	contentType, ext, write := contentTypeCSV, "csv", report.WriteTimeCSV
	switch q.Get("format") {
	case "", "csv":
	case "xlsx":
		contentType, ext, write = contentTypeXLSX, "xlsx", report.WriteTimeXLSX
	default:
		response.BadRequest(w, "format must be csv or xlsx")
		return
	}

	rows, err := h.reports.TimeReport(ctx, middleware.Token(ctx), team, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	h.send(w, contentType, fmt.Sprintf("zeiten_%s_%s.%s", team, month, ext), func(out io.Writer) error {
		return write(out, rows)
	})
}

func (h *reportHandlerImpl) Illness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	month := r.URL.Query().Get("month")
	if month == "" {
		response.BadRequest(w, "month is required")
		return
	}

	rows, err := h.reports.IllnessReport(ctx, middleware.Token(ctx), month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	h.send(w, contentTypeCSV, fmt.Sprintf("krankheit_%s.csv", month), func(out io.Writer) error {
		return report.WriteIllnessCSV(out, rows)
	})
}

// send renders into a buffer first so a failed render still yields a
// proper error response.
func (h *reportHandlerImpl) send(w http.ResponseWriter, contentType, filename string, write func(io.Writer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		response.InternalServerError(w, "Failed to render report")
		return
	}
	response.File(w, contentType, filename, buf.Bytes())
}
