package http

import (
	"io"
	"log/slog"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"

	"github.com/christopherklint97/teamtime/internal/directory"
	"github.com/christopherklint97/teamtime/internal/handler/http/middleware"
)

type RouterOptions struct {
	AllowedOrigins []string
	Logger         *slog.Logger
	LogLevel       slog.Level
}

// NewLogger returns a JSON logger in the ECS layout used for request logs.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(false)
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(slog.String("app", "teamtime"))
}

func NewRouter(opts RouterOptions, identity middleware.Identity, dir middleware.Resolver, absenceHandler AbsenceHandler, reportHandler ReportHandler, birthdayHandler BirthdayHandler) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AuthRequired)

		r.With(middleware.RequirePermission(identity, dir, directory.PermAbsence)).
			Get("/absences", absenceHandler.List)

		r.Route("/reports", func(r chi.Router) {
			r.With(middleware.RequirePermission(identity, dir, directory.PermManageTimes)).
				Get("/time", reportHandler.Time)
			r.With(middleware.RequirePermission(identity, dir, directory.PermIllness)).
				Get("/illness", reportHandler.Illness)
		})

		r.With(middleware.RequirePermission(identity, dir, directory.PermBirthday)).
			Get("/birthdays", birthdayHandler.List)
	})
	return r
}
