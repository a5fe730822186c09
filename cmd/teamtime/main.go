package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/christopherklint97/teamtime/internal/absence"
	"github.com/christopherklint97/teamtime/internal/config"
	"github.com/christopherklint97/teamtime/internal/directory"
	"github.com/christopherklint97/teamtime/internal/holiday"
	"github.com/christopherklint97/teamtime/internal/leavetype"
	"github.com/christopherklint97/teamtime/internal/notify"
	"github.com/christopherklint97/teamtime/internal/report"
	"github.com/christopherklint97/teamtime/internal/teamleader"
	"github.com/christopherklint97/teamtime/internal/worktime"
)

const teamCacheTTL = time.Hour

var rootCmd = &cobra.Command{
	Use:           "teamtime",
	Short:         "Working-time and absence reports from Teamleader",
	Long:          "teamtime reconciles Teamleader time tracking and days off with local employee settings and public holidays into monthly reports and absence overviews.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.Teamleader.ClientID == "" || cfg.Teamleader.ClientSecret == "" {
		return nil, fmt.Errorf("teamleader client credentials not configured, run 'teamtime config' to set them up")
	}
	return cfg, nil
}

// app bundles the services a command needs.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *directory.DB
	client   *teamleader.Client
	teams    *teamleader.TeamCache
	auth     *teamleader.Auth
	engine   *absence.Engine
	reports  *report.Assembler
	notifier *notify.Notifier
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd)

	dbPath, err := config.DatabasePath()
	if err != nil {
		return nil, err
	}
	db, err := directory.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening directory: %w", err)
	}

	client := teamleader.NewClient(cfg.Teamleader.BaseURL, cfg.Timeout(), logger)
	auth, err := newAuth(cfg, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	policy := absence.Policy{
		Region:         cfg.Organization.Region,
		Counted:        leavetype.Set(cfg.Absence.Counted...),
		VacationFamily: leavetype.Set(cfg.Absence.VacationFamily...),
		HoursPerDay:    cfg.Absence.HoursPerDay,
	}
	engine := absence.NewEngine(client, newHolidayProvider(cfg, logger), leavetype.File(cfg.Organization.LeaveTypes), policy, logger)

	opts := report.Options{
		Aggregate:      cfg.AggregateTable(),
		TeamDelay:      cfg.TeamDelay(),
		AllTeamsID:     cfg.Report.AllTeamsID,
		StudentsTeamID: cfg.Report.StudentsTeamID,
		StudentTag:     cfg.Report.StudentTag,
		CompanyID:      cfg.Teamleader.CompanyID,
		Location:       cfg.Location(),
	}
	reports := report.NewAssembler(db, client, worktime.NewAggregator(client, logger), engine, opts, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		client:   client,
		teams:    teamleader.NewTeamCache(teamCacheTTL),
		auth:     auth,
		engine:   engine,
		reports:  reports,
		notifier: notify.New(cfg.Notifications.Enabled, logger),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

func (a *app) token(ctx context.Context) (string, error) {
	return a.auth.AccessToken(ctx)
}

func newAuth(cfg *config.Config, logger *slog.Logger) (*teamleader.Auth, error) {
	tokenPath, err := config.TokenPath()
	if err != nil {
		return nil, err
	}
	return teamleader.NewAuth(
		cfg.Teamleader.ClientID,
		cfg.Teamleader.ClientSecret,
		cfg.Teamleader.RedirectURL,
		teamleader.TokenStore{Path: tokenPath},
		logger,
	), nil
}

// newHolidayProvider layers the configured ICS calendar, if any, over the
// computed statutory holidays.
func newHolidayProvider(cfg *config.Config, logger *slog.Logger) holiday.Provider {
	layered := &holiday.Layered{Base: holiday.Computed{}, Logger: logger}
	if src := cfg.Organization.HolidayCalendar; src != "" {
		layered.Overlay = &holiday.ICS{Source: src, HTTPClient: &http.Client{Timeout: cfg.Timeout()}}
	}
	return layered
}
