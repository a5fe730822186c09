// Package report joins directory, working-time and absence figures into
// per-employee report rows.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/christopherklint97/teamtime/internal/absence"
	"github.com/christopherklint97/teamtime/internal/directory"
	"github.com/christopherklint97/teamtime/internal/period"
	"github.com/christopherklint97/teamtime/internal/teamleader"
	"github.com/christopherklint97/teamtime/internal/worktime"
)

// Directory is the subset of the employee directory the assembler reads.
type Directory interface {
	Resolve(ctx context.Context, id string) (*directory.Employee, error)
	TeamMembers(ctx context.Context, teamID string) ([]directory.Employee, error)
	Tagged(ctx context.Context, tag string) ([]directory.Employee, error)
	List(ctx context.Context) ([]directory.Employee, error)
	SyncTag(ctx context.Context, tag string, names []string) (int, error)
}

// Remote is the subset of the provider used for team resolution.
type Remote interface {
	ListTeams(ctx context.Context, token string, ids ...string) ([]teamleader.Team, error)
	UserInfo(ctx context.Context, token, userID string) (*teamleader.User, error)
	ListContacts(ctx context.Context, token string, f teamleader.ContactFilter) ([]teamleader.Contact, error)
}

type Options struct {
	// Aggregate maps a team id to further teams reported together with it.
	Aggregate      map[string][]string
	TeamDelay      time.Duration
	AllTeamsID     string
	StudentsTeamID string
	StudentTag     string
	CompanyID      string
	Location       *time.Location
}

func DefaultOptions() Options {
	return Options{
		TeamDelay:      5 * time.Second,
		AllTeamsID:     "-1",
		StudentsTeamID: "-2",
		StudentTag:     "Student/in",
		Location:       time.UTC,
	}
}

// Row is one employee line of the time report.
type Row struct {
	EmployeeID       string
	FirstName        string
	LastName         string
	TotalHours       decimal.Decimal
	BillableHours    decimal.Decimal
	NonBillableHours decimal.Decimal
	WorkingDays      decimal.Decimal
	BillableQuota    decimal.Decimal
	OvertimeHours    decimal.Decimal
}

type IllnessRow struct {
	Employee string
	Days     int
	Hours    int
}

type RosterRow struct {
	EmployeeID string
	Employee   string
	Labels     []string
}

type Assembler struct {
	dir    Directory
	remote Remote
	agg    *worktime.Aggregator
	engine *absence.Engine
	opts   Options
	sleep  func(ctx context.Context, d time.Duration) error
	logger *slog.Logger
}

func NewAssembler(dir Directory, remote Remote, agg *worktime.Aggregator, engine *absence.Engine, opts Options, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Assembler{
		dir:    dir,
		remote: remote,
		agg:    agg,
		engine: engine,
		opts:   opts,
		sleep:  sleep,
		logger: logger,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// member is a team member with the local settings needed for a row.
type member struct {
	id           string
	firstName    string
	lastName     string
	workingHours int
}

// TimeReport builds the rows of a monthly time report for teamID.
func (a *Assembler) TimeReport(ctx context.Context, token, teamID, month string) ([]Row, error) {
	window, groups, err := a.resolve(ctx, token, teamID, month)
	if err != nil {
		return nil, err
	}
	boundaries, err := worktime.FromCuts(window.Cuts, window.Until)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for i, group := range groups {
		a.logger.Info("assembling team", "team", group.id, "members", len(group.members))
		for _, m := range group.members {
			row, err := a.row(ctx, token, m, window, boundaries)
			if err != nil {
				return nil, fmt.Errorf("member %s: %w", m.id, err)
			}
			rows = append(rows, row)
		}
		if i < len(groups)-1 {
			if err := a.sleep(ctx, a.opts.TeamDelay); err != nil {
				return nil, err
			}
		}
	}
	return rows, nil
}

func (a *Assembler) row(ctx context.Context, token string, m member, window period.ReportWindow, b worktime.Boundaries) (Row, error) {
	absent, err := a.engine.AbsenceDays(ctx, token, m.id, window.Start, window.End)
	if err != nil {
		return Row{}, err
	}
	summary, err := a.agg.Summary(ctx, token, m.id, b)
	if err != nil {
		return Row{}, err
	}

	expected := absence.ExpectedWorkdays(window.Workdays, m.workingHours)
	totalDays := decimal.NewFromInt(int64(expected)).Sub(absent)
	expectedHours := totalDays.Mul(decimal.NewFromInt(worktime.HoursPerDay))

	quota := decimal.Zero
	if !totalDays.IsZero() {
		quota = summary.BillableHours.Div(expectedHours)
	}
	overtime := decimal.Zero
	if !decimal.NewFromInt(int64(expected)).Equal(absent) {
		overtime = summary.TotalHours.Sub(expectedHours)
	}

	return Row{
		EmployeeID:       m.id,
		FirstName:        m.firstName,
		LastName:         m.lastName,
		TotalHours:       summary.TotalHours,
		BillableHours:    summary.BillableHours,
		NonBillableHours: summary.NonBillableHours,
		WorkingDays:      totalDays,
		BillableQuota:    quota,
		OvertimeHours:    overtime.Round(2),
	}, nil
}

type group struct {
	id      string
	members []member
}

// resolve picks the report window and the member groups for teamID.
func (a *Assembler) resolve(ctx context.Context, token, teamID, month string) (period.ReportWindow, []group, error) {
	if teamID == a.opts.StudentsTeamID {
		window, err := period.StudentWindow(month, a.opts.Location)
		if err != nil {
			return window, nil, err
		}
		if err := a.SyncStudents(ctx, token); err != nil {
			a.logger.Warn("student sync failed, using stored tags", "error", err)
			if errors.Is(err, teamleader.ErrUnauthorized) {
				return window, nil, err
			}
		}
		students, err := a.dir.Tagged(ctx, a.opts.StudentTag)
		if err != nil {
			return window, nil, err
		}
		g := group{id: teamID}
		for _, e := range students {
			g.members = append(g.members, fromEmployee(e))
		}
		return window, []group{g}, nil
	}

	window, err := period.MonthWindow(month, a.opts.Location)
	if err != nil {
		return window, nil, err
	}

	var teams []teamleader.Team
	if teamID == a.opts.AllTeamsID {
		teams, err = a.remote.ListTeams(ctx, token)
	} else {
		ids := append([]string{teamID}, a.opts.Aggregate[teamID]...)
		teams, err = a.remote.ListTeams(ctx, token, ids...)
	}
	if err != nil {
		return window, nil, fmt.Errorf("resolving team %s: %w", teamID, err)
	}

	groups := make([]group, 0, len(teams))
	for _, t := range teams {
		g := group{id: t.ID}
		for _, ref := range t.Members {
			g.members = append(g.members, a.lookup(ctx, token, ref.ID))
		}
		groups = append(groups, g)
	}
	return window, groups, nil
}

// lookup takes names and contracted hours from the directory and falls back
// to the provider for people not yet synced.
func (a *Assembler) lookup(ctx context.Context, token, id string) member {
	if e, err := a.dir.Resolve(ctx, id); err == nil {
		return fromEmployee(*e)
	} else if !errors.Is(err, directory.ErrNotFound) {
		a.logger.Warn("directory lookup failed", "user", id, "error", err)
	}

	m := member{id: id, workingHours: directory.DefaultWorkingHours}
	u, err := a.remote.UserInfo(ctx, token, id)
	if err != nil {
		a.logger.Warn("user info unavailable", "user", id, "error", err)
		m.firstName = id
		return m
	}
	m.firstName, m.lastName = u.FirstName, u.LastName
	return m
}

func fromEmployee(e directory.Employee) member {
	return member{id: e.ID, firstName: e.FirstName, lastName: e.LastName, workingHours: e.WorkingHours}
}

// SyncStudents tags every employee listed as a student contact at the
// provider and untags everybody else.
func (a *Assembler) SyncStudents(ctx context.Context, token string) error {
	contacts, err := a.remote.ListContacts(ctx, token, teamleader.ContactFilter{CompanyID: a.opts.CompanyID, Tags: []string{a.opts.StudentTag}})
	if err != nil {
		return fmt.Errorf("listing student contacts: %w", err)
	}
	names := make([]string, 0, len(contacts))
	for _, c := range contacts {
		names = append(names, c.FirstName+" "+c.LastName)
	}
	n, err := a.dir.SyncTag(ctx, a.opts.StudentTag, names)
	if err != nil {
		return err
	}
	a.logger.Debug("students synced", "tagged", n)
	return nil
}

// IllnessReport lists every directory employee with at least one illness
// day in the month.
func (a *Assembler) IllnessReport(ctx context.Context, token, month string) ([]IllnessRow, error) {
	first, last, err := period.MonthBounds(month)
	if err != nil {
		return nil, err
	}
	employees, err := a.dir.List(ctx)
	if err != nil {
		return nil, err
	}

	var rows []IllnessRow
	for _, e := range employees {
		days, err := a.engine.IllnessDays(ctx, token, e.ID, first, last)
		if err != nil {
			return nil, fmt.Errorf("employee %s: %w", e.ID, err)
		}
		if days > 0 {
			rows = append(rows, IllnessRow{Employee: e.Name(), Days: days, Hours: days * worktime.HoursPerDay})
		}
	}
	return rows, nil
}

// Roster labels each member of teamID for every day of p. An empty teamID
// or the all-teams id selects the whole directory.
func (a *Assembler) Roster(ctx context.Context, token, teamID string, p period.Period) ([]RosterRow, error) {
	var employees []directory.Employee
	var err error
	switch teamID {
	case "", a.opts.AllTeamsID:
		employees, err = a.dir.List(ctx)
	case a.opts.StudentsTeamID:
		employees, err = a.dir.Tagged(ctx, a.opts.StudentTag)
	default:
		for _, id := range append([]string{teamID}, a.opts.Aggregate[teamID]...) {
			members, err := a.dir.TeamMembers(ctx, id)
			if err != nil {
				return nil, err
			}
			employees = append(employees, members...)
		}
	}
	if err != nil {
		return nil, err
	}

	rows := make([]RosterRow, 0, len(employees))
	for _, e := range employees {
		labels, err := a.engine.Labels(ctx, token, e.ID, p)
		if err != nil {
			return nil, fmt.Errorf("employee %s: %w", e.ID, err)
		}
		rows = append(rows, RosterRow{EmployeeID: e.ID, Employee: e.Name(), Labels: labels})
	}
	return rows, nil
}
