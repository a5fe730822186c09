package directory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrNotFound = errors.New("employee not found")

// Feature permission keys.
const (
	PermUploadTimes    = "upload_times"
	PermManageTimes    = "manage_times"
	PermAbsence        = "absence"
	PermIllness        = "illness"
	PermBirthday       = "birthday"
	PermVacations      = "vacations"
	PermEmergency      = "emergency"
	PermAuthorizations = "authorizations"
	PermProjects       = "projects"
)

var Features = []string{
	PermUploadTimes, PermManageTimes, PermAbsence, PermIllness, PermBirthday,
	PermVacations, PermEmergency, PermAuthorizations, PermProjects,
}

const (
	DefaultWorkingHours = 40
	DefaultVacationDays = 30
)

type Permissions map[string]bool

func (p Permissions) Allows(feature string) bool {
	return p[feature]
}

type Employee struct {
	ID           string
	FirstName    string
	LastName     string
	TeamID       string
	Role         string
	WorkingHours int
	VacationDays int
	Tag          string
	Permissions  Permissions
	UpdatedAt    time.Time
}

func (e Employee) Name() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// Member is a user as reported by the remote provider.
type Member struct {
	ID        string
	FirstName string
	LastName  string
	TeamID    string
	Role      string
}

const employeeColumns = `id, first_name, last_name, team_id, role, working_hours, vacation_days, tag, permissions, updated_at`

// Resolve returns the employee with the given id or ErrNotFound.
func (db *DB) Resolve(ctx context.Context, id string) (*Employee, error) {
	employees, err := db.queryEmployees(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &employees[0], nil
}

func (db *DB) TeamMembers(ctx context.Context, teamID string) ([]Employee, error) {
	return db.queryEmployees(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE team_id = ? ORDER BY first_name, last_name`, teamID)
}

func (db *DB) Tagged(ctx context.Context, tag string) ([]Employee, error) {
	return db.queryEmployees(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE tag = ? ORDER BY first_name, last_name`, tag)
}

func (db *DB) List(ctx context.Context) ([]Employee, error) {
	return db.queryEmployees(ctx,
		`SELECT `+employeeColumns+` FROM employees ORDER BY first_name, last_name`)
}

// Save upserts every column of e, including local overrides.
func (db *DB) Save(ctx context.Context, e Employee) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsert(ctx, tx, e); err != nil {
		return err
	}
	return tx.Commit()
}

func upsert(ctx context.Context, tx *sql.Tx, e Employee) error {
	if e.WorkingHours <= 0 {
		e.WorkingHours = DefaultWorkingHours
	}
	if e.VacationDays < 0 {
		e.VacationDays = DefaultVacationDays
	}
	perms, err := json.Marshal(e.Permissions)
	if err != nil {
		return fmt.Errorf("marshaling permissions: %w", err)
	}
	if e.Permissions == nil {
		perms = []byte("{}")
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO employees (id, first_name, last_name, team_id, role, working_hours, vacation_days, tag, permissions, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			team_id = excluded.team_id,
			role = excluded.role,
			working_hours = excluded.working_hours,
			vacation_days = excluded.vacation_days,
			tag = excluded.tag,
			permissions = excluded.permissions,
			updated_at = excluded.updated_at`,
		e.ID, e.FirstName, e.LastName, e.TeamID, e.Role, e.WorkingHours, e.VacationDays, e.Tag, string(perms),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving employee %s: %w", e.ID, err)
	}
	return nil
}

// Refresh merges the provider's active-user list into the directory.
// Provider-owned fields are overwritten; hours, tag and permissions of
// known employees are kept. New employees start with the absence view
// enabled. Nobody is deleted. Returns the number of new employees.
func (db *DB) Refresh(ctx context.Context, members []Member) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	added := 0
	now := time.Now().UTC().Format(time.RFC3339)
	for _, m := range members {
		res, err := tx.ExecContext(ctx,
			`UPDATE employees SET first_name = ?, last_name = ?, team_id = ?, role = ?, updated_at = ? WHERE id = ?`,
			m.FirstName, m.LastName, m.TeamID, m.Role, now, m.ID,
		)
		if err != nil {
			return 0, fmt.Errorf("refreshing employee %s: %w", m.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			continue
		}

		err = upsert(ctx, tx, Employee{
			ID:           m.ID,
			FirstName:    m.FirstName,
			LastName:     m.LastName,
			TeamID:       m.TeamID,
			Role:         m.Role,
			WorkingHours: DefaultWorkingHours,
			VacationDays: DefaultVacationDays,
			Permissions:  Permissions{PermAbsence: true},
		})
		if err != nil {
			return 0, err
		}
		added++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing refresh: %w", err)
	}
	return added, nil
}

// SyncTag assigns tag to the employees whose full name is in names and
// clears it from everybody else carrying it.
func (db *DB) SyncTag(ctx context.Context, tag string, names []string) (int, error) {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.ToLower(strings.TrimSpace(n))] = true
	}

	employees, err := db.List(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	tagged := 0
	for _, e := range employees {
		newTag := e.Tag
		switch {
		case wanted[strings.ToLower(e.Name())]:
			newTag = tag
			tagged++
		case e.Tag == tag:
			newTag = ""
		}
		if newTag == e.Tag {
			continue
		}
		if _, err := tx.ExecContext(ctx, `UPDATE employees SET tag = ? WHERE id = ?`, newTag, e.ID); err != nil {
			return 0, fmt.Errorf("tagging employee %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing tags: %w", err)
	}
	return tagged, nil
}

// flexBool accepts JSON booleans as well as "true"/"false" strings, which
// appear in hand-edited whitelist files.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*b = false
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid boolean %s", data)
	}
	*b = flexBool(v)
	return nil
}

// ImportWhitelist loads a legacy whitelist file: a JSON list of objects with
// "id", "employee", "team_id", "working_hours", "vacation_days" and one
// boolean per feature.
func (db *DB) ImportWhitelist(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading whitelist: %w", err)
	}

	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, fmt.Errorf("parsing whitelist: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for i, entry := range raw {
		var e Employee
		var name string
		if err := decodeField(entry, "id", &e.ID); err != nil || e.ID == "" {
			return 0, fmt.Errorf("whitelist entry %d: missing id", i)
		}
		if err := decodeField(entry, "employee", &name); err != nil {
			return 0, fmt.Errorf("whitelist entry %d: %w", i, err)
		}
		e.FirstName, e.LastName = splitName(name)
		if err := decodeField(entry, "team_id", &e.TeamID); err != nil {
			return 0, fmt.Errorf("whitelist entry %d: %w", i, err)
		}

		e.WorkingHours = DefaultWorkingHours
		if err := decodeField(entry, "working_hours", &e.WorkingHours); err != nil {
			return 0, fmt.Errorf("whitelist entry %d: %w", i, err)
		}
		e.VacationDays = DefaultVacationDays
		if err := decodeField(entry, "vacation_days", &e.VacationDays); err != nil {
			return 0, fmt.Errorf("whitelist entry %d: %w", i, err)
		}

		e.Permissions = Permissions{}
		for _, f := range Features {
			var v flexBool
			if err := decodeField(entry, f, &v); err != nil {
				return 0, fmt.Errorf("whitelist entry %d: %s: %w", i, f, err)
			}
			e.Permissions[f] = bool(v)
		}

		if err := upsert(ctx, tx, e); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return len(raw), nil
}

func decodeField(entry map[string]json.RawMessage, key string, dst any) error {
	raw, ok := entry[key]
	if !ok {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	i := strings.LastIndex(name, " ")
	if i < 0 {
		return name, ""
	}
	return name[:i], name[i+1:]
}

func (db *DB) queryEmployees(ctx context.Context, query string, args ...any) ([]Employee, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying employees: %w", err)
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var e Employee
		var perms string
		var updated sql.NullString

		if err := rows.Scan(
			&e.ID, &e.FirstName, &e.LastName, &e.TeamID, &e.Role,
			&e.WorkingHours, &e.VacationDays, &e.Tag, &perms, &updated,
		); err != nil {
			return nil, fmt.Errorf("scanning employee: %w", err)
		}

		e.Permissions = Permissions{}
		if err := json.Unmarshal([]byte(perms), &e.Permissions); err != nil {
			return nil, fmt.Errorf("parsing permissions of %s: %w", e.ID, err)
		}
		if t, err := time.Parse(time.RFC3339, updated.String); err == nil {
			e.UpdatedAt = t
		}

		employees = append(employees, e)
	}
	return employees, rows.Err()
}
