package directory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "teamtime.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestResolve_NotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Resolve(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveAndResolve(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Save(ctx, Employee{
		ID:           "u1",
		FirstName:    "Anna",
		LastName:     "Berger",
		TeamID:       "t1",
		WorkingHours: 20,
		Permissions:  Permissions{PermManageTimes: true},
	}))

	e, err := db.Resolve(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Anna Berger", e.Name())
	assert.Equal(t, 20, e.WorkingHours)
	assert.True(t, e.Permissions.Allows(PermManageTimes))
	assert.False(t, e.Permissions.Allows(PermIllness))
	assert.False(t, e.UpdatedAt.IsZero())

	e.WorkingHours = 0
	require.NoError(t, db.Save(ctx, *e))
	e, err = db.Resolve(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, DefaultWorkingHours, e.WorkingHours)
}

func TestRefresh_KeepsOverrides(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Save(ctx, Employee{
		ID: "u1", FirstName: "Anna", LastName: "Alt", TeamID: "t1",
		WorkingHours: 30, Tag: "Student/in",
		Permissions: Permissions{PermIllness: true},
	}))

	added, err := db.Refresh(ctx, []Member{
		{ID: "u1", FirstName: "Anna", LastName: "Neu", TeamID: "t2"},
		{ID: "u2", FirstName: "Ben", LastName: "Kurz", TeamID: "t2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	u1, err := db.Resolve(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Neu", u1.LastName)
	assert.Equal(t, "t2", u1.TeamID)
	assert.Equal(t, 30, u1.WorkingHours)
	assert.Equal(t, "Student/in", u1.Tag)
	assert.True(t, u1.Permissions.Allows(PermIllness))

	u2, err := db.Resolve(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, DefaultWorkingHours, u2.WorkingHours)
	assert.True(t, u2.Permissions.Allows(PermAbsence))

	members, err := db.TeamMembers(ctx, "t2")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "Anna", members[0].FirstName)
}

func TestSyncTag(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Refresh(ctx, []Member{
		{ID: "u1", FirstName: "Anna", LastName: "Berger"},
		{ID: "u2", FirstName: "Ben", LastName: "Kurz"},
		{ID: "u3", FirstName: "Cleo", LastName: "Lang"},
	})
	require.NoError(t, err)
	require.NoError(t, db.Save(ctx, Employee{ID: "u3", FirstName: "Cleo", LastName: "Lang", Tag: "Student/in"}))

	n, err := db.SyncTag(ctx, "Student/in", []string{"anna berger", "Ben Kurz"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	students, err := db.Tagged(ctx, "Student/in")
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "u1", students[0].ID)
	assert.Equal(t, "u2", students[1].ID)
}

func TestImportWhitelist(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "whitelist.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": "u1", "employee": "Anna Maria Berger", "team_id": "t1", "working_hours": 20,
		 "manage_times": true, "absence": "false", "illness": "true"},
		{"id": "u2", "employee": "Ben", "team_id": "t1"}
	]`), 0644))

	n, err := db.ImportWhitelist(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	u1, err := db.Resolve(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Anna Maria", u1.FirstName)
	assert.Equal(t, "Berger", u1.LastName)
	assert.Equal(t, 20, u1.WorkingHours)
	assert.Equal(t, DefaultVacationDays, u1.VacationDays)
	assert.True(t, u1.Permissions.Allows(PermManageTimes))
	assert.True(t, u1.Permissions.Allows(PermIllness))
	assert.False(t, u1.Permissions.Allows(PermAbsence))

	u2, err := db.Resolve(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "Ben", u2.Name())
	assert.Equal(t, DefaultWorkingHours, u2.WorkingHours)
}

func TestImportWhitelist_Invalid(t *testing.T) {
	db := openTestDB(t)
	path := filepath.Join(t.TempDir(), "whitelist.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"employee": "No Id"}]`), 0644))

	_, err := db.ImportWhitelist(context.Background(), path)
	assert.Error(t, err)

	list, err := db.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestState(t *testing.T) {
	db := openTestDB(t)

	v, err := db.GetState("last_sync")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, db.SetState("last_sync", "2025-03-01"))
	require.NoError(t, db.SetState("last_sync", "2025-03-02"))
	v, err = db.GetState("last_sync")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-02", v)
}
