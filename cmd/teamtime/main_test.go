package main

import (
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/teamtime/internal/config"
	"github.com/christopherklint97/teamtime/internal/period"
	"github.com/christopherklint97/teamtime/internal/teamleader"
)

func TestParseDay(t *testing.T) {
	now := time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)

	got, err := parseDay("2025-03-04", now)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-04", got.Format("2006-01-02"))

	got, err = parseDay("", now)
	require.NoError(t, err)
	assert.Equal(t, now, got)

	got, err = parseDay("yesterday", now)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-11", got.Format("2006-01-02"))
}

func TestSelectPeriod(t *testing.T) {
	now := time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)

	cmd := &cobra.Command{}
	cmd.Flags().String("date", "", "")
	cmd.Flags().String("week", "", "")

	p, err := selectPeriod(cmd, now)
	require.NoError(t, err)
	assert.Equal(t, period.KindDate, p.Kind)
	assert.Equal(t, "2025-03-12", p.Focal().Format("2006-01-02"))

	require.NoError(t, cmd.Flags().Set("week", "2025-W11"))
	p, err = selectPeriod(cmd, now)
	require.NoError(t, err)
	assert.Equal(t, period.KindWeek, p.Kind)
	assert.Equal(t, "2025-03-10", p.Dates[0].Format("2006-01-02"))

	require.NoError(t, cmd.Flags().Set("week", "2025-11"))
	_, err = selectPeriod(cmd, now)
	assert.ErrorIs(t, err, period.ErrInvalidPeriod)
}

func TestMonthFlag(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("month", "", "")

	now := time.Date(2025, time.January, 31, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-12", monthFlag(cmd, now))

	require.NoError(t, cmd.Flags().Set("month", "2025-03"))
	assert.Equal(t, "2025-03", monthFlag(cmd, now))
}

func TestMembersFromUsers(t *testing.T) {
	members := membersFromUsers([]teamleader.User{
		{ID: "u1", FirstName: "Anna", LastName: "Alpha", Function: "Dev", Teams: []teamleader.Ref{{ID: "t1"}, {ID: "t2"}}},
		{ID: "u2", FirstName: "Ben", LastName: "Beta"},
	})
	require.Len(t, members, 2)
	assert.Equal(t, "t1", members[0].TeamID)
	assert.Equal(t, "Dev", members[0].Role)
	assert.Empty(t, members[1].TeamID)
}

func TestDefaultConfigFileParses(t *testing.T) {
	var cfg config.Config
	require.NoError(t, toml.Unmarshal([]byte(defaultConfigFile()), &cfg))

	def := config.DefaultConfig()
	assert.Equal(t, def.Organization, cfg.Organization)
	assert.Equal(t, def.Absence, cfg.Absence)
	assert.Equal(t, def.Report, cfg.Report)
	assert.True(t, cfg.Notifications.Enabled)
}
