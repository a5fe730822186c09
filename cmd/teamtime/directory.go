package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/christopherklint97/teamtime/internal/absence"
	"github.com/christopherklint97/teamtime/internal/directory"
	"github.com/christopherklint97/teamtime/internal/teamleader"
)

const stateLastSync = "last_sync"

var directoryCmd = &cobra.Command{
	Use:     "directory",
	Aliases: []string{"dir"},
	Short:   "Manage local employee settings",
}

var directorySyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh employees and student tags from Teamleader",
	RunE:  runDirectorySync,
}

var directoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List employees and their settings",
	RunE:  runDirectoryList,
}

var directorySetCmd = &cobra.Command{
	Use:   "set <employee-id>",
	Short: "Change hours, vacation entitlement or permissions of an employee",
	Args:  cobra.ExactArgs(1),
	RunE:  runDirectorySet,
}

var directoryImportCmd = &cobra.Command{
	Use:   "import <whitelist.json>",
	Short: "Import a legacy whitelist file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDirectoryImport,
}

func init() {
	directorySetCmd.Flags().Int("hours", 0, "Contracted weekly hours")
	directorySetCmd.Flags().Int("vacation", 0, "Vacation days per year")
	directorySetCmd.Flags().StringSlice("grant", nil, "Features to enable ("+strings.Join(directory.Features, ", ")+")")
	directorySetCmd.Flags().StringSlice("revoke", nil, "Features to disable")

	directoryCmd.AddCommand(directorySyncCmd)
	directoryCmd.AddCommand(directoryListCmd)
	directoryCmd.AddCommand(directorySetCmd)
	directoryCmd.AddCommand(directoryImportCmd)
	rootCmd.AddCommand(directoryCmd)
}

func membersFromUsers(users []teamleader.User) []directory.Member {
	members := make([]directory.Member, 0, len(users))
	for _, u := range users {
		members = append(members, directory.Member{
			ID:        u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			TeamID:    u.TeamID(),
			Role:      u.Function,
		})
	}
	return members
}

func runDirectorySync(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	token, err := a.token(ctx)
	if err != nil {
		return err
	}

	users, err := a.client.ListActiveUsers(ctx, token)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}
	added, err := a.db.Refresh(ctx, membersFromUsers(users))
	if err != nil {
		return err
	}
	if err := a.reports.SyncStudents(ctx, token); err != nil {
		if errors.Is(err, teamleader.ErrUnauthorized) {
			return err
		}
		fmt.Println(warningStyle.Render("Student tags not updated: ") + err.Error())
	}
	if err := a.db.SetState(stateLastSync, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	fmt.Println(successStyle.Render("Directory synced.") + fmt.Sprintf(" %d users, %d new.", len(users), added))
	return nil
}

func permissionList(p directory.Permissions) string {
	var granted []string
	for _, f := range directory.Features {
		if p.Allows(f) {
			granted = append(granted, f)
		}
	}
	sort.Strings(granted)
	return strings.Join(granted, ",")
}

func runDirectoryList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	employees, err := a.db.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(employees) == 0 {
		fmt.Println(dimStyle.Render("Directory is empty. Run 'teamtime directory sync'."))
		return nil
	}

	rows := make([][]string, 0, len(employees))
	for _, e := range employees {
		rows = append(rows, []string{
			e.ID, e.Name(), e.TeamID,
			strconv.Itoa(e.WorkingHours), strconv.Itoa(e.VacationDays),
			e.Tag, permissionList(e.Permissions),
		})
	}
	fmt.Println(renderTable([]string{"ID", "Name", "Team", "Stunden", "Urlaub", "Tag", "Rechte"}, rows))

	if last, err := a.db.GetState(stateLastSync); err == nil && last != "" {
		fmt.Println(dimStyle.Render("Last sync: " + last))
	}
	return nil
}

func runDirectorySet(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	e, err := a.db.Resolve(ctx, args[0])
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("hours") {
		hours, _ := cmd.Flags().GetInt("hours")
		if hours < 0 || hours > 7*24 {
			return fmt.Errorf("weekly hours %d out of range", hours)
		}
		e.WorkingHours = hours
	}
	if cmd.Flags().Changed("vacation") {
		e.VacationDays, _ = cmd.Flags().GetInt("vacation")
	}

	grant, _ := cmd.Flags().GetStringSlice("grant")
	revoke, _ := cmd.Flags().GetStringSlice("revoke")
	if e.Permissions == nil {
		e.Permissions = directory.Permissions{}
	}
	for _, f := range grant {
		if !knownFeature(f) {
			return fmt.Errorf("unknown feature %q", f)
		}
		e.Permissions[f] = true
	}
	for _, f := range revoke {
		if !knownFeature(f) {
			return fmt.Errorf("unknown feature %q", f)
		}
		delete(e.Permissions, f)
	}

	if err := a.db.Save(ctx, *e); err != nil {
		return err
	}
	fmt.Printf("%s %s: %d h/week (%d days), %d vacation days, [%s]\n",
		successStyle.Render("Saved"), e.Name(), e.WorkingHours,
		absence.ExpectedWorkdays(5, e.WorkingHours), e.VacationDays, permissionList(e.Permissions))
	return nil
}

func knownFeature(f string) bool {
	for _, known := range directory.Features {
		if f == known {
			return true
		}
	}
	return false
}

func runDirectoryImport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.db.ImportWhitelist(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("Imported ") + fmt.Sprintf("%d employees from %s", n, args[0]))
	return nil
}
