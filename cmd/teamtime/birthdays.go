package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/christopherklint97/teamtime/internal/roster"
	"github.com/christopherklint97/teamtime/internal/teamleader"
)

var birthdaysCmd = &cobra.Command{
	Use:   "birthdays",
	Short: "Show recent and upcoming birthdays",
	RunE:  runBirthdays,
}

var teamsCmd = &cobra.Command{
	Use:   "teams",
	Short: "List Teamleader teams",
	RunE:  runTeams,
}

func init() {
	rootCmd.AddCommand(birthdaysCmd)
	rootCmd.AddCommand(teamsCmd)
}

func birthdayRows(list []roster.Birthday) [][]string {
	rows := make([][]string, 0, len(list))
	for _, b := range list {
		rows = append(rows, []string{b.Name, b.Birthdate.Format("02.01."), strconv.Itoa(b.Age), b.Status})
	}
	return rows
}

func runBirthdays(cmd *cobra.Command, args []string) error {
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

	contacts, err := a.client.ListContacts(ctx, token, teamleader.ContactFilter{CompanyID: a.cfg.Teamleader.CompanyID})
	if err != nil {
		return fmt.Errorf("listing contacts: %w", err)
	}
	b := roster.Classify(contacts, time.Now().In(a.cfg.Location()))

	headers := []string{"Name", "Geburtstag", "Alter", ""}
	for _, section := range []struct {
		title string
		list  []roster.Birthday
	}{
		{"Heute", b.Today},
		{"Demnächst", b.Future},
		{"Vergangen", b.Past},
	} {
		if len(section.list) == 0 {
			continue
		}
		fmt.Println(titleStyle.Render(section.title))
		fmt.Println(renderTable(headers, birthdayRows(section.list)))
	}
	if len(b.Today)+len(b.Future)+len(b.Past) == 0 {
		fmt.Println(dimStyle.Render("No birthdays in the coming weeks."))
	}
	return nil
}

func runTeams(cmd *cobra.Command, args []string) error {
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

	teams, err := a.client.AllTeams(ctx, token, a.teams)
	if err != nil {
		return fmt.Errorf("listing teams: %w", err)
	}

	aggregate := a.cfg.AggregateTable()
	rows := make([][]string, 0, len(teams))
	for _, t := range teams {
		with := ""
		if ids := aggregate[t.ID]; len(ids) > 0 {
			with = fmt.Sprint(ids)
		}
		rows = append(rows, []string{t.ID, t.Name, strconv.Itoa(len(t.Members)), with})
	}
	fmt.Println(renderTable([]string{"ID", "Team", "Mitglieder", "Zusammen mit"}, rows))
	return nil
}
