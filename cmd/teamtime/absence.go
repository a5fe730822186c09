package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tj/go-naturaldate"

	"github.com/christopherklint97/teamtime/internal/period"
)

var absenceCmd = &cobra.Command{
	Use:   "absence",
	Short: "Show who is absent on a day or in a week",
	Long: `Show who is absent on a day or in a week.

--date accepts YYYY-MM-DD or phrases such as "today", "yesterday" or
"last friday". --week takes an ISO week such as 2025-W10.`,
	RunE: runAbsence,
}

var vacationCmd = &cobra.Command{
	Use:   "vacation",
	Short: "Show vacation records per employee for a year",
	RunE:  runVacation,
}

func init() {
	absenceCmd.Flags().String("date", "", "Day to show (default: today)")
	absenceCmd.Flags().String("week", "", "ISO week to show, e.g. 2025-W10")
	absenceCmd.Flags().String("team", "", "Team id (default: everybody)")
	absenceCmd.MarkFlagsMutuallyExclusive("date", "week")

	vacationCmd.Flags().Int("year", 0, "Year (default: current year)")

	rootCmd.AddCommand(absenceCmd)
	rootCmd.AddCommand(vacationCmd)
}

// parseDay accepts an ISO date or a natural-language day relative to now.
func parseDay(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, now.Location()); err == nil {
		return t, nil
	}
	t, err := naturaldate.Parse(s, now, naturaldate.WithDirection(naturaldate.Past))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", period.ErrInvalidPeriod, s)
	}
	return t, nil
}

func selectPeriod(cmd *cobra.Command, now time.Time) (period.Period, error) {
	if week, _ := cmd.Flags().GetString("week"); week != "" {
		return period.ParseWeek(week)
	}
	date, _ := cmd.Flags().GetString("date")
	day, err := parseDay(date, now)
	if err != nil {
		return period.Period{}, err
	}
	return period.ForDate(day), nil
}

func runAbsence(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := selectPeriod(cmd, time.Now().In(a.cfg.Location()))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	token, err := a.token(ctx)
	if err != nil {
		return err
	}

	team, _ := cmd.Flags().GetString("team")
	rows, err := a.reports.Roster(ctx, token, team, p)
	if err != nil {
		return err
	}

	headers := []string{"Mitarbeiter"}
	for _, d := range p.Dates {
		headers = append(headers, d.Format("Mon 02.01."))
	}
	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		table = append(table, append([]string{r.Employee}, r.Labels...))
	}

	fmt.Println(titleStyle.Render("Abwesenheiten"))
	fmt.Println(renderTable(headers, table))
	return nil
}

func runVacation(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	year, _ := cmd.Flags().GetInt("year")
	if year == 0 {
		year = time.Now().In(a.cfg.Location()).Year()
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, a.cfg.Location())
	end := time.Date(year, time.December, 31, 23, 59, 59, 0, a.cfg.Location())

	ctx := cmd.Context()
	token, err := a.token(ctx)
	if err != nil {
		return err
	}

	employees, err := a.db.List(ctx)
	if err != nil {
		return err
	}

	table := make([][]string, 0, len(employees))
	for _, e := range employees {
		n, err := a.engine.VacationDays(ctx, token, e.ID, start, end)
		if err != nil {
			return fmt.Errorf("employee %s: %w", e.ID, err)
		}
		table = append(table, []string{e.Name(), strconv.Itoa(n), strconv.Itoa(e.VacationDays)})
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("Urlaub %d", year)))
	fmt.Println(renderTable([]string{"Mitarbeiter", "Urlaubseinträge", "Anspruch"}, table))
	return nil
}
