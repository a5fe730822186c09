package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/christopherklint97/teamtime/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build monthly reports",
}

var reportTimeCmd = &cobra.Command{
	Use:   "time",
	Short: "Build the monthly time report of a team",
	Long: `Build the monthly time report of a team.

Use the configured all-teams id (default -1) for every team and the
students id (default -2) for working students, whose month runs from the
16th to the 15th.`,
	RunE: runReportTime,
}

var reportIllnessCmd = &cobra.Command{
	Use:   "illness",
	Short: "Build the monthly illness report",
	RunE:  runReportIllness,
}

func init() {
	reportTimeCmd.Flags().String("team", "", "Team id")
	reportTimeCmd.Flags().String("month", "", "Month as YYYY-MM (default: previous month)")
	reportTimeCmd.Flags().String("format", "csv", "Output format: csv or xlsx")
	reportTimeCmd.Flags().StringP("output", "o", "", "Output file (default: in the configured output directory)")
	_ = reportTimeCmd.MarkFlagRequired("team")

	reportIllnessCmd.Flags().String("month", "", "Month as YYYY-MM (default: previous month)")
	reportIllnessCmd.Flags().StringP("output", "o", "", "Output file (default: in the configured output directory)")

	reportCmd.AddCommand(reportTimeCmd)
	reportCmd.AddCommand(reportIllnessCmd)
	rootCmd.AddCommand(reportCmd)
}

func monthFlag(cmd *cobra.Command, now time.Time) string {
	month, _ := cmd.Flags().GetString("month")
	if month == "" {
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		month = first.AddDate(0, -1, 0).Format("2006-01")
	}
	return month
}

func outputPath(cmd *cobra.Command, dir, name string) string {
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		return out
	}
	return filepath.Join(dir, name)
}

func runReportTime(cmd *cobra.Command, args []string) error {
	team, _ := cmd.Flags().GetString("team")
	format, _ := cmd.Flags().GetString("format")

	write := report.WriteTimeCSV
	switch format {
	case "csv":
	case "xlsx":
		write = report.WriteTimeXLSX
	default:
		return fmt.Errorf("unknown format %q, expected csv or xlsx", format)
	}

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

	month := monthFlag(cmd, time.Now().In(a.cfg.Location()))
	rows, err := a.reports.TimeReport(ctx, token, team, month)
	if err != nil {
		return fmt.Errorf("building time report: %w", err)
	}

	path := outputPath(cmd, a.cfg.Report.OutputDir, fmt.Sprintf("zeiten_%s_%s.%s", team, month, format))
	if err := report.SaveFile(path, func(w io.Writer) error { return write(w, rows) }); err != nil {
		return fmt.Errorf("saving report: %w", err)
	}

	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		table = append(table, []string{
			r.FirstName + " " + r.LastName,
			r.TotalHours.StringFixed(2),
			r.BillableHours.StringFixed(2),
			r.WorkingDays.String(),
			r.BillableQuota.Shift(2).StringFixed(1) + " %",
			r.OvertimeHours.StringFixed(2),
		})
	}
	fmt.Println(titleStyle.Render(fmt.Sprintf("Zeitbericht %s, Team %s", month, team)))
	fmt.Println(renderTable([]string{"Mitarbeiter", "Erfasst", "Abrechenbar", "Arbeitstage", "Quote", "Überstunden"}, table))
	fmt.Println(successStyle.Render("Saved ") + path)

	a.notifier.Send(fmt.Sprintf("Zeitbericht %s für Team %s ist fertig", month, team))
	return nil
}

func runReportIllness(cmd *cobra.Command, args []string) error {
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

	month := monthFlag(cmd, time.Now().In(a.cfg.Location()))
	rows, err := a.reports.IllnessReport(ctx, token, month)
	if err != nil {
		return fmt.Errorf("building illness report: %w", err)
	}

	path := outputPath(cmd, a.cfg.Report.OutputDir, fmt.Sprintf("krankheit_%s.csv", month))
	if err := report.SaveFile(path, func(w io.Writer) error { return report.WriteIllnessCSV(w, rows) }); err != nil {
		return fmt.Errorf("saving report: %w", err)
	}

	if len(rows) == 0 {
		fmt.Println(dimStyle.Render("No illness days in " + month + "."))
	} else {
		table := make([][]string, 0, len(rows))
		for _, r := range rows {
			table = append(table, []string{r.Employee, strconv.Itoa(r.Days), strconv.Itoa(r.Hours)})
		}
		fmt.Println(titleStyle.Render("Krankheitstage " + month))
		fmt.Println(renderTable(report.IllnessHeader, table))
	}
	fmt.Println(successStyle.Render("Saved ") + path)

	a.notifier.Send("Krankheitsbericht " + month + " ist fertig")
	return nil
}
