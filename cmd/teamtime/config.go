package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/christopherklint97/teamtime/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open config file in your editor",
	RunE:  runConfig,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

var configAggregateCmd = &cobra.Command{
	Use:   "aggregate <team-id> [team-id...]",
	Short: "Report further teams together with a team",
	Long: `Report further teams together with a team.

Without further team ids the team's aggregation is removed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConfigAggregate,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configAggregateCmd)
	rootCmd.AddCommand(configCmd)
}

func quoted(list []string) string {
	q := make([]string, len(list))
	for i, s := range list {
		q[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(q, ", ") + "]"
}

func defaultConfigFile() string {
	cfg := config.DefaultConfig()
	return fmt.Sprintf(`[teamleader]
client_id = ""
client_secret = ""
redirect_url = "%s"
base_url = "%s"
timeout_seconds = %d
company_id = ""

[organization]
region = "%s"
timezone = "%s"
# holiday_calendar = "https://example.org/holidays.ics"
# leave_types = "/path/to/day_off_type.json"

[absence]
counted = %s
vacation_family = %s
hours_per_day = %.1f

[report]
team_delay_seconds = %d
all_teams_id = "%s"
students_team_id = "%s"
student_tag = "%s"

# [[teams.aggregate]]
# team = "team-id"
# include = ["other-team-id"]

[notifications]
enabled = %t

[server]
addr = "%s"
allowed_origins = []
`,
		cfg.Teamleader.RedirectURL,
		cfg.Teamleader.BaseURL,
		cfg.Teamleader.TimeoutSeconds,
		cfg.Organization.Region,
		cfg.Organization.Timezone,
		quoted(cfg.Absence.Counted),
		quoted(cfg.Absence.VacationFamily),
		cfg.Absence.HoursPerDay,
		cfg.Report.TeamDelaySeconds,
		cfg.Report.AllTeamsID,
		cfg.Report.StudentsTeamID,
		cfg.Report.StudentTag,
		cfg.Notifications.Enabled,
		cfg.Server.Addr,
	)
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.WriteFile(configPath, []byte(defaultConfigFile()), 0600); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	fmt.Printf("Opening %s with %s...\n", configPath, editor)

	proc := os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	}
	process, err := os.StartProcess(editor, []string{editor, configPath}, &proc)
	if err != nil {
		// If editor fails, just print the path
		fmt.Printf("Could not open editor. Config file is at: %s\n", configPath)
		return nil
	}
	_, err = process.Wait()
	return err
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Teamleader.ClientSecret != "" {
		cfg.Teamleader.ClientSecret = "********"
	}

	out, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	path, _ := config.ConfigPath()
	fmt.Println(dimStyle.Render("# " + path))
	fmt.Print(string(out))
	return nil
}

func runConfigAggregate(cmd *cobra.Command, args []string) error {
	team, include := args[0], args[1:]
	if err := config.SaveAggregate(team, include); err != nil {
		return err
	}
	if len(include) == 0 {
		fmt.Println(successStyle.Render("Removed ") + "aggregation of team " + team)
		return nil
	}
	fmt.Println(successStyle.Render("Saved. ") + fmt.Sprintf("Team %s now reports together with %s", team, strings.Join(include, ", ")))
	return nil
}
