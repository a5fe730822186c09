package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Teamleader    TeamleaderConfig   `toml:"teamleader"`
	Organization  OrganizationConfig `toml:"organization"`
	Absence       AbsenceConfig      `toml:"absence"`
	Report        ReportConfig       `toml:"report"`
	Teams         TeamsConfig        `toml:"teams"`
	Notifications NotifyConfig       `toml:"notifications"`
	Server        ServerConfig       `toml:"server"`
}

type TeamleaderConfig struct {
	BaseURL        string `toml:"base_url"`
	ClientID       string `toml:"client_id"`
	ClientSecret   string `toml:"client_secret"`
	RedirectURL    string `toml:"redirect_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	CompanyID      string `toml:"company_id"`
}

type OrganizationConfig struct {
	Region          string `toml:"region"`
	Timezone        string `toml:"timezone"`
	HolidayCalendar string `toml:"holiday_calendar"` // optional ICS URL or file path
	LeaveTypes      string `toml:"leave_types"`      // JSON reference file
}

type AbsenceConfig struct {
	Counted        []string `toml:"counted"`
	VacationFamily []string `toml:"vacation_family"`
	HoursPerDay    float64  `toml:"hours_per_day"`
}

type ReportConfig struct {
	OutputDir        string `toml:"output_dir"`
	TeamDelaySeconds int    `toml:"team_delay_seconds"`
	AllTeamsID       string `toml:"all_teams_id"`
	StudentsTeamID   string `toml:"students_team_id"`
	StudentTag       string `toml:"student_tag"`
}

type TeamsConfig struct {
	Aggregate []Aggregate `toml:"aggregate"`
}

// Aggregate reports the Include teams together with Team.
type Aggregate struct {
	Team    string   `toml:"team"`
	Include []string `toml:"include"`
}

type NotifyConfig struct {
	Enabled bool `toml:"enabled"`
}

type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

func DefaultConfig() Config {
	return Config{
		Teamleader: TeamleaderConfig{
			BaseURL:        "https://api.focus.teamleader.eu",
			RedirectURL:    "http://localhost:8765/callback",
			TimeoutSeconds: 10,
		},
		Organization: OrganizationConfig{
			Region:   "BY",
			Timezone: "Europe/Berlin",
		},
		Absence: AbsenceConfig{
			Counted: []string{
				"Urlaub", "Krankheit", "Berufsschule/FH/Uni", "Elternzeit", "Kind krank",
				"Überstunden", "Mutterschutz", "Kurzarbeit", "Resturlaub", "Resturlaub 2024",
				"Sonderurlaub", "Unbezahlter Urlaub", "Urlaubsdoku_Studis", "Gleitzeit",
			},
			VacationFamily: []string{
				"Urlaub", "Unbezahlter Urlaub", "Urlaubsdokus_Studis", "Sonderurlaub", "Resturlaub",
			},
			HoursPerDay: 8,
		},
		Report: ReportConfig{
			TeamDelaySeconds: 5,
			AllTeamsID:       "-1",
			StudentsTeamID:   "-2",
			StudentTag:       "Student/in",
		},
		Notifications: NotifyConfig{
			Enabled: true,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// ConfigDir is ~/.config/teamtime unless TEAMTIME_CONFIG_DIR is set.
func ConfigDir() (string, error) {
	if dir := os.Getenv("TEAMTIME_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "teamtime"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. A missing file yields the defaults.
// Values from a .env file in the working directory and the environment
// override the file.
func LoadFrom(path string) (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.fillPaths(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TEAMLEADER_CLIENT_ID"); v != "" {
		cfg.Teamleader.ClientID = v
	}
	if v := os.Getenv("TEAMLEADER_CLIENT_SECRET"); v != "" {
		cfg.Teamleader.ClientSecret = v
	}
	if v := os.Getenv("TEAMLEADER_BASE_URL"); v != "" {
		cfg.Teamleader.BaseURL = v
	}
	if v := os.Getenv("TEAMLEADER_REDIRECT_URL"); v != "" {
		cfg.Teamleader.RedirectURL = v
	}
	if v := os.Getenv("TEAMTIME_REGION"); v != "" {
		cfg.Organization.Region = v
	}
	if v := os.Getenv("TEAMTIME_LEAVE_TYPES"); v != "" {
		cfg.Organization.LeaveTypes = v
	}
	if v := os.Getenv("TEAMTIME_TEAM_DELAY_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Report.TeamDelaySeconds = n
		}
	}
	if v := os.Getenv("TEAMTIME_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("PORT"); v != "" && os.Getenv("TEAMTIME_ADDR") == "" {
		cfg.Server.Addr = ":" + v
	}
	if v := os.Getenv("TEAMTIME_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = strings.Split(v, ",")
	}
}

// fillPaths places data files next to the config unless configured.
func (c *Config) fillPaths() error {
	if c.Organization.LeaveTypes != "" && c.Report.OutputDir != "" {
		return nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if c.Organization.LeaveTypes == "" {
		c.Organization.LeaveTypes = filepath.Join(dir, "day_off_type.json")
	}
	if c.Report.OutputDir == "" {
		c.Report.OutputDir = filepath.Join(dir, "downloads")
	}
	return nil
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Organization.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Teamleader.TimeoutSeconds) * time.Second
}

func (c *Config) TeamDelay() time.Duration {
	return time.Duration(c.Report.TeamDelaySeconds) * time.Second
}

// AggregateTable returns the team aggregation as a lookup table.
func (c *Config) AggregateTable() map[string][]string {
	table := make(map[string][]string, len(c.Teams.Aggregate))
	for _, a := range c.Teams.Aggregate {
		table[a.Team] = append(table[a.Team], a.Include...)
	}
	return table
}

func DatabasePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "teamtime.db"), nil
}

func TokenPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "teamleader_token.json"), nil
}

func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// SaveAggregate persists the aggregation of one team to the config file
// using a read-modify-write approach to preserve other settings. An empty
// include list removes the team's entry.
func SaveAggregate(team string, include []string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	cfg := make(map[string]any)

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}
	if len(data) > 0 {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	teams, ok := cfg["teams"].(map[string]any)
	if !ok {
		teams = make(map[string]any)
	}
	var entries []any
	if existing, ok := teams["aggregate"].([]any); ok {
		for _, e := range existing {
			if m, ok := e.(map[string]any); ok && m["team"] == team {
				continue
			}
			entries = append(entries, e)
		}
	}
	if len(include) > 0 {
		entries = append(entries, map[string]any{"team": team, "include": include})
	}
	teams["aggregate"] = entries
	cfg["teams"] = teams

	if err := EnsureConfigDir(); err != nil {
		return err
	}

	out, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, out, 0644)
}
