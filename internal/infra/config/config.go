package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"
	_ "time/tzdata" // zone names must resolve on hosts without a zoneinfo database

	"github.com/joho/godotenv"
)

// Notified store backends.
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Schedule modes.
const (
	ScheduleInterval = "interval"
	ScheduleAnchors  = "anchors"
)

// Mail providers.
const (
	MailBrevo    = "brevo"
	MailSendGrid = "sendgrid"
	MailConsole  = "console"
)

// PortalConfig describes the training portal: the interactive site and its REST gateway.
type PortalConfig struct {
	URL              string
	Username         string
	Password         string
	ProfileName      string // display name shown in the header once logged in
	Organization     string // training-center scope to select
	TokenStorageKey  string
	ClassAPIURL      string
	OrgAPIURL        string
	ParentID         int64
	ExtID            string
	TokenHeader      string
	TimeZone         string
	PageSize         int
	HTTPTimeout      time.Duration
	CourtesyDelayMin time.Duration
	CourtesyDelayMax time.Duration
}

// BrowserConfig controls the automated Chrome instance.
type BrowserConfig struct {
	Bin        string
	Headless   bool
	ProfileDir string
	NoSandbox  bool
}

// MailConfig selects and configures the email provider.
type MailConfig struct {
	Provider       string
	APIKey         string
	SenderEmail    string
	SenderName     string
	Subject        string
	OversightEmail string
}

// StoreConfig selects the NotifiedSet backend.
type StoreConfig struct {
	Backend     string
	FilePath    string
	DatabaseURL string
	SQLitePath  string
}

// ScheduleConfig selects the cycle schedule policy.
type ScheduleConfig struct {
	Mode        string
	Interval    time.Duration
	AnchorHours []int
	TimeZone    string
	RunOnStart  bool
}

// AppConfig holds all configuration for the application
type AppConfig struct {
	LogLevel    string
	Environment string
	Portal      PortalConfig
	Browser     BrowserConfig
	Mail        MailConfig
	Store       StoreConfig
	Schedule    ScheduleConfig
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function.
func FromEnv(getenv func(string) string) (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	cfg.LogLevel = strings.ToLower(getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	// Portal
	p := &cfg.Portal
	p.URL = withDefault(getenv("PORTAL_URL"), "https://atlas.heart.org/")
	for key, dst := range map[string]*string{
		"PORTAL_USERNAME":     &p.Username,
		"PORTAL_PASSWORD":     &p.Password,
		"PORTAL_PROFILE_NAME": &p.ProfileName,
		"PORTAL_ORGANIZATION": &p.Organization,
	} {
		*dst = getenv(key)
		if *dst == "" {
			return nil, fmt.Errorf("%s is not set", key)
		}
	}
	p.TokenStorageKey = withDefault(getenv("PORTAL_TOKEN_KEY"), "userToken")
	p.ClassAPIURL = strings.TrimRight(withDefault(getenv("PORTAL_CLASS_API_URL"), "https://atlas-api-gateway.heart.org/classManagement/v2"), "/")
	p.OrgAPIURL = strings.TrimRight(withDefault(getenv("PORTAL_ORG_API_URL"), "https://atlas-api-gateway.heart.org/orgManagement/v1"), "/")
	p.ExtID = getenv("PORTAL_EXT_ID")
	p.TokenHeader = withDefault(getenv("PORTAL_TOKEN_HEADER"), "x-jwt-token")
	p.TimeZone = withDefault(getenv("PORTAL_TIMEZONE"), "America/New_York")
	if _, err = time.LoadLocation(p.TimeZone); err != nil {
		return nil, fmt.Errorf("invalid PORTAL_TIMEZONE: %w", err)
	}
	if p.ParentID, err = parseInt64(getenv("PORTAL_PARENT_ID"), 18260); err != nil {
		return nil, fmt.Errorf("invalid PORTAL_PARENT_ID: %w", err)
	}
	if p.PageSize, err = parseInt(getenv("PORTAL_PAGE_SIZE"), 100); err != nil || p.PageSize <= 0 {
		return nil, fmt.Errorf("invalid PORTAL_PAGE_SIZE: %q", getenv("PORTAL_PAGE_SIZE"))
	}
	if p.HTTPTimeout, err = parseDuration(getenv("PORTAL_HTTP_TIMEOUT"), 30*time.Second); err != nil {
		return nil, fmt.Errorf("invalid PORTAL_HTTP_TIMEOUT: %w", err)
	}
	if p.CourtesyDelayMin, err = parseDuration(getenv("COURTESY_DELAY_MIN"), time.Second); err != nil {
		return nil, fmt.Errorf("invalid COURTESY_DELAY_MIN: %w", err)
	}
	if p.CourtesyDelayMax, err = parseDuration(getenv("COURTESY_DELAY_MAX"), 3*time.Second); err != nil {
		return nil, fmt.Errorf("invalid COURTESY_DELAY_MAX: %w", err)
	}
	if p.CourtesyDelayMax < p.CourtesyDelayMin {
		return nil, fmt.Errorf("COURTESY_DELAY_MAX (%s) is below COURTESY_DELAY_MIN (%s)", p.CourtesyDelayMax, p.CourtesyDelayMin)
	}

	// Browser
	b := &cfg.Browser
	b.Bin = getenv("BROWSER_BIN")
	b.ProfileDir = withDefault(getenv("BROWSER_PROFILE_DIR"), "data/chrome-profile")
	if b.Headless, err = parseBool(getenv("BROWSER_HEADLESS"), true); err != nil {
		return nil, fmt.Errorf("invalid BROWSER_HEADLESS: %w", err)
	}
	if b.NoSandbox, err = parseBool(getenv("BROWSER_NO_SANDBOX"), true); err != nil {
		return nil, fmt.Errorf("invalid BROWSER_NO_SANDBOX: %w", err)
	}

	// Mail
	m := &cfg.Mail
	m.Provider = strings.ToLower(withDefault(getenv("MAIL_PROVIDER"), MailBrevo))
	m.APIKey = getenv("MAIL_API_KEY")
	m.SenderEmail = getenv("MAIL_SENDER_EMAIL")
	m.SenderName = withDefault(getenv("MAIL_SENDER_NAME"), "Code Blue CPR Services")
	m.Subject = withDefault(getenv("MAIL_SUBJECT"), "New Student Enrollment")
	m.OversightEmail = getenv("OVERSIGHT_EMAIL")
	switch m.Provider {
	case MailBrevo, MailSendGrid:
		if m.APIKey == "" {
			return nil, fmt.Errorf("MAIL_API_KEY is not set (provider %s)", m.Provider)
		}
	case MailConsole:
	default:
		return nil, fmt.Errorf("unknown MAIL_PROVIDER %q", m.Provider)
	}
	if m.SenderEmail == "" {
		return nil, fmt.Errorf("MAIL_SENDER_EMAIL is not set")
	}
	if m.OversightEmail == "" {
		return nil, fmt.Errorf("OVERSIGHT_EMAIL is not set")
	}

	// Notified store
	s := &cfg.Store
	s.Backend = strings.ToLower(withDefault(getenv("NOTIFIED_STORE"), StoreFile))
	s.FilePath = withDefault(getenv("NOTIFIED_FILE"), "data/done_classes.txt")
	s.DatabaseURL = getenv("DATABASE_URL")
	s.SQLitePath = withDefault(getenv("SQLITE_PATH"), "data/notified.db")
	switch s.Backend {
	case StoreFile, StoreSQLite:
	case StorePostgres:
		if s.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is not set")
		}
	default:
		return nil, fmt.Errorf("unknown NOTIFIED_STORE %q", s.Backend)
	}

	// Schedule
	sc := &cfg.Schedule
	sc.Mode = strings.ToLower(withDefault(getenv("SCHEDULE_MODE"), ScheduleInterval))
	sc.TimeZone = withDefault(getenv("SCHEDULE_TIMEZONE"), "America/New_York")
	if _, err = time.LoadLocation(sc.TimeZone); err != nil {
		return nil, fmt.Errorf("invalid SCHEDULE_TIMEZONE: %w", err)
	}
	if sc.Interval, err = parseDuration(getenv("SCHEDULE_INTERVAL"), 12*time.Hour); err != nil || sc.Interval <= 0 {
		return nil, fmt.Errorf("invalid SCHEDULE_INTERVAL: %q", getenv("SCHEDULE_INTERVAL"))
	}
	if sc.AnchorHours, err = parseHours(withDefault(getenv("SCHEDULE_ANCHOR_HOURS"), "9,21")); err != nil {
		return nil, fmt.Errorf("invalid SCHEDULE_ANCHOR_HOURS: %w", err)
	}
	if sc.RunOnStart, err = parseBool(getenv("SCHEDULE_RUN_ON_START"), true); err != nil {
		return nil, fmt.Errorf("invalid SCHEDULE_RUN_ON_START: %w", err)
	}
	switch sc.Mode {
	case ScheduleInterval, ScheduleAnchors:
	default:
		return nil, fmt.Errorf("unknown SCHEDULE_MODE %q", sc.Mode)
	}

	return cfg, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseInt(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func parseInt64(v string, def int64) (int64, error) {
	if v == "" {
		return def, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func parseBool(v string, def bool) (bool, error) {
	if v == "" {
		return def, nil
	}
	return strconv.ParseBool(v)
}

func parseDuration(v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	return time.ParseDuration(v)
}

// parseHours parses a comma-separated list of hours of day, e.g. "9,21".
func parseHours(v string) ([]int, error) {
	parts := strings.Split(v, ",")
	hours := make([]int, 0, len(parts))
	seen := make(map[int]bool, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		h, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		if h < 0 || h > 23 {
			return nil, fmt.Errorf("hour %d out of range 0-23", h)
		}
		if !seen[h] {
			seen[h] = true
			hours = append(hours, h)
		}
	}
	if len(hours) == 0 {
		return nil, fmt.Errorf("no hours given")
	}
	return hours, nil
}
