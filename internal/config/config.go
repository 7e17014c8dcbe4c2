package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendSheets = "sheets"
	BackendMemory = "memory"
)

// App holds the runtime configuration loaded from the environment.
type App struct {
	Env             string        `mapstructure:"APP_ENV"`
	HTTPPort        string        `mapstructure:"HTTP_PORT"`
	AdminPassword   string        `mapstructure:"ADMIN_PASSWORD"`
	JWTIssuer       string        `mapstructure:"JWT_ISSUER"`
	JWTSigningKey   string        `mapstructure:"JWT_SIGNING_KEY"`
	AdminTokenTTL   time.Duration `mapstructure:"ADMIN_TOKEN_TTL"`
	StoreBackend    string        `mapstructure:"STORE_BACKEND"`
	SpreadsheetID   string        `mapstructure:"SPREADSHEET_ID"`
	CredentialsFile string        `mapstructure:"GOOGLE_CREDENTIALS_FILE"`
	CredentialsJSON string        `mapstructure:"GOOGLE_CREDENTIALS_JSON"`
	EventsSheet     string        `mapstructure:"EVENTS_SHEET"`
	AttendanceSheet string        `mapstructure:"ATTENDANCE_SHEET"`
	StoreTimeout    time.Duration `mapstructure:"STORE_TIMEOUT"`
	Timezone        string        `mapstructure:"TIMEZONE"`
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RateLimitPerMin int           `mapstructure:"RATE_LIMIT_PER_MIN"`
	DefaultLocale   string        `mapstructure:"DEFAULT_LOCALE"`
	CORSOrigins     []string      `mapstructure:"CORS_ORIGINS"`

	loc *time.Location
}

var defaults = map[string]any{
	"APP_ENV":                 "dev",
	"HTTP_PORT":               "8080",
	"ADMIN_PASSWORD":          "",
	"JWT_ISSUER":              "geopresence",
	"JWT_SIGNING_KEY":         "",
	"ADMIN_TOKEN_TTL":         "8h",
	"STORE_BACKEND":           BackendSheets,
	"SPREADSHEET_ID":          "",
	"GOOGLE_CREDENTIALS_FILE": "",
	"GOOGLE_CREDENTIALS_JSON": "",
	"EVENTS_SHEET":            "Eventos",
	"ATTENDANCE_SHEET":        "Presenças",
	"STORE_TIMEOUT":           "10s",
	"TIMEZONE":                "America/Sao_Paulo",
	"REDIS_ADDR":              "",
	"RATE_LIMIT_PER_MIN":      60,
	"DEFAULT_LOCALE":          "pt-BR",
	"CORS_ORIGINS":            []string{"*"},
}

// Load reads an optional .env file, then the environment, and validates the result.
func Load() (App, error) {
	// .env is optional; real deployments pass variables directly.
	_ = godotenv.Load()

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	var cfg App
	if err := v.Unmarshal(&cfg); err != nil {
		return App{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return App{}, err
	}
	return cfg, nil
}

// Location is the reference time zone for event dates.
func (c App) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// IsProd reports whether the service runs in production mode.
func (c App) IsProd() bool {
	return strings.EqualFold(c.Env, "prod") || strings.EqualFold(c.Env, "production")
}

func (c *App) validate() error {
	if strings.TrimSpace(c.AdminPassword) == "" {
		return errors.New("config: ADMIN_PASSWORD is required")
	}
	if c.JWTSigningKey == "" {
		if c.IsProd() {
			return errors.New("config: JWT_SIGNING_KEY is required in production")
		}
		c.JWTSigningKey = "dev-" + c.AdminPassword
	}
	if c.AdminTokenTTL <= 0 {
		return fmt.Errorf("config: ADMIN_TOKEN_TTL must be positive, got %s", c.AdminTokenTTL)
	}

	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	switch c.StoreBackend {
	case BackendMemory:
	case BackendSheets:
		if c.SpreadsheetID == "" {
			return errors.New("config: SPREADSHEET_ID is required for the sheets backend")
		}
		if c.CredentialsFile == "" && c.CredentialsJSON == "" {
			return errors.New("config: GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON is required for the sheets backend")
		}
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.EventsSheet == "" || c.AttendanceSheet == "" {
		return errors.New("config: EVENTS_SHEET and ATTENDANCE_SHEET must not be empty")
	}
	if c.StoreTimeout < 0 {
		return fmt.Errorf("config: STORE_TIMEOUT must not be negative, got %s", c.StoreTimeout)
	}
	if c.RateLimitPerMin < 0 {
		return fmt.Errorf("config: RATE_LIMIT_PER_MIN must not be negative, got %d", c.RateLimitPerMin)
	}

	if len(c.CORSOrigins) == 0 {
		return errors.New("config: CORS_ORIGINS must list at least one origin")
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("config: invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	c.loc = loc
	return nil
}
