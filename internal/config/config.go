// Package config loads server settings from the environment, an optional
// .env file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

type Config struct {
	Port       string `mapstructure:"PORT"`
	StaticPath string `mapstructure:"STATIC_PATH"`
	PublicURL  string `mapstructure:"PUBLIC_URL"`
	EnableCORS bool   `mapstructure:"ENABLE_CORS"`

	// DBDriver is sqlite (DBPath) or postgres (DatabaseURL).
	DBDriver    string `mapstructure:"DB_DRIVER"`
	DBPath      string `mapstructure:"DB_PATH"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	TokenTTL  time.Duration `mapstructure:"TOKEN_TTL"`

	// Timezone is the IANA zone in which deadlines end and reminders run.
	Timezone     string `mapstructure:"TIMEZONE"`
	ReminderCron string `mapstructure:"REMINDER_CRON"`
	Locale       string `mapstructure:"LOCALE"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`

	DiscordBotToken  string `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordChannelID string `mapstructure:"DISCORD_CHANNEL_ID"`

	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `mapstructure:"GOOGLE_REDIRECT_URL"`

	location *time.Location
}

var defaults = map[string]any{
	"PORT":                 "8080",
	"STATIC_PATH":          "../frontend/static",
	"PUBLIC_URL":           "http://localhost:8080",
	"ENABLE_CORS":          true,
	"DB_DRIVER":            "sqlite",
	"DB_PATH":              "./data/hangout.db",
	"DATABASE_URL":         "",
	"JWT_SECRET":           "",
	"TOKEN_TTL":            "24h",
	"TIMEZONE":             "Asia/Jakarta",
	"REMINDER_CRON":        "0 9 * * *",
	"LOCALE":               "id",
	"LOG_LEVEL":            "info",
	"LOG_FORMAT":           "text",
	"SMTP_HOST":            "",
	"SMTP_PORT":            587,
	"SMTP_USERNAME":        "",
	"SMTP_PASSWORD":        "",
	"SMTP_FROM":            "",
	"DISCORD_BOT_TOKEN":    "",
	"DISCORD_CHANNEL_ID":   "",
	"GOOGLE_CLIENT_ID":     "",
	"GOOGLE_CLIENT_SECRET": "",
	"GOOGLE_REDIRECT_URL":  "",
}

// Load reads .env (if present), then the file named by CONFIG_FILE (if
// set), then the environment, which wins. The result is validated.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load env file: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("config: PORT is required")
	}

	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			return errors.New("config: DB_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}

	if len(c.JWTSecret) < 16 {
		return errors.New("config: JWT_SECRET is required and must be at least 16 characters")
	}
	if c.TokenTTL <= 0 {
		return errors.New("config: TOKEN_TTL must be positive")
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("config: TIMEZONE %q: %w", c.Timezone, err)
	}
	c.location = loc

	if _, err := cron.ParseStandard(c.ReminderCron); err != nil {
		return fmt.Errorf("config: REMINDER_CRON %q: %w", c.ReminderCron, err)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}

	if c.SMTPEnabled() && c.SMTPFrom == "" {
		return errors.New("config: SMTP_FROM is required when SMTP_HOST is set")
	}
	if c.GoogleClientID != "" && (c.GoogleClientSecret == "" || c.GoogleRedirectURL == "") {
		return errors.New("config: GOOGLE_CLIENT_SECRET and GOOGLE_REDIRECT_URL are required with GOOGLE_CLIENT_ID")
	}
	return nil
}

// Location is the parsed Timezone.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

func (c *Config) DiscordEnabled() bool {
	return c.DiscordBotToken != "" && c.DiscordChannelID != ""
}

func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != ""
}
