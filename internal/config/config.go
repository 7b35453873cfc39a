// Package config loads server settings from a YAML file and FV_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata" // zoneinfo for hosts without it

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/evcraddock/field-visits/internal/db"
)

// DefaultTimeZone is where the sales team works.
const DefaultTimeZone = "Africa/Maputo"

// Config holds server configuration. Values come from Default, then the
// YAML file, then the environment.
type Config struct {
	Addr     string        `yaml:"addr" env:"FV_ADDR"`
	DBPath   string        `yaml:"db_path" env:"FV_DB_PATH"`
	DevMode  bool          `yaml:"dev_mode" env:"FV_DEV_MODE"`
	TimeZone string        `yaml:"time_zone" env:"FV_TIME_ZONE"`
	LogFile  string        `yaml:"log_file" env:"FV_LOG_FILE"`
	Monitor  MonitorConfig `yaml:"monitor" envPrefix:"FV_MONITOR_"`
	Webhook  WebhookConfig `yaml:"webhook" envPrefix:"FV_WEBHOOK_"`
	Mail     MailConfig    `yaml:"mail" envPrefix:"FV_MAIL_"`
}

// MonitorConfig controls the imminent visit monitor.
type MonitorConfig struct {
	Enabled  bool          `yaml:"enabled" env:"ENABLED"`
	Interval time.Duration `yaml:"interval" env:"INTERVAL"`
	Window   time.Duration `yaml:"window" env:"WINDOW"`
}

// WebhookConfig points visit alerts at an HTTP notifier. An empty URL
// disables it.
type WebhookConfig struct {
	URL    string `yaml:"url" env:"URL"`
	Secret string `yaml:"secret" env:"SECRET"`
}

// MailConfig sends visit alerts by email. An empty host disables it.
type MailConfig struct {
	Host string   `yaml:"host" env:"HOST"`
	Port string   `yaml:"port" env:"PORT"`
	User string   `yaml:"user" env:"USER"`
	Pass string   `yaml:"pass" env:"PASS"`
	From string   `yaml:"from" env:"FROM"`
	To   []string `yaml:"to" env:"TO" envSeparator:","`
}

// Default returns the built-in configuration.
func Default() Config {
	dbPath, err := db.DefaultPath()
	if err != nil {
		dbPath = "visits.db"
	}
	return Config{
		Addr:     ":8080",
		DBPath:   dbPath,
		TimeZone: DefaultTimeZone,
		Monitor: MonitorConfig{
			Enabled:  true,
			Interval: time.Minute,
			Window:   30 * time.Minute,
		},
		Mail: MailConfig{Port: "587"},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "server.yaml"
	}
	return filepath.Join(home, ".config", "fv", "server.yaml")
}

// Load reads configuration from path and the environment. A missing file
// at the default path is not an error; a missing file named explicitly is.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
	case err != nil:
		return Config{}, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db_path is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be positive, got %s", c.Monitor.Interval)
	}
	if c.Monitor.Window < time.Minute {
		return fmt.Errorf("monitor.window must be at least 1m, got %s", c.Monitor.Window)
	}
	if c.Webhook.URL != "" {
		u, err := url.Parse(c.Webhook.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("webhook.url must be an http(s) URL, got %q", c.Webhook.URL)
		}
	}
	if c.Mail.Host != "" {
		if c.Mail.From == "" {
			return errors.New("mail.from is required when mail.host is set")
		}
		if len(c.Mail.To) == 0 {
			return errors.New("mail.to needs at least one address when mail.host is set")
		}
	}
	return nil
}

// Location returns the time zone visits are scheduled in.
func (c Config) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("time_zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}
