package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, DefaultTimeZone, cfg.TimeZone)
	assert.True(t, cfg.Monitor.Enabled)
	assert.Equal(t, time.Minute, cfg.Monitor.Interval)
	assert.Equal(t, 30*time.Minute, cfg.Monitor.Window)
	assert.Empty(t, cfg.Webhook.URL)
	assert.Empty(t, cfg.Mail.Host)
	assert.Equal(t, "587", cfg.Mail.Port)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
addr: ":9090"
db_path: /tmp/fv-test.db
time_zone: UTC
monitor:
  interval: 15s
  window: 45m
webhook:
  url: http://127.0.0.1:9999/notify
  secret: abc
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "/tmp/fv-test.db", cfg.DBPath)
	assert.Equal(t, 15*time.Second, cfg.Monitor.Interval)
	assert.Equal(t, 45*time.Minute, cfg.Monitor.Window)
	assert.True(t, cfg.Monitor.Enabled, "unset keys keep their defaults")
	assert.Equal(t, "abc", cfg.Webhook.Secret)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "addr: \":9090\"\ndev_mode: false\n")
	t.Setenv("FV_ADDR", ":7070")
	t.Setenv("FV_DEV_MODE", "true")
	t.Setenv("FV_MONITOR_ENABLED", "false")
	t.Setenv("FV_MONITOR_WINDOW", "10m")
	t.Setenv("FV_WEBHOOK_URL", "https://notify.example.com/hook")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Addr)
	assert.True(t, cfg.DevMode)
	assert.False(t, cfg.Monitor.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.Monitor.Window)
	assert.Equal(t, "https://notify.example.com/hook", cfg.Webhook.URL)
}

func TestMailFromEnv(t *testing.T) {
	path := writeFile(t, "mail:\n  host: smtp.example.com\n  from: fv@example.com\n")
	t.Setenv("FV_MAIL_TO", "ana@example.com,rui@example.com")
	t.Setenv("FV_MAIL_PORT", "465")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com", cfg.Mail.Host)
	assert.Equal(t, "465", cfg.Mail.Port)
	assert.Equal(t, []string{"ana@example.com", "rui@example.com"}, cfg.Mail.To)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	_, err := Load(writeFile(t, "monitor: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown zone", func(c *Config) { c.TimeZone = "Mars/Olympus" }},
		{"zero interval", func(c *Config) { c.Monitor.Interval = 0 }},
		{"tiny window", func(c *Config) { c.Monitor.Window = 30 * time.Second }},
		{"bad webhook", func(c *Config) { c.Webhook.URL = "ftp://host/x" }},
		{"no db", func(c *Config) { c.DBPath = "" }},
		{"mail without from", func(c *Config) { c.Mail = MailConfig{Host: "smtp.example.com", To: []string{"a@example.com"}} }},
		{"mail without recipients", func(c *Config) { c.Mail = MailConfig{Host: "smtp.example.com", From: "fv@example.com"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := Default()

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeZone, loc.String())

	cfg.TimeZone = ""
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}
