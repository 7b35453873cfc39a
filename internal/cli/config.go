package cli

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const defaultServerURL = "http://localhost:8080"

// CLIConfig holds CLI configuration persisted to disk.
type CLIConfig struct {
	ServerURL string `yaml:"server_url,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
}

// configPath returns the path to the CLI config file.
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "fv", "config.yaml"), nil
}

// loadConfig reads the CLI config from disk.
// Returns a zero-value config if the file doesn't exist.
func loadConfig() (CLIConfig, error) {
	path, err := configPath()
	if err != nil {
		return CLIConfig{}, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return CLIConfig{}, nil
	}
	if err != nil {
		return CLIConfig{}, fmt.Errorf("reading config: %w", err)
	}

	var cfg CLIConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// saveConfig writes the CLI config to disk. The file holds an API key, so
// it is readable by the owner only.
func saveConfig(cfg CLIConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// getServerURL returns the server URL from env var, config, or default.
func getServerURL() string {
	if v := os.Getenv("FV_SERVER_URL"); v != "" {
		return v
	}
	cfg, err := loadConfig()
	if err == nil && cfg.ServerURL != "" {
		return cfg.ServerURL
	}
	return defaultServerURL
}

// getAPIKey returns the API key from env var or config.
func getAPIKey() string {
	if v := os.Getenv("FV_API_KEY"); v != "" {
		return v
	}
	cfg, err := loadConfig()
	if err == nil {
		return cfg.APIKey
	}
	return ""
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI settings",
		Long:  "Show or change the server URL and API key the CLI uses. FV_SERVER_URL and FV_API_KEY override the saved values.",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set-server <url>",
			Short: "Set the API server URL",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSetServer(args[0])
			},
		},
		&cobra.Command{
			Use:   "set-key <key>",
			Short: "Set the API key",
			Long:  "Save an API key created with 'fv key create' on the server host.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSetKey(args[0])
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Show the effective settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigShow()
			},
		},
	)

	return cmd
}

func runSetServer(raw string) error {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server URL: %q", raw)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.ServerURL = raw
	if err := saveConfig(cfg); err != nil {
		return err
	}

	fmt.Printf("Server set to %s\n", raw)
	return nil
}

func runSetKey(key string) error {
	key = strings.TrimSpace(key)
	if !strings.HasPrefix(key, "fv_") {
		return fmt.Errorf("API keys start with fv_")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.APIKey = key
	if err := saveConfig(cfg); err != nil {
		return err
	}

	fmt.Println("API key saved.")
	return nil
}

func runConfigShow() error {
	server := getServerURL()
	key := getAPIKey()

	if isJSON() {
		return printJSON(map[string]interface{}{
			"server_url":     server,
			"api_key_prefix": keyPrefix(key),
		})
	}

	fmt.Printf("Server:  %s\n", server)
	if key == "" {
		fmt.Println("API Key: not configured")
		return nil
	}
	fmt.Printf("API Key: %s…\n", keyPrefix(key))
	return nil
}

// keyPrefix returns the first 8 characters of key for display.
func keyPrefix(key string) string {
	if len(key) > 8 {
		return key[:8]
	}
	return key
}
