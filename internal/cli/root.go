// Package cli defines the cobra command tree for fv.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/field-visits/internal/apiclient"
	"github.com/evcraddock/field-visits/internal/config"
	"github.com/evcraddock/field-visits/internal/db"
)

var (
	flagFormat string
	flagDB     string
	flagConfig string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fv",
		Short:         "Plan and track client visits",
		Long:          "A field-sales tool. Keep a client book, schedule visits, get alerted before they start, and track follow-up tasks from the CLI or the HTTP API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.config/fv/visits.db)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "server config file (default: ~/.config/fv/server.yaml)")

	root.AddCommand(
		newServeCmd(),
		newClientCmd(),
		newVisitCmd(),
		newTaskCmd(),
		newAlertsCmd(),
		newKeyCmd(),
		newConfigCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

// loadServerConfig loads the server config and applies the --db flag.
func loadServerConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	return cfg, nil
}

// openDB opens the SQLite database named by the --db flag or the server
// config. Used by commands that work on the local database directly.
func openDB() (*sql.DB, error) {
	cfg, err := loadServerConfig()
	if err != nil {
		return nil, err
	}
	return db.Open(cfg.DBPath)
}

// newAPIClient creates an HTTP client for the field-visits API.
func newAPIClient() *apiclient.Client {
	return apiclient.New(getServerURL(), getAPIKey())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
