package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evcraddock/field-visits/internal/app"
	"github.com/evcraddock/field-visits/internal/auth"
	"github.com/evcraddock/field-visits/internal/logging"
	"github.com/evcraddock/field-visits/internal/web"
)

func newServeCmd() *cobra.Command {
	var addr string
	var dev bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and visit monitor",
		Long: `Start the HTTP API and the visit monitor.

The monitor checks the schedule every minute and raises an alert when a
scheduled visit starts within the alert window (30 minutes by default).
Settings come from ~/.config/fv/server.yaml and FV_* environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), addr, dev)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&dev, "dev", false, "human-readable debug logging")

	return cmd
}

func runServe(ctx context.Context, addr string, dev bool) error {
	cfg, err := loadServerConfig()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if dev {
		cfg.DevMode = true
	}

	closeLog, err := logging.Setup(logging.Options{DevMode: cfg.DevMode, File: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer func() {
		if cerr := closeLog(); cerr != nil {
			fmt.Fprintf(os.Stderr, "warning: closing log file: %v\n", cerr)
		}
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			slog.Error("closing session", "err", cerr)
		}
	}()

	keys := auth.NewAPIKeyStore(sess.DB)
	if existing, err := keys.List(); err == nil && len(existing) == 0 {
		slog.Warn("no API keys yet; create one with 'fv key create <name>'")
	}

	slog.Info("starting fv",
		"addr", cfg.Addr,
		"db", cfg.DBPath,
		"time_zone", sess.Location.String(),
		"monitor", cfg.Monitor.Enabled,
		"window", cfg.Monitor.Window,
	)

	return web.NewServer(sess, keys).ListenAndServe(ctx, cfg.Addr)
}
