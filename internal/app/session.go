// Package app wires the engine together for one server session.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/evcraddock/field-visits/internal/alert"
	"github.com/evcraddock/field-visits/internal/clock"
	"github.com/evcraddock/field-visits/internal/config"
	"github.com/evcraddock/field-visits/internal/db"
	"github.com/evcraddock/field-visits/internal/lifecycle"
	"github.com/evcraddock/field-visits/internal/monitor"
	"github.com/evcraddock/field-visits/internal/store"
	"github.com/evcraddock/field-visits/internal/syncer"
)

// Session owns the database, the in-memory store and the background
// workers for as long as the server runs.
type Session struct {
	DB       *sql.DB
	Store    *store.Store
	Manager  *lifecycle.Manager
	Monitor  *monitor.Monitor
	Sync     *syncer.Dispatcher
	Feed     *alert.FeedRepository
	Location *time.Location

	webhook *alert.WebhookSink
	mail    *alert.MailSink
}

// Option adjusts how a session is opened.
type Option func(*options)

type options struct {
	clock   clock.Clock
	backend syncer.Backend
	extra   []alert.Sink
}

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithBackend replaces the SQLite sync backend.
func WithBackend(b syncer.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithAlertSink adds a sink that receives visit alerts and schedule
// confirmations.
func WithAlertSink(s alert.Sink) Option {
	return func(o *options) { o.extra = append(o.extra, s) }
}

// Open loads every entity from the backend into memory, starts the sync
// dispatcher and, when enabled, the visit monitor.
func Open(ctx context.Context, cfg config.Config, opts ...Option) (*Session, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	o := options{clock: clock.NewReal(loc)}
	for _, opt := range opts {
		opt(&o)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	backend := o.backend
	if backend == nil {
		backend = syncer.NewSQLiteBackend(database)
	}
	snap, err := backend.Load()
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("loading data: %w", err)
	}

	st := store.New()
	st.Load(snap)
	slog.Info("data loaded", "clients", len(snap.Clients), "visits", len(snap.Visits), "tasks", len(snap.Tasks))

	s := &Session{
		DB:       database,
		Store:    st,
		Feed:     alert.NewFeedRepository(database),
		Location: loc,
	}

	warnings := alert.NewFeedSink(s.Feed, alert.LevelWarning)
	s.Sync = syncer.NewDispatcher(backend, func(w *syncer.SyncWarning) {
		warnings.Notify("Sync failed", w.Error())
	})

	visitSinks := []alert.Sink{alert.LogSink{}, alert.NewFeedSink(s.Feed, alert.LevelInfo)}
	if cfg.Webhook.URL != "" {
		s.webhook = alert.NewWebhookSink(cfg.Webhook.URL, cfg.Webhook.Secret)
		visitSinks = append(visitSinks, s.webhook)
	}
	if cfg.Mail.Host != "" {
		s.mail = alert.NewMailSink(alert.SMTPConfig{
			Host: cfg.Mail.Host,
			Port: cfg.Mail.Port,
			User: cfg.Mail.User,
			Pass: cfg.Mail.Pass,
			From: cfg.Mail.From,
		}, cfg.Mail.To)
		visitSinks = append(visitSinks, s.mail)
	}
	visitSinks = append(visitSinks, o.extra...)

	confirmSinks := append([]alert.Sink{alert.LogSink{}, alert.NewFeedSink(s.Feed, alert.LevelSuccess)}, o.extra...)

	s.Manager = lifecycle.New(st, o.clock,
		lifecycle.WithLocation(loc),
		lifecycle.WithSink(alert.Multi(confirmSinks...)),
		lifecycle.WithSyncer(s.Sync),
	)
	s.Monitor = monitor.New(st, o.clock, alert.Multi(visitSinks...),
		monitor.WithInterval(cfg.Monitor.Interval),
		monitor.WithWindow(cfg.Monitor.Window),
		monitor.WithLocation(loc),
	)

	s.postUrgentDigest()

	if cfg.Monitor.Enabled {
		s.Monitor.Start(ctx)
	}
	return s, nil
}

// postUrgentDigest adds a feed warning when open high-priority tasks are
// due today.
func (s *Session) postUrgentDigest() {
	n := len(s.Manager.UrgentTasks())
	if n == 0 {
		return
	}
	body := fmt.Sprintf("You have %d urgent tasks due today", n)
	if n == 1 {
		body = "You have 1 urgent task due today"
	}
	if _, err := s.Feed.Add(alert.LevelWarning, "Urgent tasks", body); err != nil {
		slog.Warn("saving urgent task digest", "err", err)
	}
}

// Close stops the monitor, waits for pending sync writes and closes the
// database.
func (s *Session) Close() error {
	s.Monitor.Stop()
	s.Sync.Close()
	if s.webhook != nil {
		s.webhook.Close()
	}
	if s.mail != nil {
		s.mail.Close()
	}
	if err := s.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}
