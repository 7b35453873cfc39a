package alert

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Level is the severity of a feed entry.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// IsValid checks if a level is recognized.
func (l Level) IsValid() bool {
	switch l {
	case LevelInfo, LevelSuccess, LevelWarning, LevelError:
		return true
	}
	return false
}

// Notification is a persisted feed entry.
type Notification struct {
	ID        int64     `json:"id"`
	Level     Level     `json:"level"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedRepository stores notifications in SQLite so the CLI and API can show
// what the running server announced.
type FeedRepository struct {
	db *sql.DB
}

// NewFeedRepository creates a feed repository.
func NewFeedRepository(db *sql.DB) *FeedRepository {
	return &FeedRepository{db: db}
}

// Add saves a notification and returns its ID.
func (r *FeedRepository) Add(level Level, title, body string) (int64, error) {
	if !level.IsValid() {
		return 0, fmt.Errorf("invalid notification level: %q", level)
	}
	result, err := r.db.Exec(
		"INSERT INTO notifications (level, title, body, created_at) VALUES (?, ?, ?, ?)",
		level, title, body, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting notification: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting notification id: %w", err)
	}
	return id, nil
}

// List returns notifications newest first. A limit of zero or less returns
// everything.
func (r *FeedRepository) List(limit int) (items []Notification, err error) {
	q := "SELECT id, level, title, body, created_at FROM notifications ORDER BY id DESC"
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Level, &n.Title, &n.Body, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notifications: %w", err)
	}
	return items, nil
}

// Count returns the number of stored notifications.
func (r *FeedRepository) Count() (int64, error) {
	var n int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM notifications").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting notifications: %w", err)
	}
	return n, nil
}

// Clear deletes every notification.
func (r *FeedRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM notifications"); err != nil {
		return fmt.Errorf("clearing notifications: %w", err)
	}
	return nil
}

// FeedSink writes notifications to a FeedRepository at a fixed level.
type FeedSink struct {
	repo  *FeedRepository
	level Level
}

// NewFeedSink returns a sink that records notifications at level.
func NewFeedSink(repo *FeedRepository, level Level) *FeedSink {
	return &FeedSink{repo: repo, level: level}
}

// Notify stores the notification. Storage errors are logged.
func (f *FeedSink) Notify(title, body string) {
	if _, err := f.repo.Add(f.level, title, body); err != nil {
		slog.Warn("saving notification", "title", title, "err", err)
	}
}
