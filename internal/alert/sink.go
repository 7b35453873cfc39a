// Package alert delivers user-facing notifications: imminent visit alerts,
// schedule confirmations and sync warnings.
package alert

import (
	"log/slog"
	"sync"
)

// Sink receives notifications. Notify must not block for long and never
// reports failure to the caller.
type Sink interface {
	Notify(title, body string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(title, body string)

// Notify calls f.
func (f SinkFunc) Notify(title, body string) { f(title, body) }

// LogSink writes each notification to the default slog logger.
type LogSink struct{}

// Notify logs the notification at info level.
func (LogSink) Notify(title, body string) {
	slog.Info("notification", "title", title, "body", body)
}

type multi []Sink

// Multi fans a notification out to every sink in order. A sink that panics
// is logged and skipped; the rest still receive the notification.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multi) Notify(title, body string) {
	for _, s := range m {
		safeNotify(s, title, body)
	}
}

func safeNotify(s Sink, title, body string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("alert sink panicked", "title", title, "panic", r)
		}
	}()
	s.Notify(title, body)
}

// Alert is one notification captured by a Recorder.
type Alert struct {
	Title string
	Body  string
}

// Recorder keeps every notification in memory. It is used by tests and by
// the CLI to print what a run produced.
type Recorder struct {
	mu     sync.Mutex
	alerts []Alert
}

// Notify records the notification.
func (r *Recorder) Notify(title, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, Alert{Title: title, Body: body})
}

// Alerts returns a copy of everything recorded so far.
func (r *Recorder) Alerts() []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Alert, len(r.alerts))
	copy(out, r.alerts)
	return out
}

// Len returns the number of recorded notifications.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
}

// Reset discards recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = nil
}
