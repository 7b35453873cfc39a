// Package monitor watches scheduled visits and raises one alert per visit
// shortly before it starts.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/evcraddock/field-visits/internal/alert"
	"github.com/evcraddock/field-visits/internal/clock"
	"github.com/evcraddock/field-visits/internal/store"
	"github.com/evcraddock/field-visits/internal/visit"
)

const (
	// DefaultInterval is how often visits are evaluated.
	DefaultInterval = time.Minute
	// DefaultWindow is how far ahead of a visit an alert may fire.
	DefaultWindow = 30 * time.Minute
)

// Source provides read-only snapshots of the entity store.
type Source interface {
	Snapshot() store.Snapshot
}

// Monitor evaluates the visit set on a fixed interval. Each visit alerts at
// most once for the lifetime of the monitor.
type Monitor struct {
	source   Source
	clock    clock.Clock
	sink     alert.Sink
	interval time.Duration
	window   time.Duration
	loc      *time.Location

	tickMu sync.Mutex

	mu      sync.Mutex
	alerted map[string]struct{}

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the time between ticks.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) { m.interval = d }
}

// WithWindow sets how far ahead a visit becomes eligible for an alert.
func WithWindow(d time.Duration) Option {
	return func(m *Monitor) { m.window = d }
}

// WithLocation sets the time zone visit dates and times are read in.
func WithLocation(loc *time.Location) Option {
	return func(m *Monitor) { m.loc = loc }
}

// New creates a stopped monitor.
func New(src Source, clk clock.Clock, sink alert.Sink, opts ...Option) *Monitor {
	m := &Monitor{
		source:   src,
		clock:    clk,
		sink:     sink,
		interval: DefaultInterval,
		window:   DefaultWindow,
		loc:      time.Local,
		alerted:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Tick evaluates every scheduled visit once and returns how many alerts
// fired. Concurrent calls run one after another.
func (m *Monitor) Tick(ctx context.Context) int {
	m.tickMu.Lock()
	defer m.tickMu.Unlock()

	snap := m.source.Snapshot()
	now := m.clock.Now()
	windowMinutes := int(m.window / time.Minute)

	candidates := make([]*visit.Visit, 0, len(snap.Visits))
	for _, v := range snap.Visits {
		if v.Status == visit.StatusScheduled && !m.Alerted(v.ID) {
			candidates = append(candidates, v)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		return a.ID < b.ID
	})

	fired := 0
	for _, v := range candidates {
		start, err := v.StartsAt(m.loc)
		if err != nil {
			slog.WarnContext(ctx, "skipping visit with bad schedule", "visit_id", v.ID, "err", err)
			continue
		}

		diff := minutesUntil(now, start)
		if diff <= 0 || diff > windowMinutes {
			continue
		}

		c := snap.Client(v.ClientID)
		if c == nil {
			slog.DebugContext(ctx, "skipping visit for missing client", "visit_id", v.ID, "client_id", v.ClientID)
			continue
		}

		m.sink.Notify(fmt.Sprintf("Imminent visit: %s", c.Name), message(v.Type, diff))
		m.record(v.ID)
		fired++
		slog.InfoContext(ctx, "visit alert sent", "visit_id", v.ID, "client", c.Name, "minutes", diff)
	}
	return fired
}

// minutesUntil rounds the gap between now and start to whole minutes, with
// halves rounded up.
func minutesUntil(now, start time.Time) int {
	return int(math.Floor(start.Sub(now).Minutes() + 0.5))
}

func message(t visit.VisitType, minutes int) string {
	unit := "minutes"
	if minutes == 1 {
		unit = "minute"
	}
	return fmt.Sprintf("Your %s visit starts in %d %s.", t.Label(), minutes, unit)
}

func (m *Monitor) record(id string) {
	m.mu.Lock()
	m.alerted[id] = struct{}{}
	m.mu.Unlock()
}

// Alerted reports whether visit id has already alerted.
func (m *Monitor) Alerted(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.alerted[id]
	return ok
}

// RecordSize returns the number of visits that have alerted.
func (m *Monitor) RecordSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.alerted)
}

// Reset forgets every alert sent. Intended for tests.
func (m *Monitor) Reset() {
	m.mu.Lock()
	m.alerted = make(map[string]struct{})
	m.mu.Unlock()
}

// Start runs Tick immediately and then once per interval until ctx is done
// or Stop is called. Starting a running monitor does nothing.
func (m *Monitor) Start(ctx context.Context) {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.Tick(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Tick(ctx)
			}
		}
	}()
	slog.Debug("visit monitor started", "interval", m.interval, "window", m.window)
}

// Stop halts the loop and waits for a tick in progress to finish. The alert
// record is kept, so a restarted monitor does not repeat alerts.
func (m *Monitor) Stop() {
	m.runMu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	slog.Debug("visit monitor stopped")
}
