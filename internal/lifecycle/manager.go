// Package lifecycle applies user intents to the entity store: scheduling
// and closing visits, editing clients and managing tasks.
//
// Intents run one at a time. Each one commits to the store in a single
// transaction, then hands the changed entities to the sync dispatcher
// without waiting for the backend.
package lifecycle

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evcraddock/field-visits/internal/alert"
	"github.com/evcraddock/field-visits/internal/clock"
	"github.com/evcraddock/field-visits/internal/store"
	"github.com/evcraddock/field-visits/internal/syncer"
	"github.com/evcraddock/field-visits/internal/visit"
)

// Syncer receives every committed change. *syncer.Dispatcher implements it.
type Syncer interface {
	Create(kind syncer.Kind, id string, entity any)
	Update(kind syncer.Kind, id string, entity any)
	Delete(kind syncer.Kind, id string)
}

type nopSyncer struct{}

func (nopSyncer) Create(syncer.Kind, string, any) {}
func (nopSyncer) Update(syncer.Kind, string, any) {}
func (nopSyncer) Delete(syncer.Kind, string) {}

// Manager is the single entry point for mutations.
type Manager struct {
	mu    sync.Mutex
	store *store.Store
	clock clock.Clock
	loc   *time.Location
	sink  alert.Sink
	sync  Syncer
	newID func() string
}

// Option configures a Manager.
type Option func(*Manager)

// WithSink sets where schedule confirmations are sent.
func WithSink(s alert.Sink) Option {
	return func(m *Manager) { m.sink = s }
}

// WithSyncer sets the sync dispatcher.
func WithSyncer(s Syncer) Option {
	return func(m *Manager) { m.sync = s }
}

// WithLocation sets the time zone visit dates and times are read in.
func WithLocation(loc *time.Location) Option {
	return func(m *Manager) { m.loc = loc }
}

// WithIDFunc replaces the identifier generator.
func WithIDFunc(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

// New creates a manager over st.
func New(st *store.Store, clk clock.Clock, opts ...Option) *Manager {
	m := &Manager{
		store: st,
		clock: clk,
		loc:   time.Local,
		sink:  alert.SinkFunc(func(string, string) {}),
		sync:  nopSyncer{},
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Location returns the time zone the manager schedules in.
func (m *Manager) Location() *time.Location {
	return m.loc
}

// now returns the current time in the manager's location.
func (m *Manager) now() time.Time {
	return m.clock.Now().In(m.loc)
}

// today returns the current calendar day as YYYY-MM-DD.
func (m *Manager) today() string {
	return m.now().Format(visit.DateLayout)
}
