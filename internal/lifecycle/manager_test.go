package lifecycle

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/evcraddock/field-visits/internal/alert"
	"github.com/evcraddock/field-visits/internal/client"
	"github.com/evcraddock/field-visits/internal/clock"
	"github.com/evcraddock/field-visits/internal/store"
	"github.com/evcraddock/field-visits/internal/syncer"
)

var cat = time.FixedZone("CAT", 2*60*60)

type syncCall struct {
	Op   syncer.Op
	Kind syncer.Kind
	ID   string
}

type recordingSyncer struct {
	mu    sync.Mutex
	calls []syncCall
}

func (r *recordingSyncer) add(op syncer.Op, kind syncer.Kind, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, syncCall{op, kind, id})
}

func (r *recordingSyncer) Create(kind syncer.Kind, id string, _ any) { r.add(syncer.OpCreate, kind, id) }
func (r *recordingSyncer) Update(kind syncer.Kind, id string, _ any) { r.add(syncer.OpUpdate, kind, id) }
func (r *recordingSyncer) Delete(kind syncer.Kind, id string) { r.add(syncer.OpDelete, kind, id) }

func (r *recordingSyncer) Calls() []syncCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]syncCall(nil), r.calls...)
}

type fixture struct {
	m     *Manager
	store *store.Store
	clock *clock.Manual
	sink  *alert.Recorder
	sync  *recordingSyncer
}

// newFixture returns a manager at 2026-02-08 07:00 CAT with one client "c1"
// whose prospecting counter is zero.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.New()
	st.Load(store.Snapshot{Clients: []*client.Client{{
		ID: "c1", Name: "Hotel VIP Executive", Area: client.AreaCity,
		Classification: client.Hot, ContactPerson: "Carlos",
	}}})

	f := &fixture{
		store: st,
		clock: clock.NewManual(time.Date(2026, 2, 8, 7, 0, 0, 0, cat)),
		sink:  &alert.Recorder{},
		sync:  &recordingSyncer{},
	}
	n := 0
	f.m = New(st, f.clock,
		WithLocation(cat),
		WithSink(f.sink),
		WithSyncer(f.sync),
		WithIDFunc(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	return f
}

func (f *fixture) counter(t *testing.T, clientID string) int {
	t.Helper()
	c, ok := f.store.GetClient(clientID)
	require.True(t, ok)
	return c.ProspectingCount
}
