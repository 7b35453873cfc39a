package syncer

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// ErrClosed is reported for work enqueued after Close.
var ErrClosed = errors.New("sync dispatcher closed")

// Op is the kind of backend write.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Status is the sync state of one entity.
type Status string

const (
	StatusPending Status = "pending"
	StatusSynced  Status = "synced"
	StatusFailed  Status = "failed"
)

// State describes where an entity stands with the backend.
type State struct {
	Status    Status    `json:"status"`
	Op        Op        `json:"op"`
	Error     string    `json:"error,omitempty"`
	RemoteID  string    `json:"remote_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Entry is a State together with the entity it belongs to.
type Entry struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
	State
}

// SyncWarning reports a backend write that did not succeed. The local
// change stays in place.
type SyncWarning struct {
	Op   Op
	Kind Kind
	ID   string
	Err  error
}

func (w *SyncWarning) Error() string {
	return fmt.Sprintf("sync %s %s %s: %v", w.Op, w.Kind, w.ID, w.Err)
}

func (w *SyncWarning) Unwrap() error { return w.Err }

// WarningFunc is called from the dispatcher goroutine for each failed write.
type WarningFunc func(*SyncWarning)

type key struct {
	kind Kind
	id   string
}

type job struct {
	op     Op
	key    key
	entity any
}

// Dispatcher applies writes to a Backend one at a time, in the order they
// were enqueued.
type Dispatcher struct {
	backend   Backend
	onWarning WarningFunc
	now       func() time.Time

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []job
	inflight bool
	closed   bool
	states   map[key]State
	queued   map[key]int
	done     chan struct{}
}

// NewDispatcher starts a dispatcher writing to backend. onWarning may be nil.
func NewDispatcher(backend Backend, onWarning WarningFunc) *Dispatcher {
	d := &Dispatcher{
		backend:   backend,
		onWarning: onWarning,
		now:       time.Now,
		states:    make(map[key]State),
		queued:    make(map[key]int),
		done:      make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	go d.run()
	return d
}

// Create enqueues a create.
func (d *Dispatcher) Create(kind Kind, id string, entity any) {
	d.enqueue(job{op: OpCreate, key: key{kind, id}, entity: entity})
}

// Update enqueues an update.
func (d *Dispatcher) Update(kind Kind, id string, entity any) {
	d.enqueue(job{op: OpUpdate, key: key{kind, id}, entity: entity})
}

// Delete enqueues a delete.
func (d *Dispatcher) Delete(kind Kind, id string) {
	d.enqueue(job{op: OpDelete, key: key{kind, id}})
}

func (d *Dispatcher) enqueue(j job) {
	d.mu.Lock()
	if d.closed {
		d.states[j.key] = State{Status: StatusFailed, Op: j.op, Error: ErrClosed.Error(), UpdatedAt: d.now()}
		d.mu.Unlock()
		d.warn(&SyncWarning{Op: j.op, Kind: j.key.kind, ID: j.key.id, Err: ErrClosed})
		return
	}
	d.queue = append(d.queue, j)
	d.queued[j.key]++
	d.states[j.key] = State{Status: StatusPending, Op: j.op, UpdatedAt: d.now()}
	d.cond.Broadcast()
	d.mu.Unlock()
}

// State returns the sync state of an entity. ok is false for entities the
// dispatcher has never seen.
func (d *Dispatcher) State(kind Kind, id string) (State, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.states[key{kind, id}]
	return s, ok
}

// Pending returns every entity that is not yet synced, failed ones
// included, ordered by kind and ID.
func (d *Dispatcher) Pending() []Entry {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []Entry
	for k, s := range d.states {
		if s.Status == StatusSynced {
			continue
		}
		out = append(out, Entry{Kind: k.kind, ID: k.id, State: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Flush blocks until every write enqueued so far has been attempted.
func (d *Dispatcher) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for len(d.queue) > 0 || d.inflight {
		d.cond.Wait()
	}
}

// Close stops accepting work, drains the queue and waits for the worker to
// exit. It is safe to call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		d.cond.Broadcast()
	}
	d.mu.Unlock()
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		j := d.queue[0]
		d.queue[0] = job{}
		d.queue = d.queue[1:]
		d.inflight = true
		d.mu.Unlock()

		remoteID, err := d.apply(j)

		d.mu.Lock()
		d.inflight = false
		d.queued[j.key]--
		st := State{Op: j.op, UpdatedAt: d.now(), RemoteID: remoteID}
		switch {
		case err != nil:
			st.Status = StatusFailed
			st.Error = err.Error()
		case d.queued[j.key] > 0:
			st.Status = StatusPending
		default:
			st.Status = StatusSynced
		}
		if d.queued[j.key] <= 0 {
			delete(d.queued, j.key)
		}
		if st.RemoteID == "" {
			st.RemoteID = d.states[j.key].RemoteID
		}
		d.states[j.key] = st
		d.cond.Broadcast()
		d.mu.Unlock()

		if err != nil {
			d.warn(&SyncWarning{Op: j.op, Kind: j.key.kind, ID: j.key.id, Err: err})
		}
	}
}

func (d *Dispatcher) apply(j job) (string, error) {
	switch j.op {
	case OpCreate:
		id, err := d.backend.CreateEntity(j.key.kind, j.entity)
		if err != nil {
			return "", err
		}
		if id != "" && id != j.key.id {
			slog.Warn("backend assigned a different id", "kind", j.key.kind, "id", j.key.id, "remote_id", id)
		}
		return id, nil
	case OpUpdate:
		return "", d.backend.UpdateEntity(j.key.kind, j.key.id, j.entity)
	case OpDelete:
		return "", d.backend.DeleteEntity(j.key.kind, j.key.id)
	default:
		return "", fmt.Errorf("unknown sync op %q", j.op)
	}
}

func (d *Dispatcher) warn(w *SyncWarning) {
	slog.Warn("sync failed", "op", w.Op, "kind", w.Kind, "id", w.ID, "err", w.Err)
	if d.onWarning == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("sync warning handler panicked", "panic", r)
		}
	}()
	d.onWarning(w)
}
