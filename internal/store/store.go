// Package store holds the authoritative in-memory copy of clients, visits
// and tasks for a session.
//
// Writes go through Update, which stages every change on a private copy of
// the state and swaps it in only when the callback succeeds. Readers always
// receive deep copies and never observe a half-applied intent.
package store

import (
	"sort"
	"sync"

	"github.com/evcraddock/field-visits/internal/client"
	"github.com/evcraddock/field-visits/internal/task"
	"github.com/evcraddock/field-visits/internal/visit"
)

// Snapshot is a point-in-time copy of every collection.
type Snapshot struct {
	Clients []*client.Client `json:"clients"`
	Visits  []*visit.Visit   `json:"visits"`
	Tasks   []*task.Task     `json:"tasks"`
}

// Client returns the client with id, or nil.
func (s Snapshot) Client(id string) *client.Client {
	for _, c := range s.Clients {
		if c.ID == id {
			return c
		}
	}
	return nil
}

type state struct {
	clients map[string]*client.Client
	visits  map[string]*visit.Visit
	tasks   map[string]*task.Task
}

func newState() state {
	return state{
		clients: map[string]*client.Client{},
		visits:  map[string]*visit.Visit{},
		tasks:   map[string]*task.Task{},
	}
}

func (st state) clone() state {
	out := state{
		clients: make(map[string]*client.Client, len(st.clients)),
		visits:  make(map[string]*visit.Visit, len(st.visits)),
		tasks:   make(map[string]*task.Task, len(st.tasks)),
	}
	for k, v := range st.clients {
		out.clients[k] = v.Clone()
	}
	for k, v := range st.visits {
		out.visits[k] = v.Clone()
	}
	for k, v := range st.tasks {
		out.tasks[k] = v.Clone()
	}
	return out
}

// Store is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	state state
}

// New returns an empty store.
func New() *Store {
	return &Store{state: newState()}
}

// Load replaces the whole store contents with snap.
func (s *Store) Load(snap Snapshot) {
	st := newState()
	for _, c := range snap.Clients {
		st.clients[c.ID] = c.Clone()
	}
	for _, v := range snap.Visits {
		st.visits[v.ID] = v.Clone()
	}
	for _, t := range snap.Tasks {
		st.tasks[t.ID] = t.Clone()
	}

	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Snapshot returns a deep copy of the current state, each collection sorted
// by ID.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Clients: make([]*client.Client, 0, len(s.state.clients)),
		Visits:  make([]*visit.Visit, 0, len(s.state.visits)),
		Tasks:   make([]*task.Task, 0, len(s.state.tasks)),
	}
	for _, c := range s.state.clients {
		snap.Clients = append(snap.Clients, c.Clone())
	}
	for _, v := range s.state.visits {
		snap.Visits = append(snap.Visits, v.Clone())
	}
	for _, t := range s.state.tasks {
		snap.Tasks = append(snap.Tasks, t.Clone())
	}
	sort.Slice(snap.Clients, func(i, j int) bool { return snap.Clients[i].ID < snap.Clients[j].ID })
	sort.Slice(snap.Visits, func(i, j int) bool { return snap.Visits[i].ID < snap.Visits[j].ID })
	sort.Slice(snap.Tasks, func(i, j int) bool { return snap.Tasks[i].ID < snap.Tasks[j].ID })
	return snap
}

// GetClient returns a copy of the client with id.
func (s *Store) GetClient(id string) (*client.Client, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.clients[id]
	return c.Clone(), ok
}

// GetVisit returns a copy of the visit with id.
func (s *Store) GetVisit(id string) (*visit.Visit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.state.visits[id]
	return v.Clone(), ok
}

// GetTask returns a copy of the task with id.
func (s *Store) GetTask(id string) (*task.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.state.tasks[id]
	return t.Clone(), ok
}

// Update runs fn against a staged copy of the state. If fn returns an error
// nothing is applied; otherwise every staged change becomes visible at once.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{state: s.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}
