package store

import (
	"github.com/evcraddock/field-visits/internal/client"
	"github.com/evcraddock/field-visits/internal/task"
	"github.com/evcraddock/field-visits/internal/visit"
)

// Tx is the staged view handed to an Update callback. It must not be kept
// after the callback returns.
type Tx struct {
	state state
}

// Client returns a copy of the staged client with id.
func (tx *Tx) Client(id string) (*client.Client, bool) {
	c, ok := tx.state.clients[id]
	return c.Clone(), ok
}

// PutClient stages an insert or replace.
func (tx *Tx) PutClient(c *client.Client) {
	tx.state.clients[c.ID] = c.Clone()
}

// DeleteClient stages a removal and reports whether the client existed.
func (tx *Tx) DeleteClient(id string) bool {
	if _, ok := tx.state.clients[id]; !ok {
		return false
	}
	delete(tx.state.clients, id)
	return true
}

// Visit returns a copy of the staged visit with id.
func (tx *Tx) Visit(id string) (*visit.Visit, bool) {
	v, ok := tx.state.visits[id]
	return v.Clone(), ok
}

// PutVisit stages an insert or replace.
func (tx *Tx) PutVisit(v *visit.Visit) {
	tx.state.visits[v.ID] = v.Clone()
}

// DeleteVisit stages a removal and reports whether the visit existed.
func (tx *Tx) DeleteVisit(id string) bool {
	if _, ok := tx.state.visits[id]; !ok {
		return false
	}
	delete(tx.state.visits, id)
	return true
}

// Task returns a copy of the staged task with id.
func (tx *Tx) Task(id string) (*task.Task, bool) {
	t, ok := tx.state.tasks[id]
	return t.Clone(), ok
}

// PutTask stages an insert or replace.
func (tx *Tx) PutTask(t *task.Task) {
	tx.state.tasks[t.ID] = t.Clone()
}

// DeleteTask stages a removal and reports whether the task existed.
func (tx *Tx) DeleteTask(id string) bool {
	if _, ok := tx.state.tasks[id]; !ok {
		return false
	}
	delete(tx.state.tasks, id)
	return true
}
