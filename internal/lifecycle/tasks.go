package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/evcraddock/field-visits/internal/store"
	"github.com/evcraddock/field-visits/internal/syncer"
	"github.com/evcraddock/field-visits/internal/task"
	"github.com/evcraddock/field-visits/internal/visit"
)

// NewTask holds the fields for adding a task.
type NewTask struct {
	Title           string
	DueDate         string // YYYY-MM-DD, defaults to today
	Priority        task.Priority
	RelatedClientID string
}

// AddTask creates an open task.
func (m *Manager) AddTask(in NewTask) (*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	in.Title = strings.TrimSpace(in.Title)
	in.DueDate = strings.TrimSpace(in.DueDate)
	if in.Title == "" {
		return nil, invalid("title", "is required")
	}
	if in.DueDate == "" {
		in.DueDate = m.today()
	}
	due, err := time.Parse(visit.DateLayout, in.DueDate)
	if err != nil {
		return nil, invalid("due_date", "must be YYYY-MM-DD")
	}
	in.DueDate = due.Format(visit.DateLayout)
	if in.Priority == "" {
		in.Priority = task.Medium
	}
	if !in.Priority.IsValid() {
		return nil, invalid("priority", fmt.Sprintf("must be one of %v", task.ValidPriorities))
	}

	now := m.clock.Now().UTC()
	t := &task.Task{
		ID:              m.newID(),
		Title:           in.Title,
		DueDate:         in.DueDate,
		Priority:        in.Priority,
		RelatedClientID: strings.TrimSpace(in.RelatedClientID),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err = m.store.Update(func(tx *store.Tx) error {
		tx.PutTask(t)
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.sync.Create(syncer.KindTask, t.ID, t.Clone())
	return t.Clone(), nil
}

// ToggleTask flips a task's completion flag.
func (m *Manager) ToggleTask(id string) (*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out *task.Task
	err := m.store.Update(func(tx *store.Tx) error {
		t, ok := tx.Task(id)
		if !ok {
			return notFound("task", id)
		}
		t.Completed = !t.Completed
		t.UpdatedAt = m.clock.Now().UTC()
		tx.PutTask(t)
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.sync.Update(syncer.KindTask, out.ID, out.Clone())
	return out, nil
}

// DeleteTask removes a task.
func (m *Manager) DeleteTask(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.store.Update(func(tx *store.Tx) error {
		if !tx.DeleteTask(id) {
			return notFound("task", id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.sync.Delete(syncer.KindTask, id)
	return nil
}
