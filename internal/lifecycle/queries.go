package lifecycle

import (
	"sort"
	"strings"

	"github.com/evcraddock/field-visits/internal/client"
	"github.com/evcraddock/field-visits/internal/task"
	"github.com/evcraddock/field-visits/internal/visit"
)

// VisitFilter narrows Visits. Zero fields match everything.
type VisitFilter struct {
	Status   visit.Status
	ClientID string
}

// Clients returns every client ordered by name.
func (m *Manager) Clients() []*client.Client {
	clients := m.store.Snapshot().Clients
	sort.SliceStable(clients, func(i, j int) bool {
		a, b := strings.ToLower(clients[i].Name), strings.ToLower(clients[j].Name)
		if a != b {
			return a < b
		}
		return clients[i].ID < clients[j].ID
	})
	return clients
}

// Client returns one client.
func (m *Manager) Client(id string) (*client.Client, error) {
	c, ok := m.store.GetClient(id)
	if !ok {
		return nil, notFound("client", id)
	}
	return c, nil
}

// Visits returns the visits matching f in schedule order.
func (m *Manager) Visits(f VisitFilter) []*visit.Visit {
	all := m.store.Snapshot().Visits
	out := all[:0]
	for _, v := range all {
		if f.Status != "" && v.Status != f.Status {
			continue
		}
		if f.ClientID != "" && v.ClientID != f.ClientID {
			continue
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Visit returns one visit.
func (m *Manager) Visit(id string) (*visit.Visit, error) {
	v, ok := m.store.GetVisit(id)
	if !ok {
		return nil, notFound("visit", id)
	}
	return v, nil
}

// Tasks returns every task ordered by due date, then priority.
func (m *Manager) Tasks() []*task.Task {
	tasks := m.store.Snapshot().Tasks
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].DueDate != tasks[j].DueDate {
			return tasks[i].DueDate < tasks[j].DueDate
		}
		if tasks[i].Priority.Rank() != tasks[j].Priority.Rank() {
			return tasks[i].Priority.Rank() < tasks[j].Priority.Rank()
		}
		return tasks[i].ID < tasks[j].ID
	})
	return tasks
}

// Task returns one task.
func (m *Manager) Task(id string) (*task.Task, error) {
	t, ok := m.store.GetTask(id)
	if !ok {
		return nil, notFound("task", id)
	}
	return t, nil
}

// UrgentTasks returns open high-priority tasks due today.
func (m *Manager) UrgentTasks() []*task.Task {
	today := m.today()
	var out []*task.Task
	for _, t := range m.Tasks() {
		if t.IsUrgent(today) {
			out = append(out, t)
		}
	}
	return out
}
