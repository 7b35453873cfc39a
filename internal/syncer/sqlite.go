package syncer

import (
	"database/sql"
	"fmt"

	"github.com/evcraddock/field-visits/internal/client"
	"github.com/evcraddock/field-visits/internal/store"
	"github.com/evcraddock/field-visits/internal/task"
	"github.com/evcraddock/field-visits/internal/visit"
)

// SQLiteBackend persists entities through the domain repositories.
type SQLiteBackend struct {
	clients *client.Repository
	visits  *visit.Repository
	tasks   *task.Repository
}

var _ Backend = (*SQLiteBackend)(nil)

// NewSQLiteBackend creates a backend over an open database.
func NewSQLiteBackend(db *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{
		clients: client.NewRepository(db),
		visits:  visit.NewRepository(db),
		tasks:   task.NewRepository(db),
	}
}

// CreateEntity inserts entity. The entity's own ID is kept and returned.
func (b *SQLiteBackend) CreateEntity(kind Kind, entity any) (string, error) {
	switch e := entity.(type) {
	case *client.Client:
		if kind != KindClient {
			return "", mismatch(kind, entity)
		}
		return e.ID, b.clients.Insert(e)
	case *visit.Visit:
		if kind != KindVisit {
			return "", mismatch(kind, entity)
		}
		return e.ID, b.visits.Insert(e)
	case *task.Task:
		if kind != KindTask {
			return "", mismatch(kind, entity)
		}
		return e.ID, b.tasks.Insert(e)
	default:
		return "", mismatch(kind, entity)
	}
}

// UpdateEntity replaces the stored entity with id.
func (b *SQLiteBackend) UpdateEntity(kind Kind, id string, entity any) error {
	switch e := entity.(type) {
	case *client.Client:
		if kind != KindClient || e.ID != id {
			return mismatch(kind, entity)
		}
		return b.clients.Update(e)
	case *visit.Visit:
		if kind != KindVisit || e.ID != id {
			return mismatch(kind, entity)
		}
		return b.visits.Update(e)
	case *task.Task:
		if kind != KindTask || e.ID != id {
			return mismatch(kind, entity)
		}
		return b.tasks.Update(e)
	default:
		return mismatch(kind, entity)
	}
}

// DeleteEntity removes the entity with id.
func (b *SQLiteBackend) DeleteEntity(kind Kind, id string) error {
	switch kind {
	case KindClient:
		return b.clients.Delete(id)
	case KindVisit:
		return b.visits.Delete(id)
	case KindTask:
		return b.tasks.Delete(id)
	default:
		return fmt.Errorf("unknown entity kind %q", kind)
	}
}

// Load reads every client, visit and task.
func (b *SQLiteBackend) Load() (store.Snapshot, error) {
	clients, err := b.clients.List()
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("loading clients: %w", err)
	}
	visits, err := b.visits.List()
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("loading visits: %w", err)
	}
	tasks, err := b.tasks.List()
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("loading tasks: %w", err)
	}
	return store.Snapshot{Clients: clients, Visits: visits, Tasks: tasks}, nil
}

func mismatch(kind Kind, entity any) error {
	return fmt.Errorf("entity %T does not match kind %q", entity, kind)
}
