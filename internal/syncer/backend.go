// Package syncer mirrors local intents to the persistent backend without
// making callers wait for it.
package syncer

import (
	"github.com/evcraddock/field-visits/internal/store"
)

// Kind names an entity collection.
type Kind string

const (
	KindClient Kind = "client"
	KindVisit  Kind = "visit"
	KindTask   Kind = "task"
)

// Backend is the durable copy of the data. Implementations must be safe
// for use from the dispatcher goroutine.
type Backend interface {
	// CreateEntity stores a new entity and returns the ID the backend
	// assigned to it.
	CreateEntity(kind Kind, entity any) (string, error)
	UpdateEntity(kind Kind, id string, entity any) error
	DeleteEntity(kind Kind, id string) error
	// Load returns every stored entity.
	Load() (store.Snapshot, error)
}
