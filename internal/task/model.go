// Package task provides the follow-up task domain model and data access.
package task

import "time"

// Priority ranks how urgent a task is.
type Priority string

const (
	Low    Priority = "low"
	Medium Priority = "medium"
	High   Priority = "high"
)

// ValidPriorities is the set of allowed priorities.
var ValidPriorities = []Priority{Low, Medium, High}

// IsValid checks if a priority is recognized.
func (p Priority) IsValid() bool {
	for _, v := range ValidPriorities {
		if p == v {
			return true
		}
	}
	return false
}

// Rank orders priorities with high first.
func (p Priority) Rank() int {
	switch p {
	case High:
		return 0
	case Medium:
		return 1
	default:
		return 2
	}
}

// Task is a to-do item for the sales team. It is not linked to visits.
type Task struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	DueDate         string    `json:"due_date"` // YYYY-MM-DD
	Priority        Priority  `json:"priority"`
	Completed       bool      `json:"completed"`
	RelatedClientID string    `json:"related_client_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsUrgent reports whether t is an open high-priority task due on day
// (YYYY-MM-DD).
func (t *Task) IsUrgent(day string) bool {
	return !t.Completed && t.Priority == High && t.DueDate == day
}

// Clone returns a copy of t.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
