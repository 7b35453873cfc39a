package task

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a task row does not exist.
var ErrNotFound = errors.New("task not found")

const selectColumns = "id, title, due_date, priority, completed, related_client_id, created_at, updated_at"

// Repository provides CRUD operations for tasks.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a task repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert stores a new task. The task must already carry its ID.
func (r *Repository) Insert(t *Task) error {
	if !t.Priority.IsValid() {
		return fmt.Errorf("invalid priority: %q", t.Priority)
	}
	_, err := r.db.Exec(
		`INSERT INTO tasks (id, title, due_date, priority, completed, related_client_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.DueDate, t.Priority, t.Completed, t.RelatedClientID, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

// Update replaces the stored task with the same ID.
func (r *Repository) Update(t *Task) error {
	result, err := r.db.Exec(
		`UPDATE tasks SET title = ?, due_date = ?, priority = ?, completed = ?, related_client_id = ?, updated_at = ?
		 WHERE id = ?`,
		t.Title, t.DueDate, t.Priority, t.Completed, t.RelatedClientID, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return expectOneRow(result, t.ID)
}

// List returns all tasks ordered by due date.
func (r *Repository) List() (tasks []*Task, err error) {
	rows, err := r.db.Query("SELECT " + selectColumns + " FROM tasks ORDER BY due_date, id")
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var t Task
		var updated sql.NullTime
		if err := rows.Scan(&t.ID, &t.Title, &t.DueDate, &t.Priority, &t.Completed, &t.RelatedClientID, &t.CreatedAt, &updated); err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		t.UpdatedAt = t.CreatedAt
		if updated.Valid {
			t.UpdatedAt = updated.Time
		}
		tasks = append(tasks, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}

	return tasks, nil
}

// Delete removes a task by ID.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return expectOneRow(result, id)
}

func expectOneRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}
