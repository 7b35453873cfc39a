package visit

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a visit row does not exist.
var ErrNotFound = errors.New("visit not found")

const selectColumns = "id, client_id, visit_date, visit_time, status, visit_type, planned_services, opportunities, notes, created_at, updated_at"

// Repository provides CRUD operations for visits.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a visit repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert stores a new visit. The visit must already carry its ID.
func (r *Repository) Insert(v *Visit) error {
	if !v.Type.IsValid() {
		return fmt.Errorf("invalid visit type: %q", v.Type)
	}
	services, opps, err := encodeLists(v)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		`INSERT INTO visits (id, client_id, visit_date, visit_time, status, visit_type, planned_services, opportunities, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.ClientID, v.Date, v.Time, v.Status, v.Type, services, opps, v.Notes, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting visit: %w", err)
	}
	return nil
}

// Update replaces the stored visit with the same ID.
func (r *Repository) Update(v *Visit) error {
	services, opps, err := encodeLists(v)
	if err != nil {
		return err
	}

	result, err := r.db.Exec(
		`UPDATE visits SET client_id = ?, visit_date = ?, visit_time = ?, status = ?, visit_type = ?,
		 planned_services = ?, opportunities = ?, notes = ?, updated_at = ? WHERE id = ?`,
		v.ClientID, v.Date, v.Time, v.Status, v.Type, services, opps, v.Notes, v.UpdatedAt, v.ID,
	)
	if err != nil {
		return fmt.Errorf("updating visit: %w", err)
	}
	return expectOneRow(result, v.ID)
}

// GetByID returns a single visit.
func (r *Repository) GetByID(id string) (*Visit, error) {
	row := r.db.QueryRow("SELECT "+selectColumns+" FROM visits WHERE id = ?", id)
	v, err := scanVisit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("visit %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading visit: %w", err)
	}
	return v, nil
}

// List returns all visits ordered by schedule.
func (r *Repository) List() ([]*Visit, error) {
	return r.query("SELECT " + selectColumns + " FROM visits ORDER BY visit_date, visit_time, id")
}

// ListByClientID returns all visits for a client, newest first.
func (r *Repository) ListByClientID(clientID string) ([]*Visit, error) {
	return r.query(
		"SELECT "+selectColumns+" FROM visits WHERE client_id = ? ORDER BY visit_date DESC, visit_time DESC, id",
		clientID,
	)
}

// Delete removes a visit by ID.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM visits WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting visit: %w", err)
	}
	return expectOneRow(result, id)
}

func (r *Repository) query(q string, args ...any) (visits []*Visit, err error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing visits: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning visit: %w", err)
		}
		visits = append(visits, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating visits: %w", err)
	}

	return visits, nil
}

func scanVisit(row interface{ Scan(...any) error }) (*Visit, error) {
	var v Visit
	var services, opps string
	err := row.Scan(
		&v.ID, &v.ClientID, &v.Date, &v.Time, &v.Status, &v.Type,
		&services, &opps, &v.Notes, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(services), &v.PlannedServices); err != nil {
		return nil, fmt.Errorf("decoding planned services: %w", err)
	}
	if err := json.Unmarshal([]byte(opps), &v.Opportunities); err != nil {
		return nil, fmt.Errorf("decoding opportunities: %w", err)
	}
	if v.PlannedServices == nil {
		v.PlannedServices = []string{}
	}
	if v.Opportunities == nil {
		v.Opportunities = []Opportunity{}
	}
	return &v, nil
}

func encodeLists(v *Visit) (string, string, error) {
	services := v.PlannedServices
	if services == nil {
		services = []string{}
	}
	opps := v.Opportunities
	if opps == nil {
		opps = []Opportunity{}
	}
	s, err := json.Marshal(services)
	if err != nil {
		return "", "", fmt.Errorf("encoding planned services: %w", err)
	}
	o, err := json.Marshal(opps)
	if err != nil {
		return "", "", fmt.Errorf("encoding opportunities: %w", err)
	}
	return string(s), string(o), nil
}

func expectOneRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("visit %s: %w", id, ErrNotFound)
	}
	return nil
}
