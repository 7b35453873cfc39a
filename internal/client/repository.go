package client

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a client row does not exist.
var ErrNotFound = errors.New("client not found")

const selectColumns = `id, name, address, area, category, classification, contact_person, contact_role,
	phone, email, prospecting_count, notes, lat, lng, created_at, updated_at`

// Repository provides CRUD operations for clients.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a client repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert stores a new client. The client must already carry its ID.
func (r *Repository) Insert(c *Client) error {
	_, err := r.db.Exec(
		`INSERT INTO clients (id, name, address, area, category, classification, contact_person, contact_role,
		 phone, email, prospecting_count, notes, lat, lng, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Address, c.Area, c.Category, c.Classification, c.ContactPerson, c.ContactRole,
		c.Phone, c.Email, c.ProspectingCount, c.Notes, c.Lat, c.Lng, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting client: %w", err)
	}
	return nil
}

// Update replaces the stored client with the same ID.
func (r *Repository) Update(c *Client) error {
	result, err := r.db.Exec(
		`UPDATE clients SET name = ?, address = ?, area = ?, category = ?, classification = ?,
		 contact_person = ?, contact_role = ?, phone = ?, email = ?, prospecting_count = ?,
		 notes = ?, lat = ?, lng = ?, updated_at = ? WHERE id = ?`,
		c.Name, c.Address, c.Area, c.Category, c.Classification,
		c.ContactPerson, c.ContactRole, c.Phone, c.Email, c.ProspectingCount,
		c.Notes, c.Lat, c.Lng, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating client: %w", err)
	}
	return expectOneRow(result, c.ID)
}

// GetByID returns a client by its ID.
func (r *Repository) GetByID(id string) (*Client, error) {
	row := r.db.QueryRow("SELECT "+selectColumns+" FROM clients WHERE id = ?", id)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("client %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying client %s: %w", id, err)
	}
	return c, nil
}

// List returns all clients ordered by name.
func (r *Repository) List() (clients []*Client, err error) {
	rows, err := r.db.Query("SELECT " + selectColumns + " FROM clients ORDER BY name COLLATE NOCASE, id")
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning client: %w", err)
		}
		clients = append(clients, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating clients: %w", err)
	}

	return clients, nil
}

// Delete removes a client by ID. Visits referencing it are left in place.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM clients WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting client: %w", err)
	}
	return expectOneRow(result, id)
}

func scanClient(row interface{ Scan(...any) error }) (*Client, error) {
	var c Client
	var lat, lng sql.NullFloat64
	err := row.Scan(
		&c.ID, &c.Name, &c.Address, &c.Area, &c.Category, &c.Classification,
		&c.ContactPerson, &c.ContactRole, &c.Phone, &c.Email, &c.ProspectingCount,
		&c.Notes, &lat, &lng, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lat.Valid {
		c.Lat = &lat.Float64
	}
	if lng.Valid {
		c.Lng = &lng.Float64
	}
	return &c, nil
}

func expectOneRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("client %s: %w", id, ErrNotFound)
	}
	return nil
}
