package lifecycle

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/evcraddock/field-visits/internal/client"
	"github.com/evcraddock/field-visits/internal/store"
	"github.com/evcraddock/field-visits/internal/syncer"
)

// NewClient holds the fields for adding a client.
type NewClient struct {
	Name           string
	Address        string
	Area           client.Area
	Category       string
	Classification client.Classification
	ContactPerson  string
	ContactRole    string
	Phone          string
	Email          string
	Notes          string
	Lat            *float64
	Lng            *float64
}

// AddClient creates a client with a zero prospecting counter. Blank
// optional fields get their defaults.
func (m *Manager) AddClient(in NewClient) (*client.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now().UTC()
	c := &client.Client{
		ID:             m.newID(),
		Name:           strings.TrimSpace(in.Name),
		Address:        strings.TrimSpace(in.Address),
		Area:           in.Area,
		Category:       strings.TrimSpace(in.Category),
		Classification: in.Classification,
		ContactPerson:  strings.TrimSpace(in.ContactPerson),
		ContactRole:    strings.TrimSpace(in.ContactRole),
		Phone:          in.Phone,
		Email:          strings.TrimSpace(in.Email),
		Notes:          in.Notes,
		Lat:            in.Lat,
		Lng:            in.Lng,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	applyClientDefaults(c)
	if err := validateClient(c); err != nil {
		return nil, err
	}

	err := m.store.Update(func(tx *store.Tx) error {
		tx.PutClient(c)
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.sync.Create(syncer.KindClient, c.ID, c.Clone())
	return c.Clone(), nil
}

// UpdateClient replaces a client's editable fields. The prospecting counter
// and creation time always keep their stored values.
func (m *Manager) UpdateClient(in *client.Client) (*client.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if in == nil {
		return nil, invalid("client", "is required")
	}
	c := in.Clone()
	c.Name = strings.TrimSpace(c.Name)
	c.ContactPerson = strings.TrimSpace(c.ContactPerson)
	c.Email = strings.TrimSpace(c.Email)
	applyClientDefaults(c)
	if err := validateClient(c); err != nil {
		return nil, err
	}

	err := m.store.Update(func(tx *store.Tx) error {
		existing, ok := tx.Client(c.ID)
		if !ok {
			return notFound("client", c.ID)
		}
		c.ProspectingCount = existing.ProspectingCount
		c.CreatedAt = existing.CreatedAt
		c.UpdatedAt = m.clock.Now().UTC()
		tx.PutClient(c)
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.sync.Update(syncer.KindClient, c.ID, c.Clone())
	return c, nil
}

// UpdateClientNotes replaces a client's free-text notes.
func (m *Manager) UpdateClientNotes(id, notes string) (*client.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out *client.Client
	err := m.store.Update(func(tx *store.Tx) error {
		c, ok := tx.Client(id)
		if !ok {
			return notFound("client", id)
		}
		c.Notes = notes
		c.UpdatedAt = m.clock.Now().UTC()
		tx.PutClient(c)
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.sync.Update(syncer.KindClient, out.ID, out.Clone())
	return out, nil
}

// DeleteClient removes a client. Its visits stay in place; the monitor
// skips visits whose client is gone.
func (m *Manager) DeleteClient(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.store.Update(func(tx *store.Tx) error {
		if !tx.DeleteClient(id) {
			return notFound("client", id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.sync.Delete(syncer.KindClient, id)
	return nil
}

func applyClientDefaults(c *client.Client) {
	if c.Area == "" {
		c.Area = client.AreaCity
	}
	if c.Category == "" {
		c.Category = "General"
	}
	if c.Classification == "" {
		c.Classification = client.Cold
	}
	if c.ContactRole == "" {
		c.ContactRole = "Staff"
	}
	if c.Phone != "" {
		c.Phone = client.FormatPhone(c.Phone)
	}
	if c.Lat == nil {
		lat := client.DefaultLat
		c.Lat = &lat
	}
	if c.Lng == nil {
		lng := client.DefaultLng
		c.Lng = &lng
	}
}

func validateClient(c *client.Client) error {
	if c.Name == "" {
		return invalid("name", "is required")
	}
	if hasControl(c.Name) {
		return invalid("name", "must not contain control characters")
	}
	if c.ContactPerson == "" {
		return invalid("contact_person", "is required")
	}
	if hasControl(c.ContactPerson) {
		return invalid("contact_person", "must not contain control characters")
	}
	if !c.Area.IsValid() {
		return invalid("area", fmt.Sprintf("must be one of %v", client.ValidAreas))
	}
	if !c.Classification.IsValid() {
		return invalid("classification", fmt.Sprintf("must be one of %v", client.ValidClassifications))
	}
	if c.Phone != "" && !client.ValidPhone(c.Phone) {
		return invalid("phone", "must be a Mozambican number (+258 NN NNN NNNN)")
	}
	if c.Email != "" && !client.ValidEmail(c.Email) {
		return invalid("email", "is not a valid address")
	}
	return nil
}

func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}
