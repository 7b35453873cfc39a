package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/evcraddock/field-visits/internal/store"
	"github.com/evcraddock/field-visits/internal/syncer"
	"github.com/evcraddock/field-visits/internal/visit"
)

// ScheduleVisitInput holds the fields for booking a visit.
type ScheduleVisitInput struct {
	ClientID        string
	Date            string // YYYY-MM-DD
	Time            string // HH:MM
	Type            visit.VisitType
	PlannedServices []string
	Notes           string
}

// ScheduleVisit books a new visit. A prospecting visit adds one to the
// client's prospecting counter in the same commit.
func (m *Manager) ScheduleVisit(in ScheduleVisitInput) (*visit.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	in.ClientID = strings.TrimSpace(in.ClientID)
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)
	if err := m.validateSchedule(&in); err != nil {
		return nil, err
	}

	now := m.clock.Now().UTC()
	v := &visit.Visit{
		ID:              m.newID(),
		ClientID:        in.ClientID,
		Date:            in.Date,
		Time:            in.Time,
		Status:          visit.StatusScheduled,
		Type:            in.Type,
		PlannedServices: visit.NormalizeServices(in.PlannedServices),
		Opportunities:   []visit.Opportunity{},
		Notes:           strings.TrimSpace(in.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var clientName string
	var counterMoved bool
	err := m.store.Update(func(tx *store.Tx) error {
		c, ok := tx.Client(in.ClientID)
		if !ok {
			return invalid("client_id", "does not match any client")
		}
		clientName = c.Name
		tx.PutVisit(v)
		if v.Type == visit.Prospecting {
			c.ProspectingCount++
			c.UpdatedAt = now
			tx.PutClient(c)
			counterMoved = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.sink.Notify("Schedule updated", fmt.Sprintf("Visit booked for %s at %s with %s", v.Date, v.Time, clientName))

	m.sync.Create(syncer.KindVisit, v.ID, v.Clone())
	if counterMoved {
		if c, ok := m.store.GetClient(v.ClientID); ok {
			m.sync.Update(syncer.KindClient, c.ID, c)
		}
	}
	return v.Clone(), nil
}

// validateSchedule checks in and rewrites Date and Time in their canonical
// zero-padded form, which the string ordering of visits relies on.
func (m *Manager) validateSchedule(in *ScheduleVisitInput) error {
	if in.ClientID == "" {
		return invalid("client_id", "is required")
	}
	if in.Date == "" {
		return invalid("date", "is required")
	}
	if in.Time == "" {
		return invalid("time", "is required")
	}
	day, err := time.ParseInLocation(visit.DateLayout, in.Date, m.loc)
	if err != nil {
		return invalid("date", "must be YYYY-MM-DD")
	}
	at, err := time.Parse(visit.TimeLayout, in.Time)
	if err != nil {
		return invalid("time", "must be HH:MM")
	}
	in.Date = day.Format(visit.DateLayout)
	in.Time = at.Format(visit.TimeLayout)
	if !in.Type.IsValid() {
		return invalid("type", fmt.Sprintf("must be one of %v", visit.ValidTypes))
	}
	if in.Date < m.today() {
		return invalid("date", "is in the past")
	}
	return nil
}

// CompleteVisit closes a scheduled visit and attaches the opportunities
// found during it. Opportunities without an ID get one.
func (m *Manager) CompleteVisit(id string, opps []visit.Opportunity) (*visit.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out *visit.Visit
	err := m.store.Update(func(tx *store.Tx) error {
		v, ok := tx.Visit(id)
		if !ok {
			return notFound("visit", id)
		}
		if !visit.CanTransition(v.Status, visit.StatusCompleted) {
			return &InvalidTransitionError{ID: id, From: v.Status, To: visit.StatusCompleted}
		}
		attached, err := m.prepareOpportunities(opps)
		if err != nil {
			return err
		}
		v.Status = visit.StatusCompleted
		v.Opportunities = attached
		v.UpdatedAt = m.clock.Now().UTC()
		tx.PutVisit(v)
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.sync.Update(syncer.KindVisit, out.ID, out.Clone())
	return out, nil
}

func (m *Manager) prepareOpportunities(opps []visit.Opportunity) ([]visit.Opportunity, error) {
	out := make([]visit.Opportunity, 0, len(opps))
	for i, o := range opps {
		o.ServiceType = strings.TrimSpace(o.ServiceType)
		if o.ServiceType == "" {
			return nil, invalid(fmt.Sprintf("opportunities[%d].service_type", i), "is required")
		}
		if o.Value != nil {
			if *o.Value < 0 {
				return nil, invalid(fmt.Sprintf("opportunities[%d].value", i), "must not be negative")
			}
			val := *o.Value
			o.Value = &val
		}
		if o.ID == "" {
			o.ID = m.newID()
		}
		out = append(out, o)
	}
	return out, nil
}

// UpdateVisitStatus moves a scheduled visit to a terminal status. Completing
// through here attaches no opportunities.
func (m *Manager) UpdateVisitStatus(id string, status visit.Status) (*visit.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !visit.ValidStatus(string(status)) {
		return nil, invalid("status", fmt.Sprintf("unknown status %q", status))
	}

	var out *visit.Visit
	err := m.store.Update(func(tx *store.Tx) error {
		v, ok := tx.Visit(id)
		if !ok {
			return notFound("visit", id)
		}
		if !visit.CanTransition(v.Status, status) {
			return &InvalidTransitionError{ID: id, From: v.Status, To: status}
		}
		v.Status = status
		v.UpdatedAt = m.clock.Now().UTC()
		tx.PutVisit(v)
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.sync.Update(syncer.KindVisit, out.ID, out.Clone())
	return out, nil
}

// CancelVisit cancels a scheduled visit.
func (m *Manager) CancelVisit(id string) (*visit.Visit, error) {
	return m.UpdateVisitStatus(id, visit.StatusCancelled)
}

// DeleteVisit removes a visit in any status. The client's prospecting
// counter is left alone.
func (m *Manager) DeleteVisit(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.store.Update(func(tx *store.Tx) error {
		if !tx.DeleteVisit(id) {
			return notFound("visit", id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.sync.Delete(syncer.KindVisit, id)
	return nil
}
