// Package visit provides the client visit domain model and data access.
package visit

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// DateLayout and TimeLayout are the wire formats for a visit's schedule.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// VisitType represents the purpose of a visit.
type VisitType string

const (
	Prospecting VisitType = "prospecting"
	FollowUp    VisitType = "follow_up"
	Technical   VisitType = "technical"
)

// ValidTypes is the set of allowed visit types.
var ValidTypes = []VisitType{Prospecting, FollowUp, Technical}

// IsValid checks if a visit type is recognized.
func (t VisitType) IsValid() bool {
	for _, v := range ValidTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Label returns a human-readable label for the visit type.
func (t VisitType) Label() string {
	switch t {
	case Prospecting:
		return "Prospecting"
	case FollowUp:
		return "Follow-up"
	case Technical:
		return "Technical"
	default:
		return string(t)
	}
}

// Status is where a visit is in its lifecycle.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ValidStatus returns true if s is a known visit status.
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether a visit in from may move to to. Only a
// scheduled visit may change status, and only to a terminal one.
func CanTransition(from, to Status) bool {
	return from == StatusScheduled && to.IsTerminal()
}

// Opportunity is a service interest recorded when a visit is completed.
type Opportunity struct {
	ID          string   `json:"id"`
	ServiceType string   `json:"service_type"`
	Description string   `json:"description,omitempty"`
	Value       *float64 `json:"value,omitempty"`
}

// Visit is a scheduled meeting with a client.
type Visit struct {
	ID              string        `json:"id"`
	ClientID        string        `json:"client_id"`
	Date            string        `json:"date"` // YYYY-MM-DD
	Time            string        `json:"time"` // HH:MM
	Status          Status        `json:"status"`
	Type            VisitType     `json:"type"`
	PlannedServices []string      `json:"planned_services"`
	Opportunities   []Opportunity `json:"opportunities"`
	Notes           string        `json:"notes"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// StartsAt returns the visit's start as an instant in loc.
func (v *Visit) StartsAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, v.Date+" "+v.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing schedule of visit %s: %w", v.ID, err)
	}
	return t, nil
}

// Clone returns a deep copy of v.
func (v *Visit) Clone() *Visit {
	if v == nil {
		return nil
	}
	c := *v
	c.PlannedServices = slices.Clone(v.PlannedServices)
	c.Opportunities = make([]Opportunity, len(v.Opportunities))
	for i, o := range v.Opportunities {
		c.Opportunities[i] = o
		if o.Value != nil {
			val := *o.Value
			c.Opportunities[i].Value = &val
		}
	}
	return &c
}

// NormalizeServices trims service tags and drops blanks and repeats,
// keeping first-seen order.
func NormalizeServices(services []string) []string {
	out := make([]string, 0, len(services))
	seen := make(map[string]struct{}, len(services))
	for _, s := range services {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ServiceCatalog lists the services the company sells.
var ServiceCatalog = []string{
	"Structured Cabling & Networks",
	"CCTV & Electronic Security",
	"Access Control & Biometrics",
	"Management Software (ERP)",
	"IT Hardware & Equipment",
	"Websites & Digital Marketing",
	"IT Consulting & Audit",
	"Monthly Maintenance (SLA)",
	"Cloud & Backups",
}
