// Package client provides the sales client domain model and data access.
package client

import "time"

// ProspectingTarget is the number of prospecting visits a client should
// receive before it is considered fully worked.
const ProspectingTarget = 3

// Default coordinates used when a client is added without a location.
const (
	DefaultLat = -16.156
	DefaultLng = 33.586
)

// Classification is how warm a client is as a sales lead.
type Classification string

const (
	Cold       Classification = "cold"
	Warm       Classification = "warm"
	Hot        Classification = "hot"
	Contracted Classification = "contracted"
)

// ValidClassifications is the set of allowed classifications.
var ValidClassifications = []Classification{Cold, Warm, Hot, Contracted}

// IsValid checks if a classification is recognized.
func (c Classification) IsValid() bool {
	for _, v := range ValidClassifications {
		if c == v {
			return true
		}
	}
	return false
}

// Label returns a human-readable label for the classification.
func (c Classification) Label() string {
	switch c {
	case Cold:
		return "Cold"
	case Warm:
		return "Warm"
	case Hot:
		return "Hot"
	case Contracted:
		return "Contracted"
	default:
		return string(c)
	}
}

// Area is the sales territory a client belongs to.
type Area string

const (
	AreaCity      Area = "city"
	AreaRiverside Area = "riverside"
	AreaMoatize   Area = "moatize"
	AreaMining    Area = "mining_company"
)

// ValidAreas is the set of known territories.
var ValidAreas = []Area{AreaCity, AreaRiverside, AreaMoatize, AreaMining}

// IsValid checks if an area is recognized.
func (a Area) IsValid() bool {
	for _, v := range ValidAreas {
		if a == v {
			return true
		}
	}
	return false
}

// Client is a company the sales team visits.
type Client struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Address          string         `json:"address"`
	Area             Area           `json:"area"`
	Category         string         `json:"category"`
	Classification   Classification `json:"classification"`
	ContactPerson    string         `json:"contact_person"`
	ContactRole      string         `json:"contact_role"`
	Phone            string         `json:"phone"`
	Email            string         `json:"email"`
	ProspectingCount int            `json:"prospecting_count"`
	Notes            string         `json:"notes"`
	Lat              *float64       `json:"lat,omitempty"`
	Lng              *float64       `json:"lng,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Progress returns the share of the prospecting target reached, capped at 1
// for display. The counter itself is never clamped.
func (c *Client) Progress() float64 {
	n := c.ProspectingCount
	if n > ProspectingTarget {
		n = ProspectingTarget
	}
	if n < 0 {
		n = 0
	}
	return float64(n) / float64(ProspectingTarget)
}

// Clone returns a deep copy of c.
func (c *Client) Clone() *Client {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Lat != nil {
		lat := *c.Lat
		cp.Lat = &lat
	}
	if c.Lng != nil {
		lng := *c.Lng
		cp.Lng = &lng
	}
	return &cp
}
