package models

import (
	"time"

	id "solidarlink/pkg/domain"
)

// Case is a humanitarian-assistance record moving through the lifecycle state
// machine.
//
// Invariants:
//   - VolunteerID != nil implies Status is IN_PROGRESS or RESOLVED
//   - RESOLVED and REJECTED are terminal; no operation transitions out of them
type Case struct {
	ID                  id.CaseID       `json:"id"`
	Title               string          `json:"title"`
	Description         string          `json:"description"`
	Category            id.CaseCategory `json:"category"`
	Status              id.CaseStatus   `json:"status"`
	Latitude            float64         `json:"latitude"`
	Longitude           float64         `json:"longitude"`
	Photos              []string        `json:"photos,omitempty"`
	AuthorID            id.UserID       `json:"author_id"`
	VolunteerID         *id.UserID      `json:"volunteer_id,omitempty"`
	InterventionDate    *time.Time      `json:"intervention_date,omitempty"`
	InterventionMessage string          `json:"intervention_message,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// Clone returns a deep copy so store internals never alias caller-held state.
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	out := *c
	if c.VolunteerID != nil {
		v := *c.VolunteerID
		out.VolunteerID = &v
	}
	if c.InterventionDate != nil {
		d := *c.InterventionDate
		out.InterventionDate = &d
	}
	if c.Photos != nil {
		out.Photos = append([]string(nil), c.Photos...)
	}
	return &out
}

// CaseInput carries the mutable fields for create and update operations.
// Field validation happens at the transport boundary; services treat the
// input as well-formed.
type CaseInput struct {
	Title       string
	Description string
	Category    id.CaseCategory
	Latitude    float64
	Longitude   float64
	Photos      []string
}

// Intervention carries the details a volunteer supplies when taking a case.
type Intervention struct {
	Date    time.Time
	Message string
}

// Filter selects cases for list queries. Zero values mean "no constraint".
type Filter struct {
	Status      id.CaseStatus
	Category    id.CaseCategory
	AuthorID    id.UserID
	VolunteerID id.UserID
	Viewport    *Viewport
}

// Viewport is a lat/lon bounding box for map queries.
type Viewport struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// Contains reports whether the point falls inside the box.
func (v *Viewport) Contains(lat, lon float64) bool {
	return lat >= v.MinLat && lat <= v.MaxLat && lon >= v.MinLon && lon <= v.MaxLon
}
