package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"refinery-ops/internal/platform/apperr"
	"refinery-ops/internal/platform/listing"
	"refinery-ops/internal/platform/tone"
	"refinery-ops/internal/validation"
)

// ErrNotFound indicates a missing operation event.
var ErrNotFound = fmt.Errorf("operation event: %w", apperr.ErrNotFound)

// ErrUnknownEquipment is returned when equipment_id names no equipment.
var ErrUnknownEquipment = validation.Field("equipment_id", "references unknown equipment")

// Type is the kind of operation event.
type Type string

const (
	TypeShutdown Type = "shutdown"
	TypeStartup  Type = "startup"
)

// Types lists every event type.
var Types = []Type{TypeShutdown, TypeStartup}

// Category says whether an event was planned.
type Category string

const (
	CategoryPlanned   Category = "planned"
	CategoryUnplanned Category = "unplanned"
	CategoryEmergency Category = "emergency"
)

// Categories lists every category.
var Categories = []Category{CategoryPlanned, CategoryUnplanned, CategoryEmergency}

// Status is derived from ended_at.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Event is a unit shutdown or startup.
type Event struct {
	ID          string     `json:"id"`
	Type        Type       `json:"event_type" validate:"required,oneof=shutdown startup"`
	Category    Category   `json:"category" validate:"required,oneof=planned unplanned emergency"`
	Area        string     `json:"area" validate:"required,max=128"`
	EquipmentID *string    `json:"equipment_id"`
	StartedAt   time.Time  `json:"started_at" validate:"required"`
	EndedAt     *time.Time `json:"ended_at"`
	Reason      string     `json:"reason" validate:"required,max=500"`
	Description string     `json:"description" validate:"max=4000"`
	ReportedBy  string     `json:"reported_by" validate:"max=128"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Validate checks field tags and that the event does not end before it starts.
func (e Event) Validate() error {
	var order *validation.Error
	if e.EndedAt != nil && e.EndedAt.Before(e.StartedAt) {
		order = validation.Field("ended_at", "must not precede started_at")
	}
	return validation.StructWith(e, order)
}

// DeriveStatus returns closed when the event has ended.
func DeriveStatus(endedAt *time.Time) Status {
	if endedAt != nil {
		return StatusClosed
	}
	return StatusOpen
}

// Duration returns the elapsed time of a closed event.
func (e Event) Duration() (time.Duration, bool) {
	if e.EndedAt == nil {
		return 0, false
	}
	return e.EndedAt.Sub(e.StartedAt), true
}

// Tone maps the event to its badge colour.
func (e Event) Tone() tone.Tone {
	if e.Status == StatusClosed {
		return tone.Neutral
	}
	if e.Category == CategoryEmergency {
		return tone.Danger
	}
	return tone.Warning
}

// NewEvent is the create input.
type NewEvent struct {
	Type        Type       `json:"event_type"`
	Category    Category   `json:"category"`
	Area        string     `json:"area"`
	EquipmentID *string    `json:"equipment_id"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at"`
	Reason      string     `json:"reason"`
	Description string     `json:"description"`
	ReportedBy  string     `json:"reported_by"`
}

// Build turns the input into an event.
func (n NewEvent) Build(id string, now time.Time) Event {
	ended := utcPtr(n.EndedAt)
	return Event{
		ID:          id,
		Type:        n.Type,
		Category:    n.Category,
		Area:        strings.TrimSpace(n.Area),
		EquipmentID: blankToNil(n.EquipmentID),
		StartedAt:   n.StartedAt.UTC(),
		EndedAt:     ended,
		Reason:      strings.TrimSpace(n.Reason),
		Description: n.Description,
		ReportedBy:  strings.TrimSpace(n.ReportedBy),
		Status:      DeriveStatus(ended),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Patch is a partial update; nil fields are left unchanged.
// ClearEnded reopens a closed event and ClearEquipment detaches it.
type Patch struct {
	Type           *Type      `json:"event_type"`
	Category       *Category  `json:"category"`
	Area           *string    `json:"area"`
	EquipmentID    *string    `json:"equipment_id"`
	ClearEquipment bool       `json:"clear_equipment"`
	StartedAt      *time.Time `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at"`
	ClearEnded     bool       `json:"clear_ended"`
	Reason         *string    `json:"reason"`
	Description    *string    `json:"description"`
	ReportedBy     *string    `json:"reported_by"`
}

// Apply merges the patch into e and re-derives its status.
func (p Patch) Apply(e *Event, now time.Time) {
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Area != nil {
		e.Area = strings.TrimSpace(*p.Area)
	}
	if p.ClearEquipment {
		e.EquipmentID = nil
	}
	if p.EquipmentID != nil {
		e.EquipmentID = blankToNil(p.EquipmentID)
	}
	if p.StartedAt != nil {
		e.StartedAt = p.StartedAt.UTC()
	}
	if p.ClearEnded {
		e.EndedAt = nil
	}
	if p.EndedAt != nil {
		e.EndedAt = utcPtr(p.EndedAt)
	}
	if p.Reason != nil {
		e.Reason = strings.TrimSpace(*p.Reason)
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.ReportedBy != nil {
		e.ReportedBy = strings.TrimSpace(*p.ReportedBy)
	}
	e.Status = DeriveStatus(e.EndedAt)
	e.UpdatedAt = now
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// Filter narrows event listings. From/To apply to started_at.
type Filter struct {
	From        time.Time
	To          time.Time
	Type        Type
	Category    Category
	Status      Status
	Area        string
	EquipmentID string
	listing.Params
}

// Repository persists events.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Event, error)
	Get(ctx context.Context, id string) (*Event, error)
	Insert(ctx context.Context, event Event) error
	Update(ctx context.Context, event Event) error
	Delete(ctx context.Context, id string) (bool, error)
}
