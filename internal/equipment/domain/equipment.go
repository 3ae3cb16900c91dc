package equipment

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

var (
	// ErrNotFound indicates missing equipment.
	ErrNotFound = fmt.Errorf("equipment: %w", apperr.ErrNotFound)
	// ErrTagConflict indicates a duplicate equipment tag.
	ErrTagConflict = fmt.Errorf("equipment tag already exists: %w", apperr.ErrConflict)
)

// Type classifies equipment.
type Type string

const (
	TypePump          Type = "pump"
	TypeCompressor    Type = "compressor"
	TypeHeatExchanger Type = "heat_exchanger"
	TypeVessel        Type = "vessel"
	TypeColumn        Type = "column"
	TypeFurnace       Type = "furnace"
	TypeValve         Type = "valve"
	TypeTank          Type = "tank"
	TypeInstrument    Type = "instrument"
	TypeOther         Type = "other"
)

// Status is the operating state of a piece of equipment.
type Status string

const (
	StatusOperational  Status = "operational"
	StatusStandby      Status = "standby"
	StatusMaintenance  Status = "maintenance"
	StatusOutOfService Status = "out_of_service"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusOperational, StatusStandby, StatusMaintenance, StatusOutOfService}

// Tone maps a status to its badge colour.
func (s Status) Tone() tone.Tone {
	switch s {
	case StatusOperational:
		return tone.Success
	case StatusStandby:
		return tone.Info
	case StatusMaintenance:
		return tone.Warning
	case StatusOutOfService:
		return tone.Danger
	default:
		return tone.Neutral
	}
}

// Criticality ranks how much an outage matters.
type Criticality string

const (
	CriticalityLow    Criticality = "low"
	CriticalityMedium Criticality = "medium"
	CriticalityHigh   Criticality = "high"
)

// Criticalities lists every criticality.
var Criticalities = []Criticality{CriticalityLow, CriticalityMedium, CriticalityHigh}

// Equipment is a tagged plant asset.
type Equipment struct {
	ID               string      `json:"id"`
	Tag              string      `json:"tag" validate:"required,max=64"`
	Name             string      `json:"name" validate:"required,max=200"`
	Type             Type        `json:"type" validate:"required,oneof=pump compressor heat_exchanger vessel column furnace valve tank instrument other"`
	Area             string      `json:"area" validate:"max=128"`
	Status           Status      `json:"status" validate:"required,oneof=operational standby maintenance out_of_service"`
	Criticality      Criticality `json:"criticality" validate:"required,oneof=low medium high"`
	Manufacturer     string      `json:"manufacturer" validate:"max=200"`
	Model            string      `json:"model" validate:"max=200"`
	InstalledAt      *time.Time  `json:"installed_at"`
	LastInspectionAt *time.Time  `json:"last_inspection_at"`
	NextInspectionAt *time.Time  `json:"next_inspection_at"`
	Notes            string      `json:"notes" validate:"max=2000"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// Validate checks field tags and inspection ordering.
func (e Equipment) Validate() error {
	var order *validation.Error
	if e.LastInspectionAt != nil && e.NextInspectionAt != nil && e.NextInspectionAt.Before(*e.LastInspectionAt) {
		order = validation.Field("next_inspection_at", "must not precede last_inspection_at")
	}
	return validation.StructWith(e, order)
}

// InspectionOverdue reports whether the next inspection date has passed.
func (e Equipment) InspectionOverdue(now time.Time) bool {
	return e.NextInspectionAt != nil && e.NextInspectionAt.Before(now)
}

// NewEquipment is the create input.
type NewEquipment struct {
	Tag              string      `json:"tag"`
	Name             string      `json:"name"`
	Type             Type        `json:"type"`
	Area             string      `json:"area"`
	Status           Status      `json:"status"`
	Criticality      Criticality `json:"criticality"`
	Manufacturer     string      `json:"manufacturer"`
	Model            string      `json:"model"`
	InstalledAt      *time.Time  `json:"installed_at"`
	LastInspectionAt *time.Time  `json:"last_inspection_at"`
	NextInspectionAt *time.Time  `json:"next_inspection_at"`
	Notes            string      `json:"notes"`
}

// Build turns the input into equipment with defaults applied.
func (n NewEquipment) Build(id string, now time.Time) Equipment {
	status := n.Status
	if status == "" {
		status = StatusOperational
	}
	criticality := n.Criticality
	if criticality == "" {
		criticality = CriticalityMedium
	}
	return Equipment{
		ID:               id,
		Tag:              strings.ToUpper(strings.TrimSpace(n.Tag)),
		Name:             strings.TrimSpace(n.Name),
		Type:             n.Type,
		Area:             strings.TrimSpace(n.Area),
		Status:           status,
		Criticality:      criticality,
		Manufacturer:     strings.TrimSpace(n.Manufacturer),
		Model:            strings.TrimSpace(n.Model),
		InstalledAt:      utcPtr(n.InstalledAt),
		LastInspectionAt: utcPtr(n.LastInspectionAt),
		NextInspectionAt: utcPtr(n.NextInspectionAt),
		Notes:            n.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	Tag              *string      `json:"tag"`
	Name             *string      `json:"name"`
	Type             *Type        `json:"type"`
	Area             *string      `json:"area"`
	Status           *Status      `json:"status"`
	Criticality      *Criticality `json:"criticality"`
	Manufacturer     *string      `json:"manufacturer"`
	Model            *string      `json:"model"`
	InstalledAt      *time.Time   `json:"installed_at"`
	LastInspectionAt *time.Time   `json:"last_inspection_at"`
	NextInspectionAt *time.Time   `json:"next_inspection_at"`
	Notes            *string      `json:"notes"`
}

// Apply merges the patch into e.
func (p Patch) Apply(e *Equipment, now time.Time) {
	if p.Tag != nil {
		e.Tag = strings.ToUpper(strings.TrimSpace(*p.Tag))
	}
	if p.Name != nil {
		e.Name = strings.TrimSpace(*p.Name)
	}
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Area != nil {
		e.Area = strings.TrimSpace(*p.Area)
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.Criticality != nil {
		e.Criticality = *p.Criticality
	}
	if p.Manufacturer != nil {
		e.Manufacturer = strings.TrimSpace(*p.Manufacturer)
	}
	if p.Model != nil {
		e.Model = strings.TrimSpace(*p.Model)
	}
	if p.InstalledAt != nil {
		e.InstalledAt = utcPtr(p.InstalledAt)
	}
	if p.LastInspectionAt != nil {
		e.LastInspectionAt = utcPtr(p.LastInspectionAt)
	}
	if p.NextInspectionAt != nil {
		e.NextInspectionAt = utcPtr(p.NextInspectionAt)
	}
	if p.Notes != nil {
		e.Notes = *p.Notes
	}
	e.UpdatedAt = now
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// Filter narrows equipment listings.
type Filter struct {
	Type        Type
	Status      Status
	Criticality Criticality
	Area        string
	listing.Params
}

// Repository persists equipment.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Equipment, error)
	Get(ctx context.Context, id string) (*Equipment, error)
	Insert(ctx context.Context, equipment Equipment) error
	Update(ctx context.Context, equipment Equipment) error
	Delete(ctx context.Context, id string) (bool, error)
}
