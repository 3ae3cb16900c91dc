package quality

import (
	"context"
	"fmt"
	"strings"
	"time"

	alarms "refinery-ops/internal/alarms/domain"
	"refinery-ops/internal/platform/apperr"
	"refinery-ops/internal/platform/listing"
	"refinery-ops/internal/validation"
)

var (
	// ErrStandardNotFound indicates a missing commercial standard.
	ErrStandardNotFound = fmt.Errorf("commercial standard: %w", apperr.ErrNotFound)
	// ErrStandardConflict indicates a duplicate product/parameter pair.
	ErrStandardConflict = fmt.Errorf("commercial standard for this product and parameter already exists: %w", apperr.ErrConflict)
)

// Standard is the commercial limit for one product parameter.
type Standard struct {
	ID        string    `json:"id"`
	Product   Product   `json:"product" validate:"required,oneof=gasoline diesel jet_fuel kerosene fuel_oil lpg naphtha asphalt"`
	Parameter string    `json:"parameter" validate:"required,oneof=density flash_point sulfur_content viscosity octane_number water_content"`
	Min       *float64  `json:"min"`
	Max       *float64  `json:"max"`
	Unit      string    `json:"unit" validate:"max=32"`
	Method    string    `json:"method" validate:"max=64"`
	Reference string    `json:"reference" validate:"max=128"`
	Notes     string    `json:"notes" validate:"max=2000"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Limit returns the standard's bounds.
func (s Standard) Limit() alarms.Limit {
	return alarms.Limit{Min: s.Min, Max: s.Max}
}

// Validate checks tags and bound consistency.
func (s Standard) Validate() error {
	return validation.StructWith(s, alarms.ValidateLimit(s.Limit()))
}

// NewStandard is the create input.
type NewStandard struct {
	Product   Product  `json:"product"`
	Parameter string   `json:"parameter"`
	Min       *float64 `json:"min"`
	Max       *float64 `json:"max"`
	Unit      string   `json:"unit"`
	Method    string   `json:"method"`
	Reference string   `json:"reference"`
	Notes     string   `json:"notes"`
}

// Build turns the input into a standard.
func (n NewStandard) Build(id string, now time.Time) Standard {
	return Standard{
		ID:        id,
		Product:   n.Product,
		Parameter: strings.TrimSpace(n.Parameter),
		Min:       n.Min,
		Max:       n.Max,
		Unit:      strings.TrimSpace(n.Unit),
		Method:    strings.TrimSpace(n.Method),
		Reference: strings.TrimSpace(n.Reference),
		Notes:     n.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// StandardPatch is a partial update; nil fields are left unchanged.
type StandardPatch struct {
	Product   *Product `json:"product"`
	Parameter *string  `json:"parameter"`
	Min       *float64 `json:"min"`
	Max       *float64 `json:"max"`
	ClearMin  bool     `json:"clear_min"`
	ClearMax  bool     `json:"clear_max"`
	Unit      *string  `json:"unit"`
	Method    *string  `json:"method"`
	Reference *string  `json:"reference"`
	Notes     *string  `json:"notes"`
}

// Apply merges the patch into s.
func (p StandardPatch) Apply(s *Standard, now time.Time) {
	if p.Product != nil {
		s.Product = *p.Product
	}
	if p.Parameter != nil {
		s.Parameter = strings.TrimSpace(*p.Parameter)
	}
	if p.ClearMin {
		s.Min = nil
	}
	setFloat(&s.Min, p.Min)
	if p.ClearMax {
		s.Max = nil
	}
	setFloat(&s.Max, p.Max)
	if p.Unit != nil {
		s.Unit = strings.TrimSpace(*p.Unit)
	}
	if p.Method != nil {
		s.Method = strings.TrimSpace(*p.Method)
	}
	if p.Reference != nil {
		s.Reference = strings.TrimSpace(*p.Reference)
	}
	if p.Notes != nil {
		s.Notes = *p.Notes
	}
	s.UpdatedAt = now
}

// StandardFilter narrows standard listings.
type StandardFilter struct {
	Product   Product
	Parameter string
	listing.Params
}

// StandardRepository persists commercial standards.
type StandardRepository interface {
	List(ctx context.Context, filter StandardFilter) ([]Standard, error)
	Get(ctx context.Context, id string) (*Standard, error)
	Insert(ctx context.Context, standard Standard) error
	Update(ctx context.Context, standard Standard) error
	Delete(ctx context.Context, id string) (bool, error)
}
