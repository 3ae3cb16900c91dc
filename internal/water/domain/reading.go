package water

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"refinery-ops/internal/platform/apperr"
	"refinery-ops/internal/platform/listing"
	"refinery-ops/internal/validation"
)

// ErrNotFound indicates a missing water reading.
var ErrNotFound = fmt.Errorf("water reading: %w", apperr.ErrNotFound)

// Common sample points.
const (
	SampleBoilerFeed   = "boiler_feed"
	SampleCoolingTower = "cooling_tower"
	SampleEffluent     = "effluent"
	SampleRawWater     = "raw_water"
	SampleDemin        = "demin"
)

// Measured parameter names.
const (
	ParamPH               = "ph"
	ParamConductivity     = "conductivity"
	ParamTurbidity        = "turbidity"
	ParamResidualChlorine = "residual_chlorine"
	ParamTemperature      = "temperature"
	ParamTDS              = "tds"
	ParamHardness         = "hardness"
)

// Parameters lists the measured parameters in display order.
var Parameters = []string{
	ParamPH,
	ParamConductivity,
	ParamTurbidity,
	ParamResidualChlorine,
	ParamTemperature,
	ParamTDS,
	ParamHardness,
}

// Reading is one water treatment sample.
type Reading struct {
	ID               string    `json:"id"`
	SamplePoint      string    `json:"sample_point" validate:"required,max=64"`
	SampledAt        time.Time `json:"sampled_at" validate:"required"`
	PH               *float64  `json:"ph" validate:"omitempty,gte=0,lte=14"`
	Conductivity     *float64  `json:"conductivity" validate:"omitempty,gte=0"`
	Turbidity        *float64  `json:"turbidity" validate:"omitempty,gte=0"`
	ResidualChlorine *float64  `json:"residual_chlorine" validate:"omitempty,gte=0"`
	Temperature      *float64  `json:"temperature" validate:"omitempty,gte=-50,lte=200"`
	TDS              *float64  `json:"tds" validate:"omitempty,gte=0"`
	Hardness         *float64  `json:"hardness" validate:"omitempty,gte=0"`
	RecordedBy       string    `json:"recorded_by" validate:"max=128"`
	Notes            string    `json:"notes" validate:"max=2000"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Validate checks field ranges.
func (r Reading) Validate() error {
	return validation.Struct(r)
}

// Value returns a measured parameter when present.
func (r Reading) Value(parameter string) (float64, bool) {
	slot := r.slot(parameter)
	if slot == nil || *slot == nil {
		return 0, false
	}
	return **slot, true
}

func (r *Reading) slot(parameter string) **float64 {
	switch parameter {
	case ParamPH:
		return &r.PH
	case ParamConductivity:
		return &r.Conductivity
	case ParamTurbidity:
		return &r.Turbidity
	case ParamResidualChlorine:
		return &r.ResidualChlorine
	case ParamTemperature:
		return &r.Temperature
	case ParamTDS:
		return &r.TDS
	case ParamHardness:
		return &r.Hardness
	default:
		return nil
	}
}

// NewReading is the create input.
type NewReading struct {
	SamplePoint      string    `json:"sample_point"`
	SampledAt        time.Time `json:"sampled_at"`
	PH               *float64  `json:"ph"`
	Conductivity     *float64  `json:"conductivity"`
	Turbidity        *float64  `json:"turbidity"`
	ResidualChlorine *float64  `json:"residual_chlorine"`
	Temperature      *float64  `json:"temperature"`
	TDS              *float64  `json:"tds"`
	Hardness         *float64  `json:"hardness"`
	RecordedBy       string    `json:"recorded_by"`
	Notes            string    `json:"notes"`
}

// Build turns the input into a reading.
func (n NewReading) Build(id string, now time.Time) Reading {
	return Reading{
		ID:               id,
		SamplePoint:      strings.TrimSpace(n.SamplePoint),
		SampledAt:        n.SampledAt.UTC(),
		PH:               n.PH,
		Conductivity:     n.Conductivity,
		Turbidity:        n.Turbidity,
		ResidualChlorine: n.ResidualChlorine,
		Temperature:      n.Temperature,
		TDS:              n.TDS,
		Hardness:         n.Hardness,
		RecordedBy:       strings.TrimSpace(n.RecordedBy),
		Notes:            n.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// ReadingPatch is a partial update; nil fields are left unchanged.
type ReadingPatch struct {
	SamplePoint      *string    `json:"sample_point"`
	SampledAt        *time.Time `json:"sampled_at"`
	PH               *float64   `json:"ph"`
	Conductivity     *float64   `json:"conductivity"`
	Turbidity        *float64   `json:"turbidity"`
	ResidualChlorine *float64   `json:"residual_chlorine"`
	Temperature      *float64   `json:"temperature"`
	TDS              *float64   `json:"tds"`
	Hardness         *float64   `json:"hardness"`
	RecordedBy       *string    `json:"recorded_by"`
	Notes            *string    `json:"notes"`
	Clear            []string   `json:"clear"`
}

// Validate rejects unknown parameter names in Clear.
func (p ReadingPatch) Validate() error {
	for _, name := range p.Clear {
		if !slices.Contains(Parameters, name) {
			return validation.Field("clear", "unknown parameter "+strconv.Quote(name))
		}
	}
	return nil
}

// Apply merges the patch into r. Parameters named in Clear are reset to
// null before the set values are applied.
func (p ReadingPatch) Apply(r *Reading, now time.Time) {
	for _, name := range p.Clear {
		if slot := r.slot(name); slot != nil {
			*slot = nil
		}
	}
	if p.SamplePoint != nil {
		r.SamplePoint = strings.TrimSpace(*p.SamplePoint)
	}
	if p.SampledAt != nil {
		r.SampledAt = p.SampledAt.UTC()
	}
	setFloat(&r.PH, p.PH)
	setFloat(&r.Conductivity, p.Conductivity)
	setFloat(&r.Turbidity, p.Turbidity)
	setFloat(&r.ResidualChlorine, p.ResidualChlorine)
	setFloat(&r.Temperature, p.Temperature)
	setFloat(&r.TDS, p.TDS)
	setFloat(&r.Hardness, p.Hardness)
	if p.RecordedBy != nil {
		r.RecordedBy = strings.TrimSpace(*p.RecordedBy)
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}
	r.UpdatedAt = now
}

func setFloat(dst **float64, value *float64) {
	if value != nil {
		v := *value
		*dst = &v
	}
}

// Filter narrows reading listings.
type Filter struct {
	From        time.Time
	To          time.Time
	SamplePoint string
	listing.Params
}

// Repository persists readings.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Reading, error)
	Get(ctx context.Context, id string) (*Reading, error)
	Insert(ctx context.Context, reading Reading) error
	Update(ctx context.Context, reading Reading) error
	Delete(ctx context.Context, id string) (bool, error)
}
