package quality

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"refinery-ops/internal/platform/apperr"
	"refinery-ops/internal/platform/listing"
	"refinery-ops/internal/platform/tone"
	"refinery-ops/internal/validation"
)

// ErrNotFound indicates a missing quality test.
var ErrNotFound = fmt.Errorf("quality test: %w", apperr.ErrNotFound)

// Product is a refined product grade.
type Product string

const (
	ProductGasoline Product = "gasoline"
	ProductDiesel   Product = "diesel"
	ProductJetFuel  Product = "jet_fuel"
	ProductKerosene Product = "kerosene"
	ProductFuelOil  Product = "fuel_oil"
	ProductLPG      Product = "lpg"
	ProductNaphtha  Product = "naphtha"
	ProductAsphalt  Product = "asphalt"
)

// Products lists every product.
var Products = []Product{
	ProductGasoline,
	ProductDiesel,
	ProductJetFuel,
	ProductKerosene,
	ProductFuelOil,
	ProductLPG,
	ProductNaphtha,
	ProductAsphalt,
}

// Result is the laboratory verdict.
type Result string

const (
	ResultPending Result = "pending"
	ResultPass    Result = "pass"
	ResultFail    Result = "fail"
)

// Results lists every result.
var Results = []Result{ResultPending, ResultPass, ResultFail}

// Tone maps a result to its badge colour.
func (r Result) Tone() tone.Tone {
	switch r {
	case ResultPass:
		return tone.Success
	case ResultFail:
		return tone.Danger
	case ResultPending:
		return tone.Warning
	default:
		return tone.Neutral
	}
}

// Measured parameter names.
const (
	ParamDensity       = "density"
	ParamFlashPoint    = "flash_point"
	ParamSulfurContent = "sulfur_content"
	ParamViscosity     = "viscosity"
	ParamOctaneNumber  = "octane_number"
	ParamWaterContent  = "water_content"
)

// Parameters lists the measured parameters in display order.
var Parameters = []string{
	ParamDensity,
	ParamFlashPoint,
	ParamSulfurContent,
	ParamViscosity,
	ParamOctaneNumber,
	ParamWaterContent,
}

// Test is one product quality laboratory test.
type Test struct {
	ID            string    `json:"id"`
	Product       Product   `json:"product" validate:"required,oneof=gasoline diesel jet_fuel kerosene fuel_oil lpg naphtha asphalt"`
	BatchNumber   string    `json:"batch_number" validate:"required,max=64"`
	Tank          string    `json:"tank" validate:"max=64"`
	SampledAt     time.Time `json:"sampled_at" validate:"required"`
	Density       *float64  `json:"density" validate:"omitempty,gt=0"`
	FlashPoint    *float64  `json:"flash_point"`
	SulfurContent *float64  `json:"sulfur_content" validate:"omitempty,gte=0"`
	Viscosity     *float64  `json:"viscosity" validate:"omitempty,gte=0"`
	OctaneNumber  *float64  `json:"octane_number" validate:"omitempty,gte=0,lte=120"`
	WaterContent  *float64  `json:"water_content" validate:"omitempty,gte=0"`
	Result        Result    `json:"result" validate:"required,oneof=pending pass fail"`
	TestedBy      string    `json:"tested_by" validate:"max=128"`
	Notes         string    `json:"notes" validate:"max=2000"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Validate checks field ranges and enums.
func (t Test) Validate() error {
	return validation.Struct(t)
}

// Value returns a measured parameter when present.
func (t Test) Value(parameter string) (float64, bool) {
	slot := t.slot(parameter)
	if slot == nil || *slot == nil {
		return 0, false
	}
	return **slot, true
}

func (t *Test) slot(parameter string) **float64 {
	switch parameter {
	case ParamDensity:
		return &t.Density
	case ParamFlashPoint:
		return &t.FlashPoint
	case ParamSulfurContent:
		return &t.SulfurContent
	case ParamViscosity:
		return &t.Viscosity
	case ParamOctaneNumber:
		return &t.OctaneNumber
	case ParamWaterContent:
		return &t.WaterContent
	default:
		return nil
	}
}

// NewTest is the create input.
type NewTest struct {
	Product       Product   `json:"product"`
	BatchNumber   string    `json:"batch_number"`
	Tank          string    `json:"tank"`
	SampledAt     time.Time `json:"sampled_at"`
	Density       *float64  `json:"density"`
	FlashPoint    *float64  `json:"flash_point"`
	SulfurContent *float64  `json:"sulfur_content"`
	Viscosity     *float64  `json:"viscosity"`
	OctaneNumber  *float64  `json:"octane_number"`
	WaterContent  *float64  `json:"water_content"`
	Result        Result    `json:"result"`
	TestedBy      string    `json:"tested_by"`
	Notes         string    `json:"notes"`
}

// Build turns the input into a test, defaulting the result to pending.
func (n NewTest) Build(id string, now time.Time) Test {
	result := n.Result
	if result == "" {
		result = ResultPending
	}
	return Test{
		ID:            id,
		Product:       n.Product,
		BatchNumber:   strings.TrimSpace(n.BatchNumber),
		Tank:          strings.TrimSpace(n.Tank),
		SampledAt:     n.SampledAt.UTC(),
		Density:       n.Density,
		FlashPoint:    n.FlashPoint,
		SulfurContent: n.SulfurContent,
		Viscosity:     n.Viscosity,
		OctaneNumber:  n.OctaneNumber,
		WaterContent:  n.WaterContent,
		Result:        result,
		TestedBy:      strings.TrimSpace(n.TestedBy),
		Notes:         n.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// TestPatch is a partial update; nil fields are left unchanged.
type TestPatch struct {
	Product       *Product   `json:"product"`
	BatchNumber   *string    `json:"batch_number"`
	Tank          *string    `json:"tank"`
	SampledAt     *time.Time `json:"sampled_at"`
	Density       *float64   `json:"density"`
	FlashPoint    *float64   `json:"flash_point"`
	SulfurContent *float64   `json:"sulfur_content"`
	Viscosity     *float64   `json:"viscosity"`
	OctaneNumber  *float64   `json:"octane_number"`
	WaterContent  *float64   `json:"water_content"`
	Result        *Result    `json:"result"`
	TestedBy      *string    `json:"tested_by"`
	Notes         *string    `json:"notes"`
	Clear         []string   `json:"clear"`
}

// Validate rejects unknown parameter names in Clear.
func (p TestPatch) Validate() error {
	for _, name := range p.Clear {
		if !slices.Contains(Parameters, name) {
			return validation.Field("clear", "unknown parameter "+strconv.Quote(name))
		}
	}
	return nil
}

// Apply merges the patch into t. Parameters named in Clear are reset to
// null before the set values are applied.
func (p TestPatch) Apply(t *Test, now time.Time) {
	for _, name := range p.Clear {
		if slot := t.slot(name); slot != nil {
			*slot = nil
		}
	}
	if p.Product != nil {
		t.Product = *p.Product
	}
	if p.BatchNumber != nil {
		t.BatchNumber = strings.TrimSpace(*p.BatchNumber)
	}
	if p.Tank != nil {
		t.Tank = strings.TrimSpace(*p.Tank)
	}
	if p.SampledAt != nil {
		t.SampledAt = p.SampledAt.UTC()
	}
	setFloat(&t.Density, p.Density)
	setFloat(&t.FlashPoint, p.FlashPoint)
	setFloat(&t.SulfurContent, p.SulfurContent)
	setFloat(&t.Viscosity, p.Viscosity)
	setFloat(&t.OctaneNumber, p.OctaneNumber)
	setFloat(&t.WaterContent, p.WaterContent)
	if p.Result != nil {
		t.Result = *p.Result
	}
	if p.TestedBy != nil {
		t.TestedBy = strings.TrimSpace(*p.TestedBy)
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	t.UpdatedAt = now
}

func setFloat(dst **float64, value *float64) {
	if value != nil {
		v := *value
		*dst = &v
	}
}

// Filter narrows test listings.
type Filter struct {
	From    time.Time
	To      time.Time
	Product Product
	Result  Result
	Tank    string
	listing.Params
}

// TestRepository persists quality tests.
type TestRepository interface {
	List(ctx context.Context, filter Filter) ([]Test, error)
	Get(ctx context.Context, id string) (*Test, error)
	Insert(ctx context.Context, test Test) error
	Update(ctx context.Context, test Test) error
	Delete(ctx context.Context, id string) (bool, error)
}
