package alarms

import (
	"context"
	"slices"
	"strings"
	"time"

	"refinery-ops/internal/platform/listing"
	"refinery-ops/internal/validation"
)

// Module names the data set a threshold applies to.
type Module string

const (
	ModuleWater   Module = "water"
	ModuleQuality Module = "quality"
)

// Threshold is a configured min/max bound for one parameter.
type Threshold struct {
	ID        string    `json:"id"`
	Module    Module    `json:"module" validate:"required,oneof=water quality"`
	Parameter string    `json:"parameter" validate:"required,max=64"`
	Scope     string    `json:"scope" validate:"max=64"`
	Min       *float64  `json:"min"`
	Max       *float64  `json:"max"`
	Severity  Severity  `json:"severity" validate:"required,oneof=low medium high critical"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Limit returns the threshold bounds.
func (t Threshold) Limit() Limit {
	return Limit{Min: t.Min, Max: t.Max}
}

// Applies reports whether the threshold covers a record with the given scope value.
func (t Threshold) Applies(parameter, scope string) bool {
	if !t.Enabled || t.Parameter != parameter {
		return false
	}
	return t.Scope == "" || strings.EqualFold(t.Scope, scope)
}

// Validate checks field tags and bound consistency.
func (t Threshold) Validate() error {
	return t.ValidateFor(nil)
}

// ValidateFor also requires the parameter to be one the module measures.
// measured maps a module to its parameter names; modules without an entry
// accept any parameter.
func (t Threshold) ValidateFor(measured map[Module][]string) error {
	return validation.StructWith(t, ValidateLimit(t.Limit()), validateParameter(t, measured))
}

func validateParameter(t Threshold, measured map[Module][]string) *validation.Error {
	names, ok := measured[t.Module]
	if !ok || t.Parameter == "" || slices.Contains(names, t.Parameter) {
		return nil
	}
	return validation.Field("parameter", "must be one of "+strings.Join(names, " "))
}

// ValidateLimit reports a missing or inverted limit.
func ValidateLimit(limit Limit) *validation.Error {
	if !limit.Defined() {
		return validation.Field("min", "min or max is required")
	}
	if !limit.Ordered() {
		return validation.Field("max", "must be >= min")
	}
	return nil
}

// NewThreshold is the create input for a threshold.
type NewThreshold struct {
	Module    Module   `json:"module"`
	Parameter string   `json:"parameter"`
	Scope     string   `json:"scope"`
	Min       *float64 `json:"min"`
	Max       *float64 `json:"max"`
	Severity  Severity `json:"severity"`
	Enabled   *bool    `json:"enabled"`
}

// Build turns the input into a threshold with defaults applied.
func (n NewThreshold) Build(id string, now time.Time) Threshold {
	severity := n.Severity
	if severity == "" {
		severity = SeverityMedium
	}
	enabled := true
	if n.Enabled != nil {
		enabled = *n.Enabled
	}
	return Threshold{
		ID:        id,
		Module:    n.Module,
		Parameter: strings.TrimSpace(n.Parameter),
		Scope:     strings.TrimSpace(n.Scope),
		Min:       n.Min,
		Max:       n.Max,
		Severity:  severity,
		Enabled:   enabled,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ThresholdPatch is a partial update; nil fields are left unchanged.
type ThresholdPatch struct {
	Module    *Module   `json:"module"`
	Parameter *string   `json:"parameter"`
	Scope     *string   `json:"scope"`
	Min       *float64  `json:"min"`
	Max       *float64  `json:"max"`
	ClearMin  bool      `json:"clear_min"`
	ClearMax  bool      `json:"clear_max"`
	Severity  *Severity `json:"severity"`
	Enabled   *bool     `json:"enabled"`
}

// Apply merges the patch into t.
func (p ThresholdPatch) Apply(t *Threshold, now time.Time) {
	if p.Module != nil {
		t.Module = *p.Module
	}
	if p.Parameter != nil {
		t.Parameter = strings.TrimSpace(*p.Parameter)
	}
	if p.Scope != nil {
		t.Scope = strings.TrimSpace(*p.Scope)
	}
	if p.ClearMin {
		t.Min = nil
	}
	if p.Min != nil {
		t.Min = p.Min
	}
	if p.ClearMax {
		t.Max = nil
	}
	if p.Max != nil {
		t.Max = p.Max
	}
	if p.Severity != nil {
		t.Severity = *p.Severity
	}
	if p.Enabled != nil {
		t.Enabled = *p.Enabled
	}
	t.UpdatedAt = now
}

// ThresholdFilter narrows threshold listings.
type ThresholdFilter struct {
	Module    Module
	Parameter string
	Severity  Severity
	Enabled   *bool
	listing.Params
}

// ThresholdRepository persists thresholds.
type ThresholdRepository interface {
	List(ctx context.Context, filter ThresholdFilter) ([]Threshold, error)
	Get(ctx context.Context, id string) (*Threshold, error)
	Insert(ctx context.Context, threshold Threshold) error
	Update(ctx context.Context, threshold Threshold) error
	Delete(ctx context.Context, id string) (bool, error)
}
