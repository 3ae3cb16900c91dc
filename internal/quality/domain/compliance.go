package quality

import (
	alarms "refinery-ops/internal/alarms/domain"
	"refinery-ops/internal/platform/tone"
)

// Verdict is the outcome of one compliance line.
type Verdict string

const (
	VerdictWithin Verdict = "within"
	VerdictBelow  Verdict = "below"
	VerdictAbove  Verdict = "above"
)

// Tone maps a verdict to its badge colour.
func (v Verdict) Tone() tone.Tone {
	if v == VerdictWithin {
		return tone.Success
	}
	return tone.Danger
}

// ComplianceLine compares one measured parameter to its standard.
type ComplianceLine struct {
	Parameter  string    `json:"parameter"`
	Value      float64   `json:"value"`
	Min        *float64  `json:"min,omitempty"`
	Max        *float64  `json:"max,omitempty"`
	Unit       string    `json:"unit,omitempty"`
	Method     string    `json:"method,omitempty"`
	StandardID string    `json:"standard_id"`
	Verdict    Verdict   `json:"verdict"`
	StatusTone tone.Tone `json:"status_tone"`
}

// Compliance is the full standards check for one test.
type Compliance struct {
	TestID    string           `json:"test_id"`
	Product   Product          `json:"product"`
	Compliant bool             `json:"compliant"`
	Lines     []ComplianceLine `json:"lines"`
}

// CheckCompliance compares a test against the standards of its product.
// Standards for other products and parameters without a value are skipped.
func CheckCompliance(test Test, standards []Standard) Compliance {
	result := Compliance{TestID: test.ID, Product: test.Product, Compliant: true, Lines: []ComplianceLine{}}
	for _, standard := range standards {
		if standard.Product != test.Product {
			continue
		}
		value, ok := test.Value(standard.Parameter)
		if !ok {
			continue
		}
		verdict := VerdictWithin
		if breach, out := alarms.Evaluate(value, standard.Limit()); out {
			verdict = VerdictAbove
			if breach.Direction == alarms.DirectionLow {
				verdict = VerdictBelow
			}
			result.Compliant = false
		}
		result.Lines = append(result.Lines, ComplianceLine{
			Parameter:  standard.Parameter,
			Value:      value,
			Min:        standard.Min,
			Max:        standard.Max,
			Unit:       standard.Unit,
			Method:     standard.Method,
			StandardID: standard.ID,
			Verdict:    verdict,
			StatusTone: verdict.Tone(),
		})
	}
	return result
}
