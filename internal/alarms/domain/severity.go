package alarms

import (
	"strings"

	"refinery-ops/internal/platform/tone"
)

// Severity ranks an alert.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists severities from lowest to highest.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// Rank orders severities; unknown values rank 0.
func (s Severity) Rank() int {
	switch Severity(strings.ToLower(strings.TrimSpace(string(s)))) {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether s ranks at or above target.
func (s Severity) AtLeast(target Severity) bool {
	return s.Rank() >= target.Rank()
}

// Tone maps a severity to its badge colour.
func (s Severity) Tone() tone.Tone {
	switch s {
	case SeverityLow:
		return tone.Info
	case SeverityMedium:
		return tone.Warning
	case SeverityHigh, SeverityCritical:
		return tone.Danger
	default:
		return tone.Neutral
	}
}
