package alarms

import (
	"sort"
	"time"
)

// Source says which configuration produced an alert.
type Source string

const (
	SourceThreshold Source = "threshold"
	SourceStandard  Source = "standard"
)

// Alert is a computed out-of-range observation. Alerts are never stored.
type Alert struct {
	Key        string    `json:"key"`
	Module     Module    `json:"module"`
	Source     Source    `json:"source"`
	SourceID   string    `json:"source_id"`
	RecordID   string    `json:"record_id"`
	Subject    string    `json:"subject"`
	Parameter  string    `json:"parameter"`
	Value      float64   `json:"value"`
	Min        *float64  `json:"min,omitempty"`
	Max        *float64  `json:"max,omitempty"`
	Direction  Direction `json:"direction"`
	Severity   Severity  `json:"severity"`
	ObservedAt time.Time `json:"observed_at"`
}

// NewAlert builds an alert from a breach.
func NewAlert(module Module, source Source, sourceID, recordID, subject, parameter string, limit Limit, breach Breach, severity Severity, observedAt time.Time) Alert {
	return Alert{
		Key:        string(module) + "|" + recordID + "|" + parameter + "|" + string(source) + "|" + sourceID,
		Module:     module,
		Source:     source,
		SourceID:   sourceID,
		RecordID:   recordID,
		Subject:    subject,
		Parameter:  parameter,
		Value:      breach.Value,
		Min:        limit.Min,
		Max:        limit.Max,
		Direction:  breach.Direction,
		Severity:   severity,
		ObservedAt: observedAt.UTC(),
	}
}

// BreachKey identifies the breach independently of the record that observed it,
// so repeated readings against the same limit share one key.
func (a Alert) BreachKey() string {
	return string(a.Module) + "|" + string(a.Source) + "|" + a.SourceID + "|" + a.Subject + "|" + a.Parameter + "|" + string(a.Direction)
}

// SortAlerts orders alerts by observed time descending, then severity descending.
func SortAlerts(list []Alert) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].ObservedAt.Equal(list[j].ObservedAt) {
			return list[i].ObservedAt.After(list[j].ObservedAt)
		}
		return list[i].Severity.Rank() > list[j].Severity.Rank()
	})
}

// CountBySeverity tallies alerts per severity, including zero counts.
func CountBySeverity(list []Alert) map[Severity]int {
	counts := make(map[Severity]int, len(Severities))
	for _, severity := range Severities {
		counts[severity] = 0
	}
	for _, alert := range list {
		counts[alert.Severity]++
	}
	return counts
}
