// Package dashboard aggregates module records into the dashboard summary.
package dashboard

import (
	"math"
	"time"

	alarms "refinery-ops/internal/alarms/domain"
	equipment "refinery-ops/internal/equipment/domain"
	events "refinery-ops/internal/events/domain"
	quality "refinery-ops/internal/quality/domain"
	water "refinery-ops/internal/water/domain"
)

// Summary is the dashboard payload for one window.
type Summary struct {
	From        time.Time        `json:"from"`
	To          time.Time        `json:"to"`
	GeneratedAt time.Time        `json:"generated_at"`
	Water       WaterSummary     `json:"water"`
	Quality     QualitySummary   `json:"quality"`
	Equipment   EquipmentSummary `json:"equipment"`
	Events      EventSummary     `json:"events"`
	Alerts      AlertSummary     `json:"alerts"`
}

// WaterSummary covers water readings in the window.
type WaterSummary struct {
	Readings      int                `json:"readings"`
	OutOfRange    int                `json:"out_of_range"`
	CompliancePct float64            `json:"compliance_pct"`
	Averages      map[string]float64 `json:"averages"`
}

// QualitySummary covers quality tests in the window.
type QualitySummary struct {
	Tests     int                     `json:"tests"`
	ByResult  map[quality.Result]int  `json:"by_result"`
	PassRate  float64                 `json:"pass_rate"`
	ByProduct map[quality.Product]int `json:"by_product"`
}

// EquipmentSummary covers the equipment register.
type EquipmentSummary struct {
	Total              int                           `json:"total"`
	ByStatus           map[equipment.Status]int      `json:"by_status"`
	AvailabilityPct    float64                       `json:"availability_pct"`
	OverdueInspections int                           `json:"overdue_inspections"`
	ByCriticality      map[equipment.Criticality]int `json:"by_criticality"`
}

// EventSummary covers shutdown and startup events started in the window.
type EventSummary struct {
	Total            int                     `json:"total"`
	ByType           map[events.Type]int     `json:"by_type"`
	ByCategory       map[events.Category]int `json:"by_category"`
	Open             int                     `json:"open"`
	AvgDurationHours float64                 `json:"avg_duration_hours"`
	DowntimeHours    float64                 `json:"downtime_hours"`
}

// AlertSummary counts active alerts.
type AlertSummary struct {
	Total      int                     `json:"total"`
	BySeverity map[alarms.Severity]int `json:"by_severity"`
}

// SummarizeWater counts readings and breaches and averages each parameter over
// present values. Parameters with no values are omitted from Averages.
func SummarizeWater(readings []water.Reading, alerts []alarms.Alert) WaterSummary {
	breached := make(map[string]struct{})
	for _, alert := range alerts {
		if alert.Module == alarms.ModuleWater {
			breached[alert.RecordID] = struct{}{}
		}
	}

	out := WaterSummary{Readings: len(readings), Averages: map[string]float64{}}
	sums := make(map[string]float64, len(water.Parameters))
	counts := make(map[string]int, len(water.Parameters))
	for _, reading := range readings {
		if _, ok := breached[reading.ID]; ok {
			out.OutOfRange++
		}
		for _, parameter := range water.Parameters {
			if v, ok := reading.Value(parameter); ok {
				sums[parameter] += v
				counts[parameter]++
			}
		}
	}
	for parameter, n := range counts {
		out.Averages[parameter] = round2(sums[parameter] / float64(n))
	}
	out.CompliancePct = Percent(out.Readings-out.OutOfRange, out.Readings)
	return out
}

// SummarizeQuality counts tests by result and product.
func SummarizeQuality(tests []quality.Test) QualitySummary {
	out := QualitySummary{
		Tests:     len(tests),
		ByResult:  make(map[quality.Result]int, len(quality.Results)),
		ByProduct: map[quality.Product]int{},
	}
	for _, result := range quality.Results {
		out.ByResult[result] = 0
	}
	for _, test := range tests {
		out.ByResult[test.Result]++
		out.ByProduct[test.Product]++
	}
	pass := out.ByResult[quality.ResultPass]
	out.PassRate = Percent(pass, pass+out.ByResult[quality.ResultFail])
	return out
}

// SummarizeEquipment counts equipment by status and criticality.
func SummarizeEquipment(list []equipment.Equipment, now time.Time) EquipmentSummary {
	out := EquipmentSummary{
		Total:         len(list),
		ByStatus:      make(map[equipment.Status]int, len(equipment.Statuses)),
		ByCriticality: make(map[equipment.Criticality]int, len(equipment.Criticalities)),
	}
	for _, status := range equipment.Statuses {
		out.ByStatus[status] = 0
	}
	for _, criticality := range equipment.Criticalities {
		out.ByCriticality[criticality] = 0
	}
	for _, item := range list {
		out.ByStatus[item.Status]++
		out.ByCriticality[item.Criticality]++
		if item.InspectionOverdue(now) {
			out.OverdueInspections++
		}
	}
	out.AvailabilityPct = Percent(out.ByStatus[equipment.StatusOperational], out.Total)
	return out
}

// SummarizeEvents counts events and totals closed durations.
// Downtime only includes closed shutdowns.
func SummarizeEvents(list []events.Event) EventSummary {
	out := EventSummary{
		Total:      len(list),
		ByType:     make(map[events.Type]int, len(events.Types)),
		ByCategory: make(map[events.Category]int, len(events.Categories)),
	}
	for _, typ := range events.Types {
		out.ByType[typ] = 0
	}
	for _, category := range events.Categories {
		out.ByCategory[category] = 0
	}
	var closed int
	var totalHours float64
	for _, event := range list {
		out.ByType[event.Type]++
		out.ByCategory[event.Category]++
		duration, ok := event.Duration()
		if !ok {
			out.Open++
			continue
		}
		closed++
		totalHours += duration.Hours()
		if event.Type == events.TypeShutdown {
			out.DowntimeHours += duration.Hours()
		}
	}
	if closed > 0 {
		out.AvgDurationHours = round2(totalHours / float64(closed))
	}
	out.DowntimeHours = round2(out.DowntimeHours)
	return out
}

// SummarizeAlerts counts alerts by severity.
func SummarizeAlerts(list []alarms.Alert) AlertSummary {
	return AlertSummary{Total: len(list), BySeverity: alarms.CountBySeverity(list)}
}

// Percent returns part/total as a percentage rounded to two decimals, or 0
// when total is 0.
func Percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round2(float64(part) * 100 / float64(total))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
