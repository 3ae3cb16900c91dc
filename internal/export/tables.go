package export

import (
	"math"
	"time"

	alarms "refinery-ops/internal/alarms/domain"
	equipment "refinery-ops/internal/equipment/domain"
	events "refinery-ops/internal/events/domain"
	quality "refinery-ops/internal/quality/domain"
	water "refinery-ops/internal/water/domain"
)

// WaterTable lists water readings.
func WaterTable(list []water.Reading) Table {
	t := Table{
		Title: "Water treatment readings",
		Columns: []string{"Sampled at", "Sample point", "pH", "Conductivity (µS/cm)", "Turbidity (NTU)",
			"Residual chlorine (mg/L)", "Temperature (°C)", "TDS (mg/L)", "Hardness (mg/L CaCO3)", "Recorded by", "Notes"},
		StatusColumn: -1,
	}
	for _, r := range list {
		t.Rows = append(t.Rows, Row{Cells: []string{
			formatTime(r.SampledAt),
			r.SamplePoint,
			formatFloatPtr(r.PH),
			formatFloatPtr(r.Conductivity),
			formatFloatPtr(r.Turbidity),
			formatFloatPtr(r.ResidualChlorine),
			formatFloatPtr(r.Temperature),
			formatFloatPtr(r.TDS),
			formatFloatPtr(r.Hardness),
			r.RecordedBy,
			r.Notes,
		}})
	}
	return t
}

// QualityTable lists quality tests; the result cell is coloured.
func QualityTable(list []quality.Test) Table {
	t := Table{
		Title: "Product quality tests",
		Columns: []string{"Sampled at", "Product", "Batch", "Tank", "Density (kg/m³)", "Flash point (°C)",
			"Sulfur (ppm)", "Viscosity (cSt)", "Octane", "Water (ppm)", "Result", "Tested by"},
		StatusColumn: 10,
	}
	for _, q := range list {
		t.Rows = append(t.Rows, Row{
			Cells: []string{
				formatTime(q.SampledAt),
				string(q.Product),
				q.BatchNumber,
				q.Tank,
				formatFloatPtr(q.Density),
				formatFloatPtr(q.FlashPoint),
				formatFloatPtr(q.SulfurContent),
				formatFloatPtr(q.Viscosity),
				formatFloatPtr(q.OctaneNumber),
				formatFloatPtr(q.WaterContent),
				string(q.Result),
				q.TestedBy,
			},
			Tone: q.Result.Tone(),
		})
	}
	return t
}

// StandardsTable lists commercial standards.
func StandardsTable(list []quality.Standard) Table {
	t := Table{
		Title:        "Commercial standards",
		Columns:      []string{"Product", "Parameter", "Min", "Max", "Unit", "Method", "Reference"},
		StatusColumn: -1,
	}
	for _, s := range list {
		t.Rows = append(t.Rows, Row{Cells: []string{
			string(s.Product),
			s.Parameter,
			formatFloatPtr(s.Min),
			formatFloatPtr(s.Max),
			s.Unit,
			s.Method,
			s.Reference,
		}})
	}
	return t
}

// EquipmentTable lists equipment; the status cell is coloured.
func EquipmentTable(list []equipment.Equipment, now time.Time) Table {
	t := Table{
		Title: "Equipment register",
		Columns: []string{"Tag", "Name", "Type", "Area", "Status", "Criticality", "Manufacturer", "Model",
			"Last inspection", "Next inspection", "Overdue"},
		StatusColumn: 4,
	}
	for _, e := range list {
		overdue := ""
		if e.InspectionOverdue(now) {
			overdue = "yes"
		}
		t.Rows = append(t.Rows, Row{
			Cells: []string{
				e.Tag,
				e.Name,
				string(e.Type),
				e.Area,
				string(e.Status),
				string(e.Criticality),
				e.Manufacturer,
				e.Model,
				formatDatePtr(e.LastInspectionAt),
				formatDatePtr(e.NextInspectionAt),
				overdue,
			},
			Tone: e.Status.Tone(),
		})
	}
	return t
}

// EventsTable lists shutdown and startup events; the status cell is coloured.
func EventsTable(list []events.Event) Table {
	t := Table{
		Title: "Shutdown and startup events",
		Columns: []string{"Started at", "Ended at", "Type", "Category", "Area", "Equipment", "Status",
			"Duration (h)", "Reason", "Reported by"},
		StatusColumn: 6,
	}
	for _, e := range list {
		duration := ""
		if d, ok := e.Duration(); ok {
			duration = formatFloat(roundHours(d))
		}
		t.Rows = append(t.Rows, Row{
			Cells: []string{
				formatTime(e.StartedAt),
				formatTimePtr(e.EndedAt),
				string(e.Type),
				string(e.Category),
				e.Area,
				formatStringPtr(e.EquipmentID),
				string(e.Status),
				duration,
				e.Reason,
				e.ReportedBy,
			},
			Tone: e.Tone(),
		})
	}
	return t
}

// AlertsTable lists computed alerts; the severity cell is coloured.
func AlertsTable(list []alarms.Alert) Table {
	t := Table{
		Title: "Out-of-range alerts",
		Columns: []string{"Observed at", "Module", "Subject", "Parameter", "Value", "Direction",
			"Min", "Max", "Severity", "Source"},
		StatusColumn: 8,
	}
	for _, a := range list {
		t.Rows = append(t.Rows, Row{
			Cells: []string{
				formatTime(a.ObservedAt),
				string(a.Module),
				a.Subject,
				a.Parameter,
				formatFloat(a.Value),
				string(a.Direction),
				formatFloatPtr(a.Min),
				formatFloatPtr(a.Max),
				string(a.Severity),
				string(a.Source),
			},
			Tone: a.Severity.Tone(),
		})
	}
	return t
}

func roundHours(d time.Duration) float64 {
	return math.Round(d.Hours()*100) / 100
}
