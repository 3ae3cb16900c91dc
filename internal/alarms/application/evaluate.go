package application

import (
	"strings"

	alarms "refinery-ops/internal/alarms/domain"
	quality "refinery-ops/internal/quality/domain"
	water "refinery-ops/internal/water/domain"
)

// EvaluateWater checks every present parameter of a reading against the
// thresholds scoped to its sample point.
func EvaluateWater(reading water.Reading, thresholds []alarms.Threshold) []alarms.Alert {
	var out []alarms.Alert
	for _, threshold := range thresholds {
		if threshold.Module != alarms.ModuleWater || !threshold.Applies(threshold.Parameter, reading.SamplePoint) {
			continue
		}
		value, ok := reading.Value(threshold.Parameter)
		if !ok {
			continue
		}
		limit := threshold.Limit()
		breach, hit := alarms.Evaluate(value, limit)
		if !hit {
			continue
		}
		out = append(out, alarms.NewAlert(
			alarms.ModuleWater,
			alarms.SourceThreshold,
			threshold.ID,
			reading.ID,
			reading.SamplePoint,
			threshold.Parameter,
			limit,
			breach,
			threshold.Severity,
			reading.SampledAt,
		))
	}
	return out
}

// EvaluateQuality checks a test against thresholds scoped to its product and
// against the commercial standards of that product. Standard breaches are high severity.
func EvaluateQuality(test quality.Test, thresholds []alarms.Threshold, standards []quality.Standard) []alarms.Alert {
	subject := string(test.Product)
	if test.BatchNumber != "" {
		subject += " " + test.BatchNumber
	}
	var out []alarms.Alert
	for _, threshold := range thresholds {
		if threshold.Module != alarms.ModuleQuality || !threshold.Applies(threshold.Parameter, string(test.Product)) {
			continue
		}
		value, ok := test.Value(threshold.Parameter)
		if !ok {
			continue
		}
		limit := threshold.Limit()
		if breach, hit := alarms.Evaluate(value, limit); hit {
			out = append(out, alarms.NewAlert(
				alarms.ModuleQuality,
				alarms.SourceThreshold,
				threshold.ID,
				test.ID,
				subject,
				threshold.Parameter,
				limit,
				breach,
				threshold.Severity,
				test.SampledAt,
			))
		}
	}
	for _, standard := range standards {
		if !strings.EqualFold(string(standard.Product), string(test.Product)) {
			continue
		}
		value, ok := test.Value(standard.Parameter)
		if !ok {
			continue
		}
		limit := standard.Limit()
		if breach, hit := alarms.Evaluate(value, limit); hit {
			out = append(out, alarms.NewAlert(
				alarms.ModuleQuality,
				alarms.SourceStandard,
				standard.ID,
				test.ID,
				subject,
				standard.Parameter,
				limit,
				breach,
				alarms.SeverityHigh,
				test.SampledAt,
			))
		}
	}
	return out
}
