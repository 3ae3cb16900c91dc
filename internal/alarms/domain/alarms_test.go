package alarms

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refinery-ops/internal/validation"
)

func f(v float64) *float64 { return &v }

func TestLimitOutOfRange(t *testing.T) {
	cases := []struct {
		name  string
		limit Limit
		value float64
		want  bool
	}{
		{"no bounds", Limit{}, 100, false},
		{"below min", Limit{Min: f(6.5)}, 6.4, true},
		{"equal min", Limit{Min: f(6.5)}, 6.5, false},
		{"above max", Limit{Max: f(9)}, 9.01, true},
		{"equal max", Limit{Max: f(9)}, 9, false},
		{"inside both", Limit{Min: f(1), Max: f(2)}, 1.5, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.limit.OutOfRange(tc.value))
		})
	}
}

func TestEvaluate(t *testing.T) {
	breach, ok := Evaluate(5, Limit{Min: f(6.5), Max: f(9)})
	require.True(t, ok)
	assert.Equal(t, Breach{Value: 5, Direction: DirectionLow, Bound: 6.5}, breach)

	breach, ok = Evaluate(10, Limit{Min: f(6.5), Max: f(9)})
	require.True(t, ok)
	assert.Equal(t, DirectionHigh, breach.Direction)
	assert.Equal(t, 9.0, breach.Bound)

	_, ok = Evaluate(7, Limit{Min: f(6.5), Max: f(9)})
	assert.False(t, ok)
}

func TestThresholdValidate(t *testing.T) {
	th := NewThreshold{Module: ModuleWater, Parameter: "ph"}.Build("t1", time.Now())
	err := th.Validate()
	require.ErrorIs(t, err, validation.ErrInvalid)
	assert.Equal(t, "min or max is required", err.(*validation.Error).Fields["min"])

	th.Min, th.Max = f(9), f(6)
	err = th.Validate()
	require.Error(t, err)
	assert.Equal(t, "must be >= min", err.(*validation.Error).Fields["max"])

	th.Min, th.Max = f(6), f(9)
	assert.NoError(t, th.Validate())
	assert.Equal(t, SeverityMedium, th.Severity)
	assert.True(t, th.Enabled)

	th.Module = "air"
	err = th.Validate()
	require.Error(t, err)
	assert.Contains(t, err.(*validation.Error).Fields["module"], "must be one of")
}

func TestThresholdValidateFor(t *testing.T) {
	measured := map[Module][]string{ModuleWater: {"ph", "tds"}}
	th := Threshold{Module: ModuleWater, Parameter: "ph", Max: f(9), Severity: SeverityLow}
	assert.NoError(t, th.ValidateFor(measured))

	th.Parameter = "pH"
	err := th.ValidateFor(measured)
	require.ErrorIs(t, err, validation.ErrInvalid)
	assert.Equal(t, "must be one of ph tds", err.(*validation.Error).Fields["parameter"])
	assert.NoError(t, th.Validate())

	th.Module = ModuleQuality
	assert.NoError(t, th.ValidateFor(measured))
}

func TestBreachKeyIgnoresRecord(t *testing.T) {
	limit := Limit{Max: f(9)}
	breach, _ := Evaluate(10, limit)
	a := NewAlert(ModuleWater, SourceThreshold, "th-ph", "wr-1", "effluent", "ph", limit, breach, SeverityHigh, time.Now())
	b := NewAlert(ModuleWater, SourceThreshold, "th-ph", "wr-2", "effluent", "ph", limit, breach, SeverityHigh, time.Now())
	assert.NotEqual(t, a.Key, b.Key)
	assert.Equal(t, a.BreachKey(), b.BreachKey())

	low, _ := Evaluate(1, Limit{Min: f(6)})
	c := NewAlert(ModuleWater, SourceThreshold, "th-ph", "wr-3", "effluent", "ph", Limit{Min: f(6)}, low, SeverityHigh, time.Now())
	assert.NotEqual(t, a.BreachKey(), c.BreachKey())
}

func TestThresholdApplies(t *testing.T) {
	th := Threshold{Parameter: "ph", Enabled: true}
	assert.True(t, th.Applies("ph", "boiler_feed"))
	th.Scope = "Boiler_Feed"
	assert.True(t, th.Applies("ph", "boiler_feed"))
	assert.False(t, th.Applies("ph", "effluent"))
	assert.False(t, th.Applies("tds", "boiler_feed"))
	th.Enabled = false
	assert.False(t, th.Applies("ph", "boiler_feed"))
}

func TestThresholdPatch(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	th := Threshold{Parameter: "ph", Min: f(6), Max: f(9), Severity: SeverityLow, Enabled: true}
	sev := SeverityCritical
	ThresholdPatch{ClearMin: true, Max: f(8.5), Severity: &sev}.Apply(&th, now)
	assert.Nil(t, th.Min)
	assert.Equal(t, 8.5, *th.Max)
	assert.Equal(t, SeverityCritical, th.Severity)
	assert.Equal(t, now, th.UpdatedAt)
}

func TestSortAlerts(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	list := []Alert{
		{Key: "a", ObservedAt: t0, Severity: SeverityLow},
		{Key: "b", ObservedAt: t0.Add(time.Hour), Severity: SeverityLow},
		{Key: "c", ObservedAt: t0, Severity: SeverityCritical},
	}
	SortAlerts(list)
	assert.Equal(t, []string{"b", "c", "a"}, []string{list[0].Key, list[1].Key, list[2].Key})

	counts := CountBySeverity(list)
	assert.Equal(t, 2, counts[SeverityLow])
	assert.Equal(t, 0, counts[SeverityHigh])
}

func TestSeverityTone(t *testing.T) {
	assert.Equal(t, "danger", string(SeverityCritical.Tone()))
	assert.Equal(t, "info", string(SeverityLow.Tone()))
	assert.True(t, SeverityHigh.AtLeast(SeverityMedium))
}
