package quality

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refinery-ops/internal/platform/tone"
	"refinery-ops/internal/validation"
)

func f(v float64) *float64 { return &v }

func TestTestBuildDefaults(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	test := NewTest{Product: ProductDiesel, BatchNumber: " B-17 ", SampledAt: now}.Build("qt-1", now)
	assert.Equal(t, ResultPending, test.Result)
	assert.Equal(t, "B-17", test.BatchNumber)
	assert.NoError(t, test.Validate())
}

func TestTestValidate(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	test := NewTest{Product: "crude", BatchNumber: "B-1", SampledAt: now, Density: f(0), OctaneNumber: f(130)}.Build("qt-1", now)
	err := test.Validate()
	require.ErrorIs(t, err, validation.ErrInvalid)
	fields := err.(*validation.Error).Fields
	assert.Contains(t, fields["product"], "must be one of")
	assert.Equal(t, "must be > 0", fields["density"])
	assert.Equal(t, "must be <= 120", fields["octane_number"])
}

func TestStandardValidate(t *testing.T) {
	now := time.Now()
	s := NewStandard{Product: ProductGasoline, Parameter: "colour"}.Build("st-1", now)
	err := s.Validate()
	require.Error(t, err)
	fields := err.(*validation.Error).Fields
	assert.Contains(t, fields["parameter"], "must be one of")
	assert.Equal(t, "min or max is required", fields["min"])

	s.Parameter = ParamOctaneNumber
	s.Min = f(91)
	assert.NoError(t, s.Validate())
}

func TestCheckCompliance(t *testing.T) {
	test := Test{
		ID:            "qt-1",
		Product:       ProductGasoline,
		Density:       f(760),
		SulfurContent: f(12),
		OctaneNumber:  f(89),
	}
	standards := []Standard{
		{ID: "s-density", Product: ProductGasoline, Parameter: ParamDensity, Min: f(720), Max: f(775), Unit: "kg/m3"},
		{ID: "s-sulfur", Product: ProductGasoline, Parameter: ParamSulfurContent, Max: f(10)},
		{ID: "s-octane", Product: ProductGasoline, Parameter: ParamOctaneNumber, Min: f(91)},
		{ID: "s-water", Product: ProductGasoline, Parameter: ParamWaterContent, Max: f(200)},
		{ID: "s-diesel", Product: ProductDiesel, Parameter: ParamDensity, Min: f(820)},
	}

	got := CheckCompliance(test, standards)
	want := Compliance{
		TestID:    "qt-1",
		Product:   ProductGasoline,
		Compliant: false,
		Lines: []ComplianceLine{
			{Parameter: ParamDensity, Value: 760, Min: f(720), Max: f(775), Unit: "kg/m3", StandardID: "s-density", Verdict: VerdictWithin, StatusTone: tone.Success},
			{Parameter: ParamSulfurContent, Value: 12, Max: f(10), StandardID: "s-sulfur", Verdict: VerdictAbove, StatusTone: tone.Danger},
			{Parameter: ParamOctaneNumber, Value: 89, Min: f(91), StandardID: "s-octane", Verdict: VerdictBelow, StatusTone: tone.Danger},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("compliance mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckComplianceNoStandards(t *testing.T) {
	got := CheckCompliance(Test{ID: "qt-2", Product: ProductLPG}, nil)
	assert.True(t, got.Compliant)
	assert.Empty(t, got.Lines)
}

func TestResultTone(t *testing.T) {
	assert.Equal(t, tone.Success, ResultPass.Tone())
	assert.Equal(t, tone.Danger, ResultFail.Tone())
	assert.Equal(t, tone.Warning, ResultPending.Tone())
}

func TestTestPatchClear(t *testing.T) {
	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	test := Test{ID: "qt-1", Density: f(840), WaterContent: f(0.02)}

	patch := TestPatch{Clear: []string{ParamWaterContent}}
	require.NoError(t, patch.Validate())
	patch.Apply(&test, now)
	assert.Nil(t, test.WaterContent)
	assert.Equal(t, 840.0, *test.Density)
	assert.Equal(t, now, test.UpdatedAt)

	err := TestPatch{Clear: []string{"tds"}}.Validate()
	require.ErrorIs(t, err, validation.ErrInvalid)
	assert.Contains(t, err.Error(), `clear: unknown parameter "tds"`)
}
