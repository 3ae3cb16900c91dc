package water

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refinery-ops/internal/validation"
)

func f(v float64) *float64 { return &v }

func TestReadingValidate(t *testing.T) {
	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	r := NewReading{SamplePoint: " boiler_feed ", SampledAt: now, PH: f(7.2)}.Build("r1", now)
	require.NoError(t, r.Validate())
	assert.Equal(t, "boiler_feed", r.SamplePoint)

	r.PH = f(14.5)
	r.Temperature = f(-60)
	err := r.Validate()
	require.ErrorIs(t, err, validation.ErrInvalid)
	fields := err.(*validation.Error).Fields
	assert.Equal(t, "must be <= 14", fields["ph"])
	assert.Equal(t, "must be >= -50", fields["temperature"])

	empty := NewReading{}.Build("r2", now)
	err = empty.Validate()
	require.Error(t, err)
	fields = err.(*validation.Error).Fields
	assert.Equal(t, "is required", fields["sample_point"])
	assert.Equal(t, "is required", fields["sampled_at"])
}

func TestReadingValue(t *testing.T) {
	r := Reading{PH: f(7), Hardness: f(120)}
	v, ok := r.Value(ParamPH)
	assert.True(t, ok)
	assert.Equal(t, 7.0, v)
	_, ok = r.Value(ParamTDS)
	assert.False(t, ok)
	_, ok = r.Value("unknown")
	assert.False(t, ok)
}

func TestReadingPatch(t *testing.T) {
	created := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	r := Reading{ID: "r1", SamplePoint: "effluent", PH: f(7), CreatedAt: created, UpdatedAt: created}
	later := created.Add(time.Hour)
	notes := "resampled"
	ReadingPatch{PH: f(8.1), Notes: &notes}.Apply(&r, later)
	assert.Equal(t, 8.1, *r.PH)
	assert.Equal(t, "effluent", r.SamplePoint)
	assert.Equal(t, "resampled", r.Notes)
	assert.Equal(t, later, r.UpdatedAt)
	assert.Equal(t, created, r.CreatedAt)
}

func TestReadingPatchClear(t *testing.T) {
	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	r := Reading{ID: "r1", PH: f(7), TDS: f(300), Hardness: f(120)}

	patch := ReadingPatch{Clear: []string{ParamTDS, ParamHardness}, Hardness: f(95)}
	require.NoError(t, patch.Validate())
	patch.Apply(&r, now)
	assert.Nil(t, r.TDS)
	assert.Equal(t, 95.0, *r.Hardness)
	assert.Equal(t, 7.0, *r.PH)

	err := ReadingPatch{Clear: []string{"pH"}}.Validate()
	require.ErrorIs(t, err, validation.ErrInvalid)
	assert.Equal(t, `unknown parameter "pH"`, err.(*validation.Error).Fields["clear"])
}
