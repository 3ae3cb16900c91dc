package equipment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refinery-ops/internal/platform/tone"
	"refinery-ops/internal/validation"
)

func at(day int) *time.Time {
	t := time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestBuildDefaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	e := NewEquipment{Tag: " p-101a ", Name: "Crude charge pump", Type: TypePump}.Build("eq-1", now)

	assert.Equal(t, "P-101A", e.Tag)
	assert.Equal(t, StatusOperational, e.Status)
	assert.Equal(t, CriticalityMedium, e.Criticality)
	require.NoError(t, e.Validate())
}

func TestValidateInspectionOrder(t *testing.T) {
	e := NewEquipment{Tag: "E-201", Name: "Exchanger", Type: TypeHeatExchanger,
		LastInspectionAt: at(10), NextInspectionAt: at(5)}.Build("eq-1", time.Now())

	err := e.Validate()
	var invalid *validation.Error
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "must not precede last_inspection_at", invalid.Fields["next_inspection_at"])

	e.NextInspectionAt = at(10)
	assert.NoError(t, e.Validate())
}

func TestValidateEnums(t *testing.T) {
	e := NewEquipment{Tag: "X-1", Name: "Thing", Type: "boat", Status: "broken"}.Build("eq-1", time.Now())
	var invalid *validation.Error
	require.ErrorAs(t, e.Validate(), &invalid)
	assert.Contains(t, invalid.Fields, "type")
	assert.Contains(t, invalid.Fields, "status")
}

func TestStatusTone(t *testing.T) {
	assert.Equal(t, tone.Success, StatusOperational.Tone())
	assert.Equal(t, tone.Info, StatusStandby.Tone())
	assert.Equal(t, tone.Warning, StatusMaintenance.Tone())
	assert.Equal(t, tone.Danger, StatusOutOfService.Tone())
	assert.Equal(t, tone.Neutral, Status("unknown").Tone())
}

func TestPatchAndOverdue(t *testing.T) {
	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	e := NewEquipment{Tag: "C-301", Name: "Compressor", Type: TypeCompressor, NextInspectionAt: at(15)}.Build("eq-1", now)
	assert.True(t, e.InspectionOverdue(now))

	status := StatusMaintenance
	Patch{Status: &status, NextInspectionAt: at(25)}.Apply(&e, now)
	assert.Equal(t, StatusMaintenance, e.Status)
	assert.False(t, e.InspectionOverdue(now))
}
