package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	alarmapp "refinery-ops/internal/alarms/application"
	alarms "refinery-ops/internal/alarms/domain"
	equipment "refinery-ops/internal/equipment/domain"
	events "refinery-ops/internal/events/domain"
	quality "refinery-ops/internal/quality/domain"
	"refinery-ops/internal/validation"
	water "refinery-ops/internal/water/domain"
)

var now = time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type stubWater struct {
	filter water.Filter
	err    error
}

func (s *stubWater) List(_ context.Context, filter water.Filter) ([]water.Reading, error) {
	s.filter = filter
	return []water.Reading{{ID: "r1"}, {ID: "r2"}}, s.err
}

type stubQuality struct{}

func (stubQuality) List(context.Context, quality.Filter) ([]quality.Test, error) {
	return []quality.Test{{Result: quality.ResultPass}}, nil
}

type stubEquipment struct{}

func (stubEquipment) List(context.Context, equipment.Filter) ([]equipment.Equipment, error) {
	return []equipment.Equipment{{Status: equipment.StatusOperational}, {Status: equipment.StatusStandby}}, nil
}

type stubEvents struct{}

func (stubEvents) List(context.Context, events.Filter) ([]events.Event, error) {
	return []events.Event{{Type: events.TypeShutdown, Category: events.CategoryUnplanned}}, nil
}

type stubAlerts struct {
	filter alarmapp.AlertFilter
}

func (s *stubAlerts) ListAlerts(_ context.Context, filter alarmapp.AlertFilter) ([]alarms.Alert, error) {
	s.filter = filter
	return []alarms.Alert{{Module: alarms.ModuleWater, RecordID: "r2", Severity: alarms.SeverityHigh}}, nil
}

func newService(t *testing.T, w *stubWater, a *stubAlerts) *Service {
	t.Helper()
	svc, err := NewService(Sources{
		Water:     w,
		Quality:   stubQuality{},
		Equipment: stubEquipment{},
		Events:    stubEvents{},
		Alerts:    a,
	}, WithClock(fixedClock{now: now}), WithWindow(7*24*time.Hour))
	require.NoError(t, err)
	return svc
}

func TestSummary(t *testing.T) {
	w, a := &stubWater{}, &stubAlerts{}
	svc := newService(t, w, a)

	summary, err := svc.Summary(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, now.Add(-7*24*time.Hour), summary.From)
	assert.Equal(t, now, summary.To)
	assert.Equal(t, summary.From, w.filter.From)
	assert.Equal(t, summary.To, a.filter.To)
	assert.Equal(t, 1000, w.filter.Limit)

	assert.Equal(t, 2, summary.Water.Readings)
	assert.Equal(t, 1, summary.Water.OutOfRange)
	assert.Equal(t, 50.0, summary.Water.CompliancePct)
	assert.Equal(t, 100.0, summary.Quality.PassRate)
	assert.Equal(t, 50.0, summary.Equipment.AvailabilityPct)
	assert.Equal(t, 1, summary.Events.Open)
	assert.Equal(t, 1, summary.Alerts.BySeverity[alarms.SeverityHigh])
}

type pagedWater struct {
	total int
	pages int
}

func (p *pagedWater) List(_ context.Context, filter water.Filter) ([]water.Reading, error) {
	p.pages++
	var out []water.Reading
	for i := filter.Offset; i < p.total && len(out) < filter.Limit; i++ {
		out = append(out, water.Reading{ID: fmt.Sprintf("r%d", i)})
	}
	return out, nil
}

func TestSummaryCountsEveryReadingInWindow(t *testing.T) {
	source := &pagedWater{total: 1500}
	svc, err := NewService(Sources{
		Water:     source,
		Quality:   stubQuality{},
		Equipment: stubEquipment{},
		Events:    stubEvents{},
		Alerts:    &stubAlerts{},
	}, WithClock(fixedClock{now: now}))
	require.NoError(t, err)

	summary, err := svc.Summary(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1500, summary.Water.Readings)
	assert.Equal(t, 1, summary.Water.OutOfRange)
	assert.Equal(t, 2, source.pages)
}

func TestSummaryExplicitWindow(t *testing.T) {
	w, a := &stubWater{}, &stubAlerts{}
	svc := newService(t, w, a)

	to := now.Add(-24 * time.Hour)
	summary, err := svc.Summary(context.Background(), time.Time{}, to)
	require.NoError(t, err)
	assert.Equal(t, to.Add(-7*24*time.Hour), summary.From)
	assert.Equal(t, to, summary.To)
}

func TestSummarySectionFailure(t *testing.T) {
	boom := errors.New("db down")
	svc := newService(t, &stubWater{err: boom}, &stubAlerts{})

	_, err := svc.Summary(context.Background(), time.Time{}, time.Time{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "load water readings")
}

func TestNewServiceRequiresSources(t *testing.T) {
	_, err := NewService(Sources{Water: &stubWater{}})
	assert.Error(t, err)
}

func TestSummaryFromAfterNow(t *testing.T) {
	svc := newService(t, &stubWater{}, &stubAlerts{})
	_, err := svc.Summary(context.Background(), now.Add(time.Hour), time.Time{})
	var invalid *validation.Error
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "must be before to", invalid.Fields["from"])
}
