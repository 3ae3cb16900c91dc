package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	alarmapp "refinery-ops/internal/alarms/application"
	alarms "refinery-ops/internal/alarms/domain"
	dashboardapp "refinery-ops/internal/dashboard/application"
	dashboard "refinery-ops/internal/dashboard/domain"
	equipment "refinery-ops/internal/equipment/domain"
	events "refinery-ops/internal/events/domain"
	quality "refinery-ops/internal/quality/domain"
	water "refinery-ops/internal/water/domain"
)

type emptyWater struct{}

func (emptyWater) List(context.Context, water.Filter) ([]water.Reading, error) { return nil, nil }

type emptyQuality struct{}

func (emptyQuality) List(context.Context, quality.Filter) ([]quality.Test, error) { return nil, nil }

type emptyEquipment struct{}

func (emptyEquipment) List(context.Context, equipment.Filter) ([]equipment.Equipment, error) {
	return nil, nil
}

type emptyEvents struct{}

func (emptyEvents) List(context.Context, events.Filter) ([]events.Event, error) { return nil, nil }

type emptyAlerts struct{}

func (emptyAlerts) ListAlerts(context.Context, alarmapp.AlertFilter) ([]alarms.Alert, error) {
	return []alarms.Alert{}, nil
}

func newHandler(t *testing.T) *Handler {
	t.Helper()
	svc, err := dashboardapp.NewService(dashboardapp.Sources{
		Water:     emptyWater{},
		Quality:   emptyQuality{},
		Equipment: emptyEquipment{},
		Events:    emptyEvents{},
		Alerts:    emptyAlerts{},
	})
	require.NoError(t, err)
	h, err := NewHandler(svc, nil)
	require.NoError(t, err)
	return h
}

func TestHandler_Summary(t *testing.T) {
	h := newHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, Path+"?from=2026-06-01T00:00:00Z&to=2026-07-01T00:00:00Z", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var summary dashboard.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), summary.From)
	assert.Equal(t, 0.0, summary.Water.CompliancePct)
	assert.Equal(t, 0.0, summary.Equipment.AvailabilityPct)
	assert.Equal(t, 0, summary.Quality.ByResult[quality.ResultPass])
}

func TestHandler_Errors(t *testing.T) {
	h := newHandler(t)

	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, Path + "?from=yesterday", http.StatusBadRequest},
		{http.MethodGet, Path + "?from=2026-07-01T00:00:00Z&to=2026-06-01T00:00:00Z", http.StatusBadRequest},
		{http.MethodGet, Path + "?from=2999-01-01T00:00:00Z", http.StatusUnprocessableEntity},
		{http.MethodPost, Path, http.StatusMethodNotAllowed},
		{http.MethodGet, Path + "/extra", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.want, rec.Code, tc.path)
	}
}
