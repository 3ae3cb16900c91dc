package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	equipmentapp "refinery-ops/internal/equipment/application"
	equipment "refinery-ops/internal/equipment/domain"
	"refinery-ops/internal/platform/tone"
)

type memRepo struct {
	rows map[string]equipment.Equipment
	last equipment.Filter
}

func (m *memRepo) List(_ context.Context, filter equipment.Filter) ([]equipment.Equipment, error) {
	m.last = filter
	out := make([]equipment.Equipment, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	return out, nil
}

func (m *memRepo) Get(_ context.Context, id string) (*equipment.Equipment, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (m *memRepo) Insert(_ context.Context, item equipment.Equipment) error {
	for _, row := range m.rows {
		if row.Tag == item.Tag {
			return equipment.ErrTagConflict
		}
	}
	m.rows[item.ID] = item
	return nil
}

func (m *memRepo) Update(_ context.Context, item equipment.Equipment) error {
	m.rows[item.ID] = item
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) (bool, error) {
	_, ok := m.rows[id]
	delete(m.rows, id)
	return ok, nil
}

func newTestHandler(t *testing.T) (*Handler, *memRepo) {
	t.Helper()
	repo := &memRepo{rows: map[string]equipment.Equipment{}}
	svc, err := equipmentapp.NewService(repo)
	require.NoError(t, err)
	h, err := NewHandler(svc, nil, nil)
	require.NoError(t, err)
	return h, repo
}

func TestHandler_CreateConflictAndFilter(t *testing.T) {
	h, repo := newTestHandler(t)

	body := `{"tag":"P-101A","name":"Crude charge pump","type":"pump","status":"standby","next_inspection_at":"2020-01-01T00:00:00Z"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, BasePath, strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var view View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, tone.Info, view.StatusTone)
	assert.True(t, view.InspectionOverdue)
	assert.Equal(t, equipment.CriticalityMedium, view.Criticality)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, BasePath, strings.NewReader(body)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, BasePath+"?status=standby&criticality=high&sort=-tag", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, equipment.StatusStandby, repo.last.Status)
	assert.Equal(t, equipment.CriticalityHigh, repo.last.Criticality)
	assert.Equal(t, "-tag", repo.last.Sort)
}

func TestHandler_InspectionOrder(t *testing.T) {
	h, _ := newTestHandler(t)

	body := `{"tag":"E-1","name":"Exchanger","type":"heat_exchanger","last_inspection_at":"2026-05-01T00:00:00Z","next_inspection_at":"2026-04-01T00:00:00Z"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, BasePath, strings.NewReader(body)))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "next_inspection_at")
}
