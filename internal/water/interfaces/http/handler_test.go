package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	waterapp "refinery-ops/internal/water/application"
	water "refinery-ops/internal/water/domain"
)

type memRepo struct {
	rows map[string]water.Reading
	last water.Filter
}

func (m *memRepo) List(_ context.Context, filter water.Filter) ([]water.Reading, error) {
	m.last = filter
	out := make([]water.Reading, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r)
	}
	return out, nil
}

func (m *memRepo) Get(_ context.Context, id string) (*water.Reading, error) {
	r, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memRepo) Insert(_ context.Context, r water.Reading) error {
	m.rows[r.ID] = r
	return nil
}

func (m *memRepo) Update(_ context.Context, r water.Reading) error {
	m.rows[r.ID] = r
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) (bool, error) {
	_, ok := m.rows[id]
	delete(m.rows, id)
	return ok, nil
}

func newTestHandler(t *testing.T) (*Handler, *memRepo) {
	t.Helper()
	repo := &memRepo{rows: map[string]water.Reading{}}
	svc, err := waterapp.NewService(repo, waterapp.WithIDGenerator(func() string { return "wr-1" }))
	require.NoError(t, err)
	h, err := NewHandler(svc, nil, nil)
	require.NoError(t, err)
	return h, repo
}

func TestHandler_CreateAndList(t *testing.T) {
	h, repo := newTestHandler(t)

	body := `{"sample_point":"cooling_tower","sampled_at":"2026-02-01T08:00:00Z","ph":7.8,"tds":410}`
	req := httptest.NewRequest(http.MethodPost, BasePath, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created water.Reading
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "wr-1", created.ID)
	assert.Equal(t, 410.0, *created.TDS)

	req = httptest.NewRequest(http.MethodGet, BasePath+"?sample_point=cooling_tower&from=2026-01-01T00:00:00Z&sort=-ph&limit=10", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cooling_tower", repo.last.SamplePoint)
	assert.Equal(t, "-ph", repo.last.Sort)
	assert.Equal(t, 10, repo.last.Limit)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), repo.last.From)
}

func TestHandler_ValidationError(t *testing.T) {
	h, _ := newTestHandler(t)
	body := `{"sample_point":"effluent","sampled_at":"2026-02-01T08:00:00Z","ph":15}`
	req := httptest.NewRequest(http.MethodPost, BasePath, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "must be <= 14", resp.Fields["ph"])
}

func TestHandler_NotFound(t *testing.T) {
	h, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodDelete, BasePath+"/missing", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestParseFilter_BadWindow(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, BasePath+"?to=nope", nil)
	_, err := ParseFilter(req)
	assert.EqualError(t, err, "to must be RFC3339")
}
