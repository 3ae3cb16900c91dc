package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refinery-ops/internal/auth"
)

func TestDigestJSON(t *testing.T) {
	assert.Empty(t, DigestJSON(nil))
	assert.Equal(t,
		"44136fa355b3678a1146ad16f7e8649e94fb4fc21fe77e8310c060f61caaff8a",
		DigestJSON([]byte("{}")))
}

func TestNewID(t *testing.T) {
	id := NewID()
	assert.True(t, strings.HasPrefix(id, "audit-"))
	assert.NotEqual(t, id, NewID())
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:5555"
	assert.Equal(t, "10.0.0.9", ClientIP(req))

	req.Header.Set("X-Real-IP", " 10.1.1.1 ")
	assert.Equal(t, "10.1.1.1", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "192.168.1.2, 10.1.1.1")
	assert.Equal(t, "192.168.1.2", ClientIP(req))
}

func TestFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/equipment", nil)
	req.RemoteAddr = "10.0.0.9:5555"
	req.Header.Set("User-Agent", "ops-console")
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.RoleOperator, "user-7"))

	entry := FromRequest(req, "equipment.create", "equipment", "eq-1", "equipment", map[string]any{"tag": "P-101A"})
	assert.Equal(t, "user-7", entry.Actor)
	assert.Equal(t, "operator", entry.Role)
	assert.Equal(t, "10.0.0.9", entry.IP)
	assert.Equal(t, "ops-console", entry.UserAgent)
	assert.JSONEq(t, `{"tag":"P-101A"}`, string(entry.Metadata))
}

type stubLister struct {
	got     Filter
	entries []Entry
}

func (s *stubLister) List(_ context.Context, filter Filter) ([]Entry, error) {
	s.got = filter
	return s.entries, nil
}

func TestHandler_List(t *testing.T) {
	lister := &stubLister{entries: []Entry{{ID: "audit-1", Action: "water_reading.create"}}}
	handler := NewHandler(lister)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit?action=water_reading.create&from=2026-01-01T00:00:00Z&limit=5", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "water_reading.create", lister.got.Action)
	assert.Equal(t, 5, lister.got.Limit)
	assert.Equal(t, 2026, lister.got.From.Year())

	var body []Entry
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "audit-1", body[0].ID)

	bad := httptest.NewRequest(http.MethodGet, "/api/v1/audit?from=yesterday", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, bad)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
