package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSubjects struct {
	active bool
	found  bool
	err    error
}

func (s stubSubjects) SubjectActive(_ context.Context, _ string) (bool, bool, error) {
	return s.active, s.found, s.err
}

func newTestHandler(secret []byte, subjects SubjectChecker) http.Handler {
	policy := NewDefaultPolicy([]string{"/healthz"}, nil)
	mw := NewMiddleware(secret, policy, subjects)
	return mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SubjectFromContext(r.Context()) == "" && r.URL.Path != "/healthz" {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	handler := newTestHandler([]byte("test-secret"), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/water-readings", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthMiddleware_ExemptPath(t *testing.T) {
	handler := newTestHandler([]byte("test-secret"), nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestAuthMiddleware_RoleMatrix(t *testing.T) {
	secret := []byte("test-secret")
	handler := newTestHandler(secret, nil)

	cases := []struct {
		name   string
		role   string
		method string
		path   string
		want   int
	}{
		{"viewer reads readings", "viewer", http.MethodGet, "/api/v1/water-readings", http.StatusOK},
		{"viewer cannot create reading", "viewer", http.MethodPost, "/api/v1/water-readings", http.StatusForbidden},
		{"operator creates reading", "operator", http.MethodPost, "/api/v1/water-readings", http.StatusOK},
		{"operator deletes event", "operator", http.MethodDelete, "/api/v1/events/ev-1", http.StatusOK},
		{"viewer reads thresholds", "viewer", http.MethodGet, "/api/v1/thresholds", http.StatusOK},
		{"operator cannot edit thresholds", "operator", http.MethodPatch, "/api/v1/thresholds/t-1", http.StatusForbidden},
		{"admin edits thresholds", "admin", http.MethodPatch, "/api/v1/thresholds/t-1", http.StatusOK},
		{"operator cannot edit standards", "operator", http.MethodPost, "/api/v1/standards", http.StatusForbidden},
		{"operator cannot list users", "operator", http.MethodGet, "/api/v1/users", http.StatusForbidden},
		{"admin lists users", "admin", http.MethodGet, "/api/v1/users", http.StatusOK},
		{"viewer reads own profile", "viewer", http.MethodGet, "/api/v1/me", http.StatusOK},
		{"viewer exports", "viewer", http.MethodGet, "/api/v1/exports/water.csv", http.StatusOK},
		{"operator cannot read audit", "operator", http.MethodGet, "/api/v1/audit", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token := mustToken(t, secret, "user-1", tc.role, time.Hour)
			req := httptest.NewRequest(tc.method, tc.path, nil)
			req.Header.Set("Authorization", "Bearer "+token)
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			assert.Equal(t, tc.want, resp.Code)
		})
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	secret := []byte("test-secret")
	handler := newTestHandler(secret, nil)
	token := mustToken(t, secret, "user-1", "admin", -time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/equipment", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthMiddleware_InactiveSubject(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "user-1", "operator", time.Hour)

	cases := []struct {
		name     string
		subjects stubSubjects
		want     int
	}{
		{"active profile", stubSubjects{active: true, found: true}, http.StatusOK},
		{"no profile", stubSubjects{}, http.StatusOK},
		{"inactive profile", stubSubjects{active: false, found: true}, http.StatusForbidden},
		{"lookup error", stubSubjects{err: errors.New("db down")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestHandler(secret, tc.subjects)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/equipment", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			assert.Equal(t, tc.want, resp.Code)
		})
	}
}

func TestAuthMiddleware_ErrorBodies(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "user-1", "viewer", time.Hour)

	cases := []struct {
		name     string
		header   string
		method   string
		subjects SubjectChecker
		want     string
	}{
		{"lowercase scheme accepted", "bearer " + token, http.MethodGet, nil, ""},
		{"missing scheme", token, http.MethodGet, nil, `{"error":"unauthorized"}`},
		{"viewer writes", "Bearer " + token, http.MethodPost, nil, `{"error":"forbidden"}`},
		{"inactive", "Bearer " + token, http.MethodGet, stubSubjects{found: true}, `{"error":"account inactive"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestHandler(secret, tc.subjects)
			req := httptest.NewRequest(tc.method, "/api/v1/equipment", nil)
			req.Header.Set("Authorization", tc.header)
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			if tc.want == "" {
				assert.Equal(t, http.StatusOK, resp.Code)
				return
			}
			assert.JSONEq(t, tc.want, resp.Body.String())
			assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))
		})
	}
}

func TestIssueJWT_RoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	token, err := IssueJWT(secret, "user-9", RoleOperator, time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-9", claims.Subject)
	assert.Equal(t, string(RoleOperator), claims.Role)

	_, err = ParseJWT(token, []byte("other-secret"))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = IssueJWT(secret, "user-9", Role("root"), time.Hour)
	assert.Error(t, err)
}

func TestRoleAtLeast(t *testing.T) {
	assert.True(t, RoleAtLeast(RoleAdmin, RoleOperator))
	assert.True(t, RoleAtLeast(RoleViewer, RoleViewer))
	assert.False(t, RoleAtLeast(RoleViewer, RoleOperator))
	assert.False(t, RoleAtLeast(Role(""), RoleViewer))
	assert.False(t, RoleAtLeast(Role("root"), RoleViewer))

	role, ok := NormalizeRole("operator")
	assert.True(t, ok)
	assert.Equal(t, RoleOperator, role)
	_, ok = NormalizeRole("Operator")
	assert.False(t, ok)
}

func mustToken(t *testing.T, secret []byte, subject, role string, ttl time.Duration) string {
	t.Helper()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
