package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Middleware authenticates bearer tokens and enforces the route policy on
// every non-exempt request.
type Middleware struct {
	secret   []byte
	policy   Policy
	subjects SubjectChecker
	logger   *zap.Logger
}

// MiddlewareOption configures the middleware.
type MiddlewareOption func(*Middleware)

// WithMiddlewareLogger logs failed profile lookups.
func WithMiddlewareLogger(logger *zap.Logger) MiddlewareOption {
	return func(m *Middleware) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMiddleware builds the middleware. subjects may be nil, in which case
// only the token and role are checked.
func NewMiddleware(secret []byte, policy Policy, subjects SubjectChecker, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{secret: secret, policy: policy, subjects: subjects, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Wrap guards next with authentication and role checks.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.policy.IsExempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		required, guarded := m.policy.RequiredRole(r)
		if !guarded {
			next.ServeHTTP(w, r)
			return
		}
		role, subject, err := m.authorize(r, required)
		if err != nil {
			m.deny(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), role, subject)))
	})
}

// authorize resolves the caller and checks it against required. Errors wrap
// ErrUnauthorized, ErrForbidden or ErrInactive; anything else is a lookup failure.
func (m *Middleware) authorize(r *http.Request, required Role) (Role, string, error) {
	claims, err := ParseJWT(bearerToken(r), m.secret)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	role, _ := NormalizeRole(claims.Role)
	if !RoleAtLeast(role, required) {
		return "", "", fmt.Errorf("%w: %s needs %s", ErrForbidden, role, required)
	}
	if m.subjects == nil {
		return role, claims.Subject, nil
	}
	active, found, err := m.subjects.SubjectActive(r.Context(), claims.Subject)
	if err != nil {
		return "", "", fmt.Errorf("check subject %s: %w", claims.Subject, err)
	}
	if found && !active {
		return "", "", ErrInactive
	}
	return role, claims.Subject, nil
}

func (m *Middleware) deny(w http.ResponseWriter, r *http.Request, err error) {
	status, message := http.StatusInternalServerError, "auth check failed"
	switch {
	case errors.Is(err, ErrUnauthorized):
		status, message = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, ErrForbidden):
		status, message = http.StatusForbidden, "forbidden"
	case errors.Is(err, ErrInactive):
		status, message = http.StatusForbidden, "account inactive"
	default:
		m.logger.Error("auth subject lookup failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
