package auth

import (
	"net/http"
	"strings"
)

// Policy determines required roles by request.
type Policy struct {
	ExemptPaths    map[string]struct{}
	ExemptPrefixes []string
}

// NewDefaultPolicy builds a default policy with exemptions.
func NewDefaultPolicy(exemptPaths []string, exemptPrefixes []string) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set, ExemptPrefixes: exemptPrefixes}
}

// IsExempt returns true when a request should skip auth/RBAC.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	if _, ok := p.ExemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.ExemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// RequiredRole resolves required role for the request.
func (p Policy) RequiredRole(r *http.Request) (Role, bool) {
	if r == nil {
		return "", false
	}
	path := r.URL.Path
	method := r.Method

	switch {
	case matches(path, "/api/v1/users"):
		return RoleAdmin, true
	case matches(path, "/api/v1/audit"):
		return RoleAdmin, true
	case matches(path, "/api/v1/thresholds"), matches(path, "/api/v1/standards"):
		if isRead(method) {
			return RoleViewer, true
		}
		return RoleAdmin, true
	case path == "/api/v1/me":
		return RoleViewer, true
	case strings.HasPrefix(path, "/api/v1/exports/"):
		return RoleViewer, true
	case path == "/api/v1/dashboard", path == "/api/v1/alerts":
		return RoleViewer, true
	}

	if strings.HasPrefix(path, "/api/") {
		if isRead(method) {
			return RoleViewer, true
		}
		return RoleOperator, true
	}
	return "", false
}

func matches(path, base string) bool {
	return path == base || strings.HasPrefix(path, base+"/")
}

func isRead(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}
