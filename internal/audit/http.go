package audit

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ClientIP extracts client ip from common headers or RemoteAddr.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// Lister reads audit entries.
type Lister interface {
	List(ctx context.Context, filter Filter) ([]Entry, error)
}

// Handler serves GET /api/v1/audit.
type Handler struct {
	lister Lister
}

// NewHandler constructs an audit handler.
func NewHandler(lister Lister) *Handler {
	return &Handler{lister: lister}
}

// ServeHTTP handles GET /api/v1/audit.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.lister == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	q := r.URL.Query()
	filter := Filter{
		Action: q.Get("action"),
		Actor:  q.Get("actor"),
		Module: q.Get("module"),
	}
	var err error
	if filter.From, err = optionalTime(q.Get("from")); err != nil {
		http.Error(w, "from must be RFC3339", http.StatusBadRequest)
		return
	}
	if filter.To, err = optionalTime(q.Get("to")); err != nil {
		http.Error(w, "to must be RFC3339", http.StatusBadRequest)
		return
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	list, err := h.lister.List(r.Context(), filter)
	if err != nil {
		http.Error(w, "query audit error", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []Entry{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

func optionalTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}
