package http

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	apihttp "refinery-ops/internal/api/http"
	dashboardapp "refinery-ops/internal/dashboard/application"
	"refinery-ops/internal/observability/metrics"
)

// Path is the dashboard route.
const Path = "/api/v1/dashboard"

// Handler serves GET /api/v1/dashboard?from=&to=.
type Handler struct {
	service *dashboardapp.Service
	logger  *zap.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *dashboardapp.Service, logger *zap.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("dashboard handler: nil service")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}, nil
}

// ServeHTTP returns the summary for the requested window.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != Path {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	from, to, err := apihttp.ParseWindow(r)
	if err != nil {
		apihttp.BadRequest(w, err.Error())
		return
	}

	start := time.Now()
	summary, err := h.service.Summary(r.Context(), from, to)
	if err != nil {
		metrics.ObserveDashboard(metrics.ResultError, time.Since(start))
		apihttp.RespondError(w, h.logger, err)
		return
	}
	metrics.ObserveDashboard(metrics.ResultSuccess, time.Since(start))
	apihttp.WriteJSON(w, http.StatusOK, summary)
}
