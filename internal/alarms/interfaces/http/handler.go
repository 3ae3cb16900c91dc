package http

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	alarmapp "refinery-ops/internal/alarms/application"
	alarms "refinery-ops/internal/alarms/domain"
	apihttp "refinery-ops/internal/api/http"
	"refinery-ops/internal/audit"
	"refinery-ops/internal/platform/tone"
)

const (
	// ThresholdsPath is the collection route for alert thresholds.
	ThresholdsPath = "/api/v1/thresholds"
	// AlertsPath serves computed alerts.
	AlertsPath = "/api/v1/alerts"
)

// ThresholdHandler serves threshold CRUD routes.
type ThresholdHandler = apihttp.Resource[alarms.Threshold, alarms.NewThreshold, alarms.ThresholdPatch, alarms.ThresholdFilter]

// ThresholdView is the JSON shape of a threshold with its severity colour.
type ThresholdView struct {
	alarms.Threshold
	StatusTone tone.Tone `json:"status_tone"`
}

// AlertView is the JSON shape of a computed alert.
type AlertView struct {
	alarms.Alert
	StatusTone tone.Tone `json:"status_tone"`
}

// NewThresholdHandler constructs the threshold handler.
func NewThresholdHandler(service *alarmapp.Service, auditLogger audit.Logger, logger *zap.Logger) (*ThresholdHandler, error) {
	if service == nil {
		return nil, errors.New("thresholds handler: nil service")
	}
	return &ThresholdHandler{
		Base:        ThresholdsPath,
		Module:      "alarms",
		Kind:        "alert_threshold",
		Service:     service,
		ParseFilter: ParseThresholdFilter,
		ID:          func(t *alarms.Threshold) string { return t.ID },
		View: func(t *alarms.Threshold) any {
			return ThresholdView{Threshold: *t, StatusTone: t.Severity.Tone()}
		},
		Audit:  auditLogger,
		Logger: logger,
	}, nil
}

// ParseThresholdFilter reads threshold list filters.
func ParseThresholdFilter(r *http.Request) (alarms.ThresholdFilter, error) {
	params, err := apihttp.ParseListParams(r)
	if err != nil {
		return alarms.ThresholdFilter{}, err
	}
	enabled, err := apihttp.OptionalBoolQuery(r, "enabled")
	if err != nil {
		return alarms.ThresholdFilter{}, err
	}
	q := r.URL.Query()
	return alarms.ThresholdFilter{
		Module:    alarms.Module(q.Get("module")),
		Parameter: q.Get("parameter"),
		Severity:  alarms.Severity(q.Get("severity")),
		Enabled:   enabled,
		Params:    params,
	}, nil
}

// AlertsHandler serves GET /api/v1/alerts.
type AlertsHandler struct {
	service *alarmapp.Service
	logger  *zap.Logger
}

// NewAlertsHandler constructs the alerts handler.
func NewAlertsHandler(service *alarmapp.Service, logger *zap.Logger) (*AlertsHandler, error) {
	if service == nil {
		return nil, errors.New("alerts handler: nil service")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertsHandler{service: service, logger: logger}, nil
}

// ServeHTTP lists alerts for ?module=&from=&to=&severity=.
func (h *AlertsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != AlertsPath {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	filter, err := ParseAlertFilter(r)
	if err != nil {
		apihttp.BadRequest(w, err.Error())
		return
	}
	list, err := h.service.ListAlerts(r.Context(), filter)
	if err != nil {
		apihttp.RespondError(w, h.logger, err)
		return
	}
	out := make([]AlertView, 0, len(list))
	for _, alert := range list {
		out = append(out, AlertView{Alert: alert, StatusTone: alert.Severity.Tone()})
	}
	apihttp.WriteJSON(w, http.StatusOK, out)
}

// ParseAlertFilter reads and checks the alert query string.
func ParseAlertFilter(r *http.Request) (alarmapp.AlertFilter, error) {
	from, to, err := apihttp.ParseWindow(r)
	if err != nil {
		return alarmapp.AlertFilter{}, err
	}
	q := r.URL.Query()
	module := alarms.Module(q.Get("module"))
	switch module {
	case "", alarms.ModuleWater, alarms.ModuleQuality:
	default:
		return alarmapp.AlertFilter{}, errors.New("module must be one of: water, quality")
	}
	severity := alarms.Severity(q.Get("severity"))
	if severity != "" && severity.Rank() == 0 {
		return alarmapp.AlertFilter{}, errors.New("severity must be one of: low, medium, high, critical")
	}
	return alarmapp.AlertFilter{Module: module, From: from, To: to, Severity: severity}, nil
}
