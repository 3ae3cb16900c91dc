package http

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	apihttp "refinery-ops/internal/api/http"
	"refinery-ops/internal/audit"
	equipmentapp "refinery-ops/internal/equipment/application"
	equipment "refinery-ops/internal/equipment/domain"
	"refinery-ops/internal/platform/tone"
)

// BasePath is the collection route for equipment.
const BasePath = "/api/v1/equipment"

// Handler serves equipment CRUD routes.
type Handler = apihttp.Resource[equipment.Equipment, equipment.NewEquipment, equipment.Patch, equipment.Filter]

// View is the JSON shape of equipment with its badge colour.
type View struct {
	equipment.Equipment
	StatusTone        tone.Tone `json:"status_tone"`
	InspectionOverdue bool      `json:"inspection_overdue"`
}

// NewView decorates equipment as of now.
func NewView(item equipment.Equipment, now time.Time) View {
	return View{
		Equipment:         item,
		StatusTone:        item.Status.Tone(),
		InspectionOverdue: item.InspectionOverdue(now),
	}
}

// NewHandler constructs a handler.
func NewHandler(service *equipmentapp.Service, auditLogger audit.Logger, logger *zap.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("equipment handler: nil service")
	}
	return &Handler{
		Base:        BasePath,
		Module:      "equipment",
		Kind:        "equipment",
		Service:     service,
		ParseFilter: ParseFilter,
		ID:          func(e *equipment.Equipment) string { return e.ID },
		View:        func(e *equipment.Equipment) any { return NewView(*e, time.Now().UTC()) },
		Audit:       auditLogger,
		Logger:      logger,
	}, nil
}

// ParseFilter reads list filters from the query string.
func ParseFilter(r *http.Request) (equipment.Filter, error) {
	params, err := apihttp.ParseListParams(r)
	if err != nil {
		return equipment.Filter{}, err
	}
	q := r.URL.Query()
	return equipment.Filter{
		Type:        equipment.Type(q.Get("type")),
		Status:      equipment.Status(q.Get("status")),
		Criticality: equipment.Criticality(q.Get("criticality")),
		Area:        q.Get("area"),
		Params:      params,
	}, nil
}
