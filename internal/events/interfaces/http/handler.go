package http

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	apihttp "refinery-ops/internal/api/http"
	"refinery-ops/internal/audit"
	eventsapp "refinery-ops/internal/events/application"
	events "refinery-ops/internal/events/domain"
	"refinery-ops/internal/platform/tone"
)

// BasePath is the collection route for operation events.
const BasePath = "/api/v1/events"

// Handler serves operation event CRUD routes.
type Handler = apihttp.Resource[events.Event, events.NewEvent, events.Patch, events.Filter]

// View is the JSON shape of an event with its badge colour and duration.
type View struct {
	events.Event
	StatusTone    tone.Tone `json:"status_tone"`
	DurationHours *float64  `json:"duration_hours,omitempty"`
}

// NewView decorates an event.
func NewView(event events.Event) View {
	view := View{Event: event, StatusTone: event.Tone()}
	if d, ok := event.Duration(); ok {
		hours := d.Hours()
		view.DurationHours = &hours
	}
	return view
}

// NewHandler constructs a handler.
func NewHandler(service *eventsapp.Service, auditLogger audit.Logger, logger *zap.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("events handler: nil service")
	}
	return &Handler{
		Base:        BasePath,
		Module:      "events",
		Kind:        "operation_event",
		Service:     service,
		ParseFilter: ParseFilter,
		ID:          func(e *events.Event) string { return e.ID },
		View:        func(e *events.Event) any { return NewView(*e) },
		Audit:       auditLogger,
		Logger:      logger,
	}, nil
}

// ParseFilter reads list filters from the query string.
func ParseFilter(r *http.Request) (events.Filter, error) {
	params, err := apihttp.ParseListParams(r)
	if err != nil {
		return events.Filter{}, err
	}
	from, to, err := apihttp.ParseWindow(r)
	if err != nil {
		return events.Filter{}, err
	}
	q := r.URL.Query()
	return events.Filter{
		From:        from,
		To:          to,
		Type:        events.Type(q.Get("event_type")),
		Category:    events.Category(q.Get("category")),
		Status:      events.Status(q.Get("status")),
		Area:        q.Get("area"),
		EquipmentID: q.Get("equipment_id"),
		Params:      params,
	}, nil
}
