package export

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	alarmapp "refinery-ops/internal/alarms/application"
	alarms "refinery-ops/internal/alarms/domain"
	alarmshttp "refinery-ops/internal/alarms/interfaces/http"
	apihttp "refinery-ops/internal/api/http"
	equipment "refinery-ops/internal/equipment/domain"
	equipmenthttp "refinery-ops/internal/equipment/interfaces/http"
	events "refinery-ops/internal/events/domain"
	eventshttp "refinery-ops/internal/events/interfaces/http"
	"refinery-ops/internal/observability/metrics"
	"refinery-ops/internal/platform/listing"
	"refinery-ops/internal/platform/postgres"
	quality "refinery-ops/internal/quality/domain"
	qualityhttp "refinery-ops/internal/quality/interfaces/http"
	water "refinery-ops/internal/water/domain"
	waterhttp "refinery-ops/internal/water/interfaces/http"
)

// BasePath prefixes export routes: {BasePath}{module}.{format}.
const BasePath = "/api/v1/exports/"

// Modules lists the exportable modules.
var Modules = []string{"water", "quality", "standards", "equipment", "events", "alerts"}

type (
	// WaterSource lists water readings.
	WaterSource interface {
		List(ctx context.Context, filter water.Filter) ([]water.Reading, error)
	}
	// QualitySource lists quality tests.
	QualitySource interface {
		List(ctx context.Context, filter quality.Filter) ([]quality.Test, error)
	}
	// StandardSource lists commercial standards.
	StandardSource interface {
		List(ctx context.Context, filter quality.StandardFilter) ([]quality.Standard, error)
	}
	// EquipmentSource lists equipment.
	EquipmentSource interface {
		List(ctx context.Context, filter equipment.Filter) ([]equipment.Equipment, error)
	}
	// EventSource lists operation events.
	EventSource interface {
		List(ctx context.Context, filter events.Filter) ([]events.Event, error)
	}
	// AlertSource computes alerts.
	AlertSource interface {
		ListAlerts(ctx context.Context, filter alarmapp.AlertFilter) ([]alarms.Alert, error)
	}
)

// Sources bundles the module listings an export can draw from.
type Sources struct {
	Water     WaterSource
	Quality   QualitySource
	Standards StandardSource
	Equipment EquipmentSource
	Events    EventSource
	Alerts    AlertSource
}

// Handler serves GET /api/v1/exports/{module}.{csv|xlsx|pdf}.
type Handler struct {
	sources Sources
	logger  *zap.Logger
	now     func() time.Time
}

// NewHandler constructs an export handler.
func NewHandler(sources Sources, logger *zap.Logger) (*Handler, error) {
	if sources.Water == nil || sources.Quality == nil || sources.Standards == nil ||
		sources.Equipment == nil || sources.Events == nil || sources.Alerts == nil {
		return nil, errors.New("export handler: missing source")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{sources: sources, logger: logger, now: func() time.Time { return time.Now().UTC() }}, nil
}

// ServeHTTP renders one module listing in the requested format.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, BasePath)
	module, ext, ok := strings.Cut(name, ".")
	if !ok || module == "" || strings.Contains(name, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if !slices.Contains(Modules, module) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	format, ok := ParseFormat(ext)
	if !ok {
		apihttp.BadRequest(w, "format must be one of: csv, xlsx, pdf")
		return
	}

	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport(module, string(format), result, time.Since(start))
	}()

	table, err := h.table(r, module)
	if err != nil {
		result = metrics.ResultError
		var bad badRequest
		if errors.As(err, &bad) {
			apihttp.BadRequest(w, bad.Error())
			return
		}
		apihttp.RespondError(w, h.logger, err)
		return
	}
	data, err := Render(table, format)
	if err != nil {
		result = metrics.ResultError
		h.logger.Error("render export failed", zap.String("module", module), zap.String("format", string(format)), zap.Error(err))
		http.Error(w, "export failed, try again", http.StatusInternalServerError)
		return
	}
	filename := fmt.Sprintf("%s-%s.%s", module, h.now().Format("20060102"), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type badRequest struct{ error }

func (h *Handler) table(r *http.Request, module string) (Table, error) {
	ctx := r.Context()
	switch module {
	case "water":
		filter, err := waterhttp.ParseFilter(r)
		if err != nil {
			return Table{}, badRequest{err}
		}
		list, err := fetchAll(r, filter.Params, func(ctx context.Context, params apihttp.ListParams) ([]water.Reading, error) {
			filter.Params = params
			return h.sources.Water.List(ctx, filter)
		})
		if err != nil {
			return Table{}, err
		}
		return WaterTable(list), nil
	case "quality":
		filter, err := qualityhttp.ParseFilter(r)
		if err != nil {
			return Table{}, badRequest{err}
		}
		list, err := fetchAll(r, filter.Params, func(ctx context.Context, params apihttp.ListParams) ([]quality.Test, error) {
			filter.Params = params
			return h.sources.Quality.List(ctx, filter)
		})
		if err != nil {
			return Table{}, err
		}
		return QualityTable(list), nil
	case "standards":
		filter, err := qualityhttp.ParseStandardFilter(r)
		if err != nil {
			return Table{}, badRequest{err}
		}
		list, err := fetchAll(r, filter.Params, func(ctx context.Context, params apihttp.ListParams) ([]quality.Standard, error) {
			filter.Params = params
			return h.sources.Standards.List(ctx, filter)
		})
		if err != nil {
			return Table{}, err
		}
		return StandardsTable(list), nil
	case "equipment":
		filter, err := equipmenthttp.ParseFilter(r)
		if err != nil {
			return Table{}, badRequest{err}
		}
		list, err := fetchAll(r, filter.Params, func(ctx context.Context, params apihttp.ListParams) ([]equipment.Equipment, error) {
			filter.Params = params
			return h.sources.Equipment.List(ctx, filter)
		})
		if err != nil {
			return Table{}, err
		}
		return EquipmentTable(list, h.now()), nil
	case "events":
		filter, err := eventshttp.ParseFilter(r)
		if err != nil {
			return Table{}, badRequest{err}
		}
		list, err := fetchAll(r, filter.Params, func(ctx context.Context, params apihttp.ListParams) ([]events.Event, error) {
			filter.Params = params
			return h.sources.Events.List(ctx, filter)
		})
		if err != nil {
			return Table{}, err
		}
		return EventsTable(list), nil
	case "alerts":
		filter, err := alarmshttp.ParseAlertFilter(r)
		if err != nil {
			return Table{}, badRequest{err}
		}
		list, err := h.sources.Alerts.ListAlerts(ctx, filter)
		if err != nil {
			return Table{}, err
		}
		return AlertsTable(list), nil
	default:
		return Table{}, fmt.Errorf("export: unknown module %q", module)
	}
}

// fetchAll pages through every matching row unless the caller asked for one
// page with an explicit limit.
func fetchAll[T any](r *http.Request, params apihttp.ListParams, list func(context.Context, apihttp.ListParams) ([]T, error)) ([]T, error) {
	if r.URL.Query().Get("limit") != "" {
		return list(r.Context(), params)
	}
	return listing.Collect(r.Context(), params, postgres.MaxLimit, list)
}
