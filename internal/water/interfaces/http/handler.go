package http

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	apihttp "refinery-ops/internal/api/http"
	"refinery-ops/internal/audit"
	waterapp "refinery-ops/internal/water/application"
	water "refinery-ops/internal/water/domain"
)

// BasePath is the collection route for water readings.
const BasePath = "/api/v1/water-readings"

// Handler serves water reading CRUD routes.
type Handler = apihttp.Resource[water.Reading, water.NewReading, water.ReadingPatch, water.Filter]

// NewHandler constructs a handler.
func NewHandler(service *waterapp.Service, auditLogger audit.Logger, logger *zap.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("water handler: nil service")
	}
	return &Handler{
		Base:        BasePath,
		Module:      "water",
		Kind:        "water_reading",
		Service:     service,
		ParseFilter: ParseFilter,
		ID:          func(r *water.Reading) string { return r.ID },
		Audit:       auditLogger,
		Logger:      logger,
	}, nil
}

// ParseFilter reads list filters from the query string.
func ParseFilter(r *http.Request) (water.Filter, error) {
	params, err := apihttp.ParseListParams(r)
	if err != nil {
		return water.Filter{}, err
	}
	from, to, err := apihttp.ParseWindow(r)
	if err != nil {
		return water.Filter{}, err
	}
	return water.Filter{
		From:        from,
		To:          to,
		SamplePoint: r.URL.Query().Get("sample_point"),
		Params:      params,
	}, nil
}
