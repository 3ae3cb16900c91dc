package http

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	apihttp "refinery-ops/internal/api/http"
	"refinery-ops/internal/audit"
	"refinery-ops/internal/platform/tone"
	qualityapp "refinery-ops/internal/quality/application"
	quality "refinery-ops/internal/quality/domain"
)

const (
	// TestsPath is the collection route for quality tests.
	TestsPath = "/api/v1/quality-tests"
	// StandardsPath is the collection route for commercial standards.
	StandardsPath = "/api/v1/standards"
)

// TestHandler serves quality test routes.
type TestHandler = apihttp.Resource[quality.Test, quality.NewTest, quality.TestPatch, quality.Filter]

// StandardHandler serves commercial standard routes.
type StandardHandler = apihttp.Resource[quality.Standard, quality.NewStandard, quality.StandardPatch, quality.StandardFilter]

// TestView is the JSON shape of a test with its badge colour.
type TestView struct {
	quality.Test
	StatusTone tone.Tone `json:"status_tone"`
}

// NewTestView decorates a test.
func NewTestView(test quality.Test) TestView {
	return TestView{Test: test, StatusTone: test.Result.Tone()}
}

// NewTestHandler constructs the quality test handler, including GET {id}/compliance.
func NewTestHandler(service *qualityapp.TestService, auditLogger audit.Logger, logger *zap.Logger) (*TestHandler, error) {
	if service == nil {
		return nil, errors.New("quality handler: nil service")
	}
	return &TestHandler{
		Base:        TestsPath,
		Module:      "quality",
		Kind:        "quality_test",
		Service:     service,
		ParseFilter: ParseFilter,
		ID:          func(t *quality.Test) string { return t.ID },
		View:        func(t *quality.Test) any { return NewTestView(*t) },
		Sub: map[string]apihttp.SubHandler{
			"compliance": func(w http.ResponseWriter, r *http.Request, id string) {
				result, err := service.CheckCompliance(r.Context(), id)
				if err != nil {
					apihttp.RespondError(w, logger, err)
					return
				}
				apihttp.WriteJSON(w, http.StatusOK, result)
			},
		},
		Audit:  auditLogger,
		Logger: logger,
	}, nil
}

// NewStandardHandler constructs the commercial standard handler.
func NewStandardHandler(service *qualityapp.StandardService, auditLogger audit.Logger, logger *zap.Logger) (*StandardHandler, error) {
	if service == nil {
		return nil, errors.New("standard handler: nil service")
	}
	return &StandardHandler{
		Base:        StandardsPath,
		Module:      "quality",
		Kind:        "commercial_standard",
		Service:     service,
		ParseFilter: ParseStandardFilter,
		ID:          func(s *quality.Standard) string { return s.ID },
		Audit:       auditLogger,
		Logger:      logger,
	}, nil
}

// ParseFilter reads quality test filters.
func ParseFilter(r *http.Request) (quality.Filter, error) {
	params, err := apihttp.ParseListParams(r)
	if err != nil {
		return quality.Filter{}, err
	}
	from, to, err := apihttp.ParseWindow(r)
	if err != nil {
		return quality.Filter{}, err
	}
	q := r.URL.Query()
	return quality.Filter{
		From:    from,
		To:      to,
		Product: quality.Product(q.Get("product")),
		Result:  quality.Result(q.Get("result")),
		Tank:    q.Get("tank"),
		Params:  params,
	}, nil
}

// ParseStandardFilter reads commercial standard filters.
func ParseStandardFilter(r *http.Request) (quality.StandardFilter, error) {
	params, err := apihttp.ParseListParams(r)
	if err != nil {
		return quality.StandardFilter{}, err
	}
	q := r.URL.Query()
	return quality.StandardFilter{
		Product:   quality.Product(q.Get("product")),
		Parameter: q.Get("parameter"),
		Params:    params,
	}, nil
}
