package http

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	apihttp "refinery-ops/internal/api/http"
	"refinery-ops/internal/audit"
	"refinery-ops/internal/auth"
	"refinery-ops/internal/platform/tone"
	usersapp "refinery-ops/internal/users/application"
	users "refinery-ops/internal/users/domain"
)

const (
	// BasePath is the collection route for profiles.
	BasePath = "/api/v1/users"
	// MePath returns the caller's profile.
	MePath = "/api/v1/me"
)

// Handler serves profile CRUD routes.
type Handler = apihttp.Resource[users.Profile, users.NewProfile, users.Patch, users.Filter]

// View is the JSON shape of a profile with its badge colour.
type View struct {
	users.Profile
	StatusTone tone.Tone `json:"status_tone"`
}

// NewView decorates a profile.
func NewView(profile users.Profile) View {
	return View{Profile: profile, StatusTone: profile.Tone()}
}

// NewHandler constructs the profile handler.
func NewHandler(service *usersapp.Service, auditLogger audit.Logger, logger *zap.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("users handler: nil service")
	}
	return &Handler{
		Base:        BasePath,
		Module:      "users",
		Kind:        "profile",
		Service:     service,
		ParseFilter: ParseFilter,
		ID:          func(p *users.Profile) string { return p.ID },
		View:        func(p *users.Profile) any { return NewView(*p) },
		Audit:       auditLogger,
		Logger:      logger,
	}, nil
}

// ParseFilter reads profile filters.
func ParseFilter(r *http.Request) (users.Filter, error) {
	params, err := apihttp.ParseListParams(r)
	if err != nil {
		return users.Filter{}, err
	}
	active, err := apihttp.OptionalBoolQuery(r, "active")
	if err != nil {
		return users.Filter{}, err
	}
	q := r.URL.Query()
	return users.Filter{
		Role:       auth.Role(q.Get("role")),
		Department: q.Get("department"),
		Active:     active,
		Params:     params,
	}, nil
}

// MeHandler serves GET /api/v1/me.
func MeHandler(service *usersapp.Service, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		profile, err := service.Me(r.Context())
		if err != nil {
			apihttp.RespondError(w, logger, err)
			return
		}
		apihttp.WriteJSON(w, http.StatusOK, NewView(*profile))
	})
}
