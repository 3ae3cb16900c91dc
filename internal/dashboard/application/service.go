package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	alarmapp "refinery-ops/internal/alarms/application"
	alarms "refinery-ops/internal/alarms/domain"
	dashboard "refinery-ops/internal/dashboard/domain"
	equipment "refinery-ops/internal/equipment/domain"
	events "refinery-ops/internal/events/domain"
	"refinery-ops/internal/platform/listing"
	"refinery-ops/internal/platform/postgres"
	quality "refinery-ops/internal/quality/domain"
	"refinery-ops/internal/validation"
	water "refinery-ops/internal/water/domain"
)

// DefaultWindow is the summary window used when no bounds are given.
const DefaultWindow = 30 * 24 * time.Hour

type (
	// WaterReadings lists water readings.
	WaterReadings interface {
		List(ctx context.Context, filter water.Filter) ([]water.Reading, error)
	}
	// QualityTests lists quality tests.
	QualityTests interface {
		List(ctx context.Context, filter quality.Filter) ([]quality.Test, error)
	}
	// EquipmentRegister lists equipment.
	EquipmentRegister interface {
		List(ctx context.Context, filter equipment.Filter) ([]equipment.Equipment, error)
	}
	// OperationEvents lists shutdown and startup events.
	OperationEvents interface {
		List(ctx context.Context, filter events.Filter) ([]events.Event, error)
	}
	// Alerts computes alerts for a window.
	Alerts interface {
		ListAlerts(ctx context.Context, filter alarmapp.AlertFilter) ([]alarms.Alert, error)
	}
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Sources bundles the listings a summary draws from.
type Sources struct {
	Water     WaterReadings
	Quality   QualityTests
	Equipment EquipmentRegister
	Events    OperationEvents
	Alerts    Alerts
}

// Service builds dashboard summaries.
type Service struct {
	sources Sources
	window  time.Duration
	clock   Clock
	logger  *zap.Logger
}

// Option customizes the service.
type Option func(*Service)

// WithWindow overrides the default window.
func WithWindow(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.window = window
		}
	}
}

// WithClock assigns a clock.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService constructs a dashboard service.
func NewService(sources Sources, opts ...Option) (*Service, error) {
	if sources.Water == nil || sources.Quality == nil || sources.Equipment == nil ||
		sources.Events == nil || sources.Alerts == nil {
		return nil, errors.New("dashboard: missing source")
	}
	s := &Service{
		sources: sources,
		window:  DefaultWindow,
		clock:   systemClock{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Window resolves open bounds: a zero to means now, a zero from means to minus
// the configured window.
func (s *Service) Window(from, to time.Time) (time.Time, time.Time) {
	now := s.clock.Now().UTC()
	if to.IsZero() {
		to = now
	}
	if from.IsZero() {
		from = to.Add(-s.window)
	}
	return from.UTC(), to.UTC()
}

// Summary loads every module section for the window concurrently, paging
// through each listing so the figures cover every row in the window.
// Any section failure fails the summary.
func (s *Service) Summary(ctx context.Context, from, to time.Time) (*dashboard.Summary, error) {
	from, to = s.Window(from, to)
	if !to.After(from) {
		return nil, validation.Field("from", "must be before to")
	}
	now := s.clock.Now().UTC()

	var (
		readings  []water.Reading
		tests     []quality.Test
		register  []equipment.Equipment
		opEvents  []events.Event
		alertList []alarms.Alert
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		readings, err = listing.Collect(gctx, listing.Params{}, postgres.MaxLimit,
			func(ctx context.Context, params listing.Params) ([]water.Reading, error) {
				return s.sources.Water.List(ctx, water.Filter{From: from, To: to, Params: params})
			})
		if err != nil {
			return fmt.Errorf("load water readings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		tests, err = listing.Collect(gctx, listing.Params{}, postgres.MaxLimit,
			func(ctx context.Context, params listing.Params) ([]quality.Test, error) {
				return s.sources.Quality.List(ctx, quality.Filter{From: from, To: to, Params: params})
			})
		if err != nil {
			return fmt.Errorf("load quality tests: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		register, err = listing.Collect(gctx, listing.Params{}, postgres.MaxLimit,
			func(ctx context.Context, params listing.Params) ([]equipment.Equipment, error) {
				return s.sources.Equipment.List(ctx, equipment.Filter{Params: params})
			})
		if err != nil {
			return fmt.Errorf("load equipment: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		opEvents, err = listing.Collect(gctx, listing.Params{}, postgres.MaxLimit,
			func(ctx context.Context, params listing.Params) ([]events.Event, error) {
				return s.sources.Events.List(ctx, events.Filter{From: from, To: to, Params: params})
			})
		if err != nil {
			return fmt.Errorf("load events: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		alertList, err = s.sources.Alerts.ListAlerts(gctx, alarmapp.AlertFilter{From: from, To: to})
		if err != nil {
			return fmt.Errorf("load alerts: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("dashboard summary failed", zap.Time("from", from), zap.Time("to", to), zap.Error(err))
		return nil, err
	}

	return &dashboard.Summary{
		From:        from,
		To:          to,
		GeneratedAt: now,
		Water:       dashboard.SummarizeWater(readings, alertList),
		Quality:     dashboard.SummarizeQuality(tests),
		Equipment:   dashboard.SummarizeEquipment(register, now),
		Events:      dashboard.SummarizeEvents(opEvents),
		Alerts:      dashboard.SummarizeAlerts(alertList),
	}, nil
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
