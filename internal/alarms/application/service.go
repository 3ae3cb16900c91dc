package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	alarms "refinery-ops/internal/alarms/domain"
	"refinery-ops/internal/observability/metrics"
	"refinery-ops/internal/platform/listing"
	"refinery-ops/internal/platform/postgres"
	quality "refinery-ops/internal/quality/domain"
	water "refinery-ops/internal/water/domain"
)

// MeasuredParameters lists the parameters each module records; thresholds
// on anything else would never fire.
var MeasuredParameters = map[alarms.Module][]string{
	alarms.ModuleWater:   water.Parameters,
	alarms.ModuleQuality: quality.Parameters,
}

// AlertNotifier publishes out-of-range alerts raised when records are created.
type AlertNotifier interface {
	Notify(ctx context.Context, alert alarms.Alert)
}

// WaterReadings lists water readings.
type WaterReadings interface {
	List(ctx context.Context, filter water.Filter) ([]water.Reading, error)
}

// QualityTests lists quality tests.
type QualityTests interface {
	List(ctx context.Context, filter quality.Filter) ([]quality.Test, error)
}

// Standards lists commercial standards.
type Standards interface {
	List(ctx context.Context, filter quality.StandardFilter) ([]quality.Standard, error)
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// AlertFilter narrows alert listings.
type AlertFilter struct {
	Module   alarms.Module
	From     time.Time
	To       time.Time
	Severity alarms.Severity
}

// Service evaluates thresholds and manages threshold configuration.
type Service struct {
	thresholds    alarms.ThresholdRepository
	water         WaterReadings
	quality       QualityTests
	standards     Standards
	notifier      AlertNotifier
	notifyTimeout time.Duration
	clock         Clock
	newID         func() string
	logger        *zap.Logger
}

// ServiceOption customizes the alarm service.
type ServiceOption func(*Service)

// WithNotifier assigns a notifier.
func WithNotifier(notifier AlertNotifier) ServiceOption {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// WithNotifyTimeout bounds the time spent notifying on create.
func WithNotifyTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		if timeout > 0 {
			s.notifyTimeout = timeout
		}
	}
}

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides threshold id generation.
func WithIDGenerator(fn func() string) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService constructs an alarm service.
func NewService(thresholds alarms.ThresholdRepository, waterReadings WaterReadings, qualityTests QualityTests, standards Standards, opts ...ServiceOption) (*Service, error) {
	if thresholds == nil {
		return nil, errors.New("alarms: nil threshold repository")
	}
	if waterReadings == nil || qualityTests == nil || standards == nil {
		return nil, errors.New("alarms: nil reader")
	}
	service := &Service{
		thresholds:    thresholds,
		water:         waterReadings,
		quality:       qualityTests,
		standards:     standards,
		notifyTimeout: 5 * time.Second,
		clock:         systemClock{},
		newID:         uuid.NewString,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// List returns thresholds matching filter.
func (s *Service) List(ctx context.Context, filter alarms.ThresholdFilter) ([]alarms.Threshold, error) {
	list, err := s.thresholds.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list thresholds: %w", err)
	}
	return list, nil
}

// Get loads a threshold.
func (s *Service) Get(ctx context.Context, id string) (*alarms.Threshold, error) {
	threshold, err := s.thresholds.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get threshold: %w", err)
	}
	if threshold == nil {
		return nil, alarms.ErrNotFound
	}
	return threshold, nil
}

// Create validates and stores a threshold.
func (s *Service) Create(ctx context.Context, input alarms.NewThreshold) (*alarms.Threshold, error) {
	threshold := input.Build(s.newID(), s.clock.Now().UTC())
	if err := threshold.ValidateFor(MeasuredParameters); err != nil {
		return nil, err
	}
	if err := s.thresholds.Insert(ctx, threshold); err != nil {
		return nil, fmt.Errorf("create threshold: %w", err)
	}
	return &threshold, nil
}

// Update applies a patch to a threshold.
func (s *Service) Update(ctx context.Context, id string, patch alarms.ThresholdPatch) (*alarms.Threshold, error) {
	threshold, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(threshold, s.clock.Now().UTC())
	if err := threshold.ValidateFor(MeasuredParameters); err != nil {
		return nil, err
	}
	if err := s.thresholds.Update(ctx, *threshold); err != nil {
		if errors.Is(err, alarms.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update threshold: %w", err)
	}
	return threshold, nil
}

// Delete removes a threshold.
func (s *Service) Delete(ctx context.Context, id string) error {
	found, err := s.thresholds.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete threshold: %w", err)
	}
	if !found {
		return alarms.ErrNotFound
	}
	return nil
}

// ListAlerts recomputes alerts for records observed in the window.
// An empty module covers both water and quality.
func (s *Service) ListAlerts(ctx context.Context, filter AlertFilter) ([]alarms.Alert, error) {
	var out []alarms.Alert
	if filter.Module == "" || filter.Module == alarms.ModuleWater {
		list, err := s.waterAlerts(ctx, filter.From, filter.To)
		if err != nil {
			return nil, err
		}
		out = append(out, list...)
	}
	if filter.Module == "" || filter.Module == alarms.ModuleQuality {
		list, err := s.qualityAlerts(ctx, filter.From, filter.To)
		if err != nil {
			return nil, err
		}
		out = append(out, list...)
	}
	if filter.Severity != "" {
		filtered := out[:0]
		for _, alert := range out {
			if alert.Severity == filter.Severity {
				filtered = append(filtered, alert)
			}
		}
		out = filtered
	}
	alarms.SortAlerts(out)
	moduleLabel := string(filter.Module)
	if moduleLabel == "" {
		moduleLabel = "all"
	}
	for severity, count := range alarms.CountBySeverity(out) {
		metrics.AddAlerts(moduleLabel, string(severity), count)
	}
	if out == nil {
		out = []alarms.Alert{}
	}
	return out, nil
}

// EvaluateReading returns the alerts one water reading raises against thresholds.
func (s *Service) EvaluateReading(ctx context.Context, reading water.Reading) ([]alarms.Alert, error) {
	thresholds, err := s.enabledThresholds(ctx, alarms.ModuleWater)
	if err != nil {
		return nil, err
	}
	return EvaluateWater(reading, thresholds), nil
}

// EvaluateTest returns the alerts one quality test raises against thresholds and standards.
func (s *Service) EvaluateTest(ctx context.Context, test quality.Test) ([]alarms.Alert, error) {
	thresholds, err := s.enabledThresholds(ctx, alarms.ModuleQuality)
	if err != nil {
		return nil, err
	}
	standards, err := s.standards.List(ctx, quality.StandardFilter{Product: test.Product, Params: allRows()})
	if err != nil {
		return nil, fmt.Errorf("load standards: %w", err)
	}
	return EvaluateQuality(test, thresholds, standards), nil
}

// ReadingCreated evaluates a new reading and notifies on breaches.
func (s *Service) ReadingCreated(ctx context.Context, reading water.Reading) {
	ctx, cancel := s.notifyContext(ctx)
	defer cancel()
	alerts, err := s.EvaluateReading(ctx, reading)
	if err != nil {
		s.logger.Warn("evaluate water reading failed", zap.String("id", reading.ID), zap.Error(err))
		return
	}
	s.publish(ctx, alerts)
}

// TestCreated evaluates a new quality test and notifies on breaches.
func (s *Service) TestCreated(ctx context.Context, test quality.Test) {
	ctx, cancel := s.notifyContext(ctx)
	defer cancel()
	alerts, err := s.EvaluateTest(ctx, test)
	if err != nil {
		s.logger.Warn("evaluate quality test failed", zap.String("id", test.ID), zap.Error(err))
		return
	}
	s.publish(ctx, alerts)
}

func (s *Service) publish(ctx context.Context, alerts []alarms.Alert) {
	if s.notifier == nil {
		return
	}
	for _, alert := range alerts {
		s.notifier.Notify(ctx, alert)
	}
}

// notifyContext detaches from request cancellation and bounds notification time.
func (s *Service) notifyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
}

func (s *Service) waterAlerts(ctx context.Context, from, to time.Time) ([]alarms.Alert, error) {
	thresholds, err := s.enabledThresholds(ctx, alarms.ModuleWater)
	if err != nil || len(thresholds) == 0 {
		return nil, err
	}
	readings, err := listing.Collect(ctx, listing.Params{}, postgres.MaxLimit,
		func(ctx context.Context, params listing.Params) ([]water.Reading, error) {
			return s.water.List(ctx, water.Filter{From: from, To: to, Params: params})
		})
	if err != nil {
		return nil, fmt.Errorf("load water readings: %w", err)
	}
	var out []alarms.Alert
	for _, reading := range readings {
		out = append(out, EvaluateWater(reading, thresholds)...)
	}
	return out, nil
}

func (s *Service) qualityAlerts(ctx context.Context, from, to time.Time) ([]alarms.Alert, error) {
	thresholds, err := s.enabledThresholds(ctx, alarms.ModuleQuality)
	if err != nil {
		return nil, err
	}
	standards, err := s.standards.List(ctx, quality.StandardFilter{Params: allRows()})
	if err != nil {
		return nil, fmt.Errorf("load standards: %w", err)
	}
	if len(thresholds) == 0 && len(standards) == 0 {
		return nil, nil
	}
	tests, err := listing.Collect(ctx, listing.Params{}, postgres.MaxLimit,
		func(ctx context.Context, params listing.Params) ([]quality.Test, error) {
			return s.quality.List(ctx, quality.Filter{From: from, To: to, Params: params})
		})
	if err != nil {
		return nil, fmt.Errorf("load quality tests: %w", err)
	}
	var out []alarms.Alert
	for _, test := range tests {
		out = append(out, EvaluateQuality(test, thresholds, standards)...)
	}
	return out, nil
}

func (s *Service) enabledThresholds(ctx context.Context, module alarms.Module) ([]alarms.Threshold, error) {
	enabled := true
	list, err := s.thresholds.List(ctx, alarms.ThresholdFilter{Module: module, Enabled: &enabled, Params: allRows()})
	if err != nil {
		return nil, fmt.Errorf("load %s thresholds: %w", module, err)
	}
	return list, nil
}

// allRows requests the largest page a repository serves.
func allRows() listing.Params {
	return listing.Params{Limit: postgres.MaxLimit}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
