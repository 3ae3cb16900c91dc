package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	quality "refinery-ops/internal/quality/domain"
)

// TestObserver is told about newly stored tests.
type TestObserver interface {
	TestCreated(ctx context.Context, test quality.Test)
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type options struct {
	observer TestObserver
	clock    Clock
	newID    func() string
	logger   *zap.Logger
}

// Option customizes the quality services.
type Option func(*options)

// WithObserver assigns a test observer.
func WithObserver(observer TestObserver) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithClock assigns a clock.
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: systemClock{}, newID: uuid.NewString, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// TestService handles quality test CRUD and compliance checks.
type TestService struct {
	tests     quality.TestRepository
	standards quality.StandardRepository
	options
}

// NewTestService constructs a test service.
func NewTestService(tests quality.TestRepository, standards quality.StandardRepository, opts ...Option) (*TestService, error) {
	if tests == nil || standards == nil {
		return nil, errors.New("quality: nil repository")
	}
	return &TestService{tests: tests, standards: standards, options: buildOptions(opts)}, nil
}

// List returns tests matching filter.
func (s *TestService) List(ctx context.Context, filter quality.Filter) ([]quality.Test, error) {
	list, err := s.tests.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list quality tests: %w", err)
	}
	return list, nil
}

// Get loads one test.
func (s *TestService) Get(ctx context.Context, id string) (*quality.Test, error) {
	test, err := s.tests.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quality test: %w", err)
	}
	if test == nil {
		return nil, quality.ErrNotFound
	}
	return test, nil
}

// Create validates and stores a test, then notifies the observer.
func (s *TestService) Create(ctx context.Context, input quality.NewTest) (*quality.Test, error) {
	test := input.Build(s.newID(), s.clock.Now().UTC())
	if err := test.Validate(); err != nil {
		return nil, err
	}
	if err := s.tests.Insert(ctx, test); err != nil {
		return nil, fmt.Errorf("create quality test: %w", err)
	}
	s.logger.Info("quality test created",
		zap.String("id", test.ID),
		zap.String("product", string(test.Product)),
		zap.String("batch", test.BatchNumber),
	)
	if s.observer != nil {
		s.observer.TestCreated(ctx, test)
	}
	return &test, nil
}

// Update applies a patch.
func (s *TestService) Update(ctx context.Context, id string, patch quality.TestPatch) (*quality.Test, error) {
	test, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	patch.Apply(test, s.clock.Now().UTC())
	if err := test.Validate(); err != nil {
		return nil, err
	}
	if err := s.tests.Update(ctx, *test); err != nil {
		if errors.Is(err, quality.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update quality test: %w", err)
	}
	return test, nil
}

// Delete removes a test.
func (s *TestService) Delete(ctx context.Context, id string) error {
	found, err := s.tests.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete quality test: %w", err)
	}
	if !found {
		return quality.ErrNotFound
	}
	return nil
}

// CheckCompliance compares a stored test against its product's standards.
func (s *TestService) CheckCompliance(ctx context.Context, id string) (*quality.Compliance, error) {
	test, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	standards, err := s.standards.List(ctx, quality.StandardFilter{Product: test.Product})
	if err != nil {
		return nil, fmt.Errorf("load standards: %w", err)
	}
	result := quality.CheckCompliance(*test, standards)
	return &result, nil
}

// StandardService handles commercial standard CRUD.
type StandardService struct {
	standards quality.StandardRepository
	options
}

// NewStandardService constructs a standard service.
func NewStandardService(standards quality.StandardRepository, opts ...Option) (*StandardService, error) {
	if standards == nil {
		return nil, errors.New("quality: nil standard repository")
	}
	return &StandardService{standards: standards, options: buildOptions(opts)}, nil
}

// List returns standards matching filter.
func (s *StandardService) List(ctx context.Context, filter quality.StandardFilter) ([]quality.Standard, error) {
	list, err := s.standards.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list standards: %w", err)
	}
	return list, nil
}

// Get loads one standard.
func (s *StandardService) Get(ctx context.Context, id string) (*quality.Standard, error) {
	standard, err := s.standards.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get standard: %w", err)
	}
	if standard == nil {
		return nil, quality.ErrStandardNotFound
	}
	return standard, nil
}

// Create validates and stores a standard.
func (s *StandardService) Create(ctx context.Context, input quality.NewStandard) (*quality.Standard, error) {
	standard := input.Build(s.newID(), s.clock.Now().UTC())
	if err := standard.Validate(); err != nil {
		return nil, err
	}
	if err := s.standards.Insert(ctx, standard); err != nil {
		if errors.Is(err, quality.ErrStandardConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("create standard: %w", err)
	}
	return &standard, nil
}

// Update applies a patch.
func (s *StandardService) Update(ctx context.Context, id string, patch quality.StandardPatch) (*quality.Standard, error) {
	standard, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(standard, s.clock.Now().UTC())
	if err := standard.Validate(); err != nil {
		return nil, err
	}
	if err := s.standards.Update(ctx, *standard); err != nil {
		if errors.Is(err, quality.ErrStandardConflict) || errors.Is(err, quality.ErrStandardNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update standard: %w", err)
	}
	return standard, nil
}

// Delete removes a standard.
func (s *StandardService) Delete(ctx context.Context, id string) error {
	found, err := s.standards.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete standard: %w", err)
	}
	if !found {
		return quality.ErrStandardNotFound
	}
	return nil
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
