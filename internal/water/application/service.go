package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	water "refinery-ops/internal/water/domain"
)

// ReadingObserver is told about newly stored readings.
type ReadingObserver interface {
	ReadingCreated(ctx context.Context, reading water.Reading)
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Service handles water reading CRUD.
type Service struct {
	repo     water.Repository
	observer ReadingObserver
	clock    Clock
	newID    func() string
	logger   *zap.Logger
}

// ServiceOption customizes the service.
type ServiceOption func(*Service)

// WithObserver assigns a reading observer.
func WithObserver(observer ReadingObserver) ServiceOption {
	return func(s *Service) {
		s.observer = observer
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

// WithIDGenerator overrides id generation.
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

// NewService constructs a water service.
func NewService(repo water.Repository, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("water: nil repository")
	}
	s := &Service{
		repo:   repo,
		clock:  systemClock{},
		newID:  uuid.NewString,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List returns readings matching filter.
func (s *Service) List(ctx context.Context, filter water.Filter) ([]water.Reading, error) {
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list water readings: %w", err)
	}
	return list, nil
}

// Get loads one reading.
func (s *Service) Get(ctx context.Context, id string) (*water.Reading, error) {
	reading, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get water reading: %w", err)
	}
	if reading == nil {
		return nil, water.ErrNotFound
	}
	return reading, nil
}

// Create validates and stores a reading, then notifies the observer.
func (s *Service) Create(ctx context.Context, input water.NewReading) (*water.Reading, error) {
	reading := input.Build(s.newID(), s.clock.Now().UTC())
	if err := reading.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, reading); err != nil {
		return nil, fmt.Errorf("create water reading: %w", err)
	}
	s.logger.Info("water reading created",
		zap.String("id", reading.ID),
		zap.String("sample_point", reading.SamplePoint),
	)
	if s.observer != nil {
		s.observer.ReadingCreated(ctx, reading)
	}
	return &reading, nil
}

// Update applies a patch. Concurrent edits are last-write-wins.
func (s *Service) Update(ctx context.Context, id string, patch water.ReadingPatch) (*water.Reading, error) {
	reading, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	patch.Apply(reading, s.clock.Now().UTC())
	if err := reading.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, *reading); err != nil {
		if errors.Is(err, water.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update water reading: %w", err)
	}
	return reading, nil
}

// Delete removes a reading.
func (s *Service) Delete(ctx context.Context, id string) error {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete water reading: %w", err)
	}
	if !found {
		return water.ErrNotFound
	}
	return nil
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
