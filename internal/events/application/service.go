package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	events "refinery-ops/internal/events/domain"
	"refinery-ops/internal/validation"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Service handles operation event CRUD.
type Service struct {
	repo   events.Repository
	clock  Clock
	newID  func() string
	logger *zap.Logger
}

// ServiceOption customizes the service.
type ServiceOption func(*Service)

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

// NewService constructs an event service.
func NewService(repo events.Repository, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("events: nil repository")
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

// List returns events matching filter.
func (s *Service) List(ctx context.Context, filter events.Filter) ([]events.Event, error) {
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return list, nil
}

// Get loads one event.
func (s *Service) Get(ctx context.Context, id string) (*events.Event, error) {
	event, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event == nil {
		return nil, events.ErrNotFound
	}
	return event, nil
}

// Create validates and stores an event.
func (s *Service) Create(ctx context.Context, input events.NewEvent) (*events.Event, error) {
	event := input.Build(s.newID(), s.clock.Now().UTC())
	if err := event.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, event); err != nil {
		if errors.Is(err, validation.ErrInvalid) {
			return nil, err
		}
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.logger.Info("operation event recorded",
		zap.String("id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("category", string(event.Category)),
		zap.String("area", event.Area),
	)
	return &event, nil
}

// Update applies a patch. Concurrent edits are last-write-wins.
func (s *Service) Update(ctx context.Context, id string, patch events.Patch) (*events.Event, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(event, s.clock.Now().UTC())
	if err := event.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, *event); err != nil {
		if errors.Is(err, events.ErrNotFound) || errors.Is(err, validation.ErrInvalid) {
			return nil, err
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

// Delete removes an event.
func (s *Service) Delete(ctx context.Context, id string) error {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if !found {
		return events.ErrNotFound
	}
	return nil
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
