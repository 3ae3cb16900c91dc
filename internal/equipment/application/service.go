package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	equipment "refinery-ops/internal/equipment/domain"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Service handles equipment CRUD.
type Service struct {
	repo   equipment.Repository
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

// NewService constructs an equipment service.
func NewService(repo equipment.Repository, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("equipment: nil repository")
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

// List returns equipment matching filter.
func (s *Service) List(ctx context.Context, filter equipment.Filter) ([]equipment.Equipment, error) {
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	return list, nil
}

// Get loads one piece of equipment.
func (s *Service) Get(ctx context.Context, id string) (*equipment.Equipment, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get equipment: %w", err)
	}
	if item == nil {
		return nil, equipment.ErrNotFound
	}
	return item, nil
}

// Create validates and stores equipment.
func (s *Service) Create(ctx context.Context, input equipment.NewEquipment) (*equipment.Equipment, error) {
	item := input.Build(s.newID(), s.clock.Now().UTC())
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, item); err != nil {
		if errors.Is(err, equipment.ErrTagConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("create equipment: %w", err)
	}
	s.logger.Info("equipment created", zap.String("id", item.ID), zap.String("tag", item.Tag))
	return &item, nil
}

// Update applies a patch. Concurrent edits are last-write-wins.
func (s *Service) Update(ctx context.Context, id string, patch equipment.Patch) (*equipment.Equipment, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := item.Status
	patch.Apply(item, s.clock.Now().UTC())
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, *item); err != nil {
		if errors.Is(err, equipment.ErrNotFound) || errors.Is(err, equipment.ErrTagConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("update equipment: %w", err)
	}
	if previous != item.Status {
		s.logger.Info("equipment status changed",
			zap.String("tag", item.Tag),
			zap.String("from", string(previous)),
			zap.String("to", string(item.Status)),
		)
	}
	return item, nil
}

// Delete removes equipment.
func (s *Service) Delete(ctx context.Context, id string) error {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete equipment: %w", err)
	}
	if !found {
		return equipment.ErrNotFound
	}
	return nil
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
