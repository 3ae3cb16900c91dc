package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"refinery-ops/internal/auth"
	users "refinery-ops/internal/users/domain"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Service manages profiles and answers identity lookups.
type Service struct {
	repo   users.Repository
	clock  Clock
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

// WithLogger assigns a logger.
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService constructs a profile service.
func NewService(repo users.Repository, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("users: nil repository")
	}
	s := &Service{repo: repo, clock: systemClock{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List returns profiles matching filter.
func (s *Service) List(ctx context.Context, filter users.Filter) ([]users.Profile, error) {
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return list, nil
}

// Get loads one profile.
func (s *Service) Get(ctx context.Context, id string) (*users.Profile, error) {
	profile, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if profile == nil {
		return nil, users.ErrNotFound
	}
	return profile, nil
}

// Create validates and stores a profile.
func (s *Service) Create(ctx context.Context, input users.NewProfile) (*users.Profile, error) {
	profile := input.Build(s.clock.Now().UTC())
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, profile); err != nil {
		if errors.Is(err, users.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}
	s.logger.Info("profile created", zap.String("id", profile.ID), zap.String("role", string(profile.Role)))
	return &profile, nil
}

// Update applies a patch. Concurrent edits are last-write-wins.
func (s *Service) Update(ctx context.Context, id string, patch users.Patch) (*users.Profile, error) {
	profile, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(profile, s.clock.Now().UTC())
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, *profile); err != nil {
		if errors.Is(err, users.ErrNotFound) || errors.Is(err, users.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}

// Delete removes a profile.
func (s *Service) Delete(ctx context.Context, id string) error {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if !found {
		return users.ErrNotFound
	}
	return nil
}

// Me returns the profile of the authenticated caller.
func (s *Service) Me(ctx context.Context) (*users.Profile, error) {
	subject := auth.SubjectFromContext(ctx)
	if subject == "" {
		return nil, auth.ErrUnauthorized
	}
	return s.Get(ctx, subject)
}

// SubjectActive implements auth.SubjectChecker.
func (s *Service) SubjectActive(ctx context.Context, subject string) (bool, bool, error) {
	if subject == "" {
		return false, false, nil
	}
	profile, err := s.repo.Get(ctx, subject)
	if err != nil {
		return false, false, fmt.Errorf("check subject: %w", err)
	}
	if profile == nil {
		return false, false, nil
	}
	return profile.Active, true, nil
}

var _ auth.SubjectChecker = (*Service)(nil)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
