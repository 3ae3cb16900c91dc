package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"refinery-ops/internal/auth"
	"refinery-ops/internal/platform/apperr"
	"refinery-ops/internal/platform/listing"
	"refinery-ops/internal/platform/tone"
	"refinery-ops/internal/validation"
)

var (
	// ErrNotFound indicates a missing profile.
	ErrNotFound = fmt.Errorf("profile: %w", apperr.ErrNotFound)
	// ErrConflict indicates a duplicate id or email.
	ErrConflict = fmt.Errorf("profile id or email already exists: %w", apperr.ErrConflict)
)

// Profile is an application user keyed by JWT subject.
type Profile struct {
	ID         string    `json:"id" validate:"required,max=128"`
	Email      string    `json:"email" validate:"required,email,max=254"`
	FullName   string    `json:"full_name" validate:"required,max=200"`
	Role       auth.Role `json:"role" validate:"required,oneof=viewer operator admin"`
	Department string    `json:"department" validate:"max=128"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Validate checks field tags.
func (p Profile) Validate() error {
	return validation.Struct(p)
}

// Tone maps the account state to its badge colour.
func (p Profile) Tone() tone.Tone {
	if p.Active {
		return tone.Success
	}
	return tone.Neutral
}

// NewProfile is the create input. ID is the subject the identity provider issues.
type NewProfile struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	Role       auth.Role `json:"role"`
	Department string    `json:"department"`
	Active     *bool     `json:"active"`
}

// Build turns the input into a profile with defaults applied.
func (n NewProfile) Build(now time.Time) Profile {
	role := n.Role
	if role == "" {
		role = auth.RoleViewer
	}
	active := true
	if n.Active != nil {
		active = *n.Active
	}
	return Profile{
		ID:         strings.TrimSpace(n.ID),
		Email:      normalizeEmail(n.Email),
		FullName:   strings.TrimSpace(n.FullName),
		Role:       role,
		Department: strings.TrimSpace(n.Department),
		Active:     active,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	Email      *string    `json:"email"`
	FullName   *string    `json:"full_name"`
	Role       *auth.Role `json:"role"`
	Department *string    `json:"department"`
	Active     *bool      `json:"active"`
}

// Apply merges the patch into p.
func (patch Patch) Apply(p *Profile, now time.Time) {
	if patch.Email != nil {
		p.Email = normalizeEmail(*patch.Email)
	}
	if patch.FullName != nil {
		p.FullName = strings.TrimSpace(*patch.FullName)
	}
	if patch.Role != nil {
		p.Role = *patch.Role
	}
	if patch.Department != nil {
		p.Department = strings.TrimSpace(*patch.Department)
	}
	if patch.Active != nil {
		p.Active = *patch.Active
	}
	p.UpdatedAt = now
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Filter narrows profile listings.
type Filter struct {
	Role       auth.Role
	Department string
	Active     *bool
	listing.Params
}

// Repository persists profiles.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Profile, error)
	Get(ctx context.Context, id string) (*Profile, error)
	Insert(ctx context.Context, profile Profile) error
	Update(ctx context.Context, profile Profile) error
	Delete(ctx context.Context, id string) (bool, error)
}
