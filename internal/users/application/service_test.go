package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refinery-ops/internal/auth"
	users "refinery-ops/internal/users/domain"
)

type memRepo struct {
	rows map[string]users.Profile
}

func (m *memRepo) List(context.Context, users.Filter) ([]users.Profile, error) {
	out := make([]users.Profile, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	return out, nil
}

func (m *memRepo) Get(_ context.Context, id string) (*users.Profile, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (m *memRepo) Insert(_ context.Context, p users.Profile) error {
	for _, row := range m.rows {
		if row.ID == p.ID || row.Email == p.Email {
			return users.ErrConflict
		}
	}
	m.rows[p.ID] = p
	return nil
}

func (m *memRepo) Update(_ context.Context, p users.Profile) error {
	m.rows[p.ID] = p
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) (bool, error) {
	_, ok := m.rows[id]
	delete(m.rows, id)
	return ok, nil
}

func TestService_CreateConflictAndMe(t *testing.T) {
	svc, err := NewService(&memRepo{rows: map[string]users.Profile{}})
	require.NoError(t, err)
	ctx := context.Background()

	created, err := svc.Create(ctx, users.NewProfile{ID: "sub-1", Email: "lab@refinery.example", FullName: "Lab Tech", Role: auth.RoleOperator})
	require.NoError(t, err)
	assert.Equal(t, "sub-1", created.ID)

	_, err = svc.Create(ctx, users.NewProfile{ID: "sub-2", Email: "LAB@refinery.example", FullName: "Other"})
	assert.ErrorIs(t, err, users.ErrConflict)

	_, err = svc.Me(ctx)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	me, err := svc.Me(auth.WithIdentity(ctx, auth.RoleOperator, "sub-1"))
	require.NoError(t, err)
	assert.Equal(t, "Lab Tech", me.FullName)
}

func TestService_SubjectActive(t *testing.T) {
	repo := &memRepo{rows: map[string]users.Profile{
		"on":  {ID: "on", Active: true},
		"off": {ID: "off", Active: false},
	}}
	svc, err := NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()

	active, found, err := svc.SubjectActive(ctx, "on")
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, active)

	active, found, err = svc.SubjectActive(ctx, "off")
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, active)

	_, found, err = svc.SubjectActive(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, found)
}
