package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	events "refinery-ops/internal/events/domain"
	"refinery-ops/internal/validation"
)

type memRepo struct {
	rows      map[string]events.Event
	equipment map[string]bool
}

func (m *memRepo) List(context.Context, events.Filter) ([]events.Event, error) {
	out := make([]events.Event, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	return out, nil
}

func (m *memRepo) Get(_ context.Context, id string) (*events.Event, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (m *memRepo) Insert(_ context.Context, event events.Event) error {
	if event.EquipmentID != nil && !m.equipment[*event.EquipmentID] {
		return events.ErrUnknownEquipment
	}
	m.rows[event.ID] = event
	return nil
}

func (m *memRepo) Update(_ context.Context, event events.Event) error {
	m.rows[event.ID] = event
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) (bool, error) {
	_, ok := m.rows[id]
	delete(m.rows, id)
	return ok, nil
}

func TestService_CreateAndClose(t *testing.T) {
	repo := &memRepo{rows: map[string]events.Event{}, equipment: map[string]bool{"eq-1": true}}
	svc, err := NewService(repo, WithIDGenerator(func() string { return "ev-1" }))
	require.NoError(t, err)
	ctx := context.Background()

	start := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	eq := "eq-1"
	created, err := svc.Create(ctx, events.NewEvent{
		Type: events.TypeShutdown, Category: events.CategoryUnplanned,
		Area: "CDU", EquipmentID: &eq, StartedAt: start, Reason: "pump trip",
	})
	require.NoError(t, err)
	assert.Equal(t, events.StatusOpen, created.Status)

	end := start.Add(3 * time.Hour)
	updated, err := svc.Update(ctx, "ev-1", events.Patch{EndedAt: &end})
	require.NoError(t, err)
	assert.Equal(t, events.StatusClosed, updated.Status)

	early := start.Add(-time.Hour)
	_, err = svc.Update(ctx, "ev-1", events.Patch{EndedAt: &early})
	assert.ErrorIs(t, err, validation.ErrInvalid)
}

func TestService_UnknownEquipment(t *testing.T) {
	repo := &memRepo{rows: map[string]events.Event{}}
	svc, err := NewService(repo)
	require.NoError(t, err)

	missing := "eq-404"
	_, err = svc.Create(context.Background(), events.NewEvent{
		Type: events.TypeStartup, Category: events.CategoryPlanned,
		Area: "FCC", EquipmentID: &missing, StartedAt: time.Now(), Reason: "restart",
	})
	var invalid *validation.Error
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Fields, "equipment_id")
}
