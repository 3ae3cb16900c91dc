package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	events "refinery-ops/internal/events/domain"
	sqlutil "refinery-ops/internal/platform/postgres"
)

const defaultEventsTable = "operation_events"

const eventColumns = `id, event_type, category, area, equipment_id, started_at, ended_at,
	reason, description, reported_by, created_at, updated_at`

var eventSorts = map[string]string{
	"started_at": "started_at",
	"ended_at":   "ended_at",
	"event_type": "event_type",
	"category":   "category",
	"area":       "area",
	"created_at": "created_at",
}

// EventRepository is a Postgres implementation for operation events.
type EventRepository struct {
	db    sqlutil.DBTX
	table string
}

// EventOption configures the repository.
type EventOption func(*EventRepository)

// WithEventsTable overrides the default table name.
func WithEventsTable(table string) EventOption {
	return func(repo *EventRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewEventRepository constructs a repository.
func NewEventRepository(db sqlutil.DBTX, opts ...EventOption) *EventRepository {
	repo := &EventRepository{db: db, table: defaultEventsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// List returns events matching filter.
func (r *EventRepository) List(ctx context.Context, filter events.Filter) ([]events.Event, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("event repo: nil db")
	}
	var where sqlutil.Where
	where.Since("started_at", filter.From)
	where.Before("started_at", filter.To)
	where.Eq("event_type", string(filter.Type))
	where.Eq("category", string(filter.Category))
	where.Eq("area", filter.Area)
	where.Eq("equipment_id", filter.EquipmentID)
	switch filter.Status {
	case events.StatusOpen:
		where.Raw("ended_at IS NULL")
	case events.StatusClosed:
		where.Raw("ended_at IS NOT NULL")
	}
	where.Search(filter.Q, "reason", "area", "description", "reported_by")

	query := fmt.Sprintf("SELECT %s FROM %s", eventColumns, r.table) +
		where.SQL() +
		sqlutil.OrderBy(filter.Sort, eventSorts, "started_at DESC, id") +
		where.Page(filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, where.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

// Get loads an event by id.
func (r *EventRepository) Get(ctx context.Context, id string) (*events.Event, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("event repo: nil db")
	}
	if id == "" {
		return nil, errors.New("event repo: empty id")
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 LIMIT 1", eventColumns, r.table)
	event, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// Insert stores a new event. An unknown equipment_id yields ErrUnknownEquipment.
func (r *EventRepository) Insert(ctx context.Context, event events.Event) error {
	if r == nil || r.db == nil {
		return errors.New("event repo: nil db")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id, event_type, category, area, equipment_id, started_at, ended_at,
	reason, description, reported_by, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
)`, r.table)
	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		string(event.Type),
		string(event.Category),
		event.Area,
		sqlutil.NullableString(event.EquipmentID),
		event.StartedAt.UTC(),
		sqlutil.NullableTimePtr(event.EndedAt),
		event.Reason,
		event.Description,
		event.ReportedBy,
		event.CreatedAt.UTC(),
		event.UpdatedAt.UTC(),
	)
	if sqlutil.IsForeignKeyViolation(err) {
		return events.ErrUnknownEquipment
	}
	return err
}

// Update overwrites a stored event.
func (r *EventRepository) Update(ctx context.Context, event events.Event) error {
	if r == nil || r.db == nil {
		return errors.New("event repo: nil db")
	}
	query := fmt.Sprintf(`
UPDATE %s SET
	event_type = $2,
	category = $3,
	area = $4,
	equipment_id = $5,
	started_at = $6,
	ended_at = $7,
	reason = $8,
	description = $9,
	reported_by = $10,
	updated_at = $11
WHERE id = $1`, r.table)
	res, err := r.db.ExecContext(ctx, query,
		event.ID,
		string(event.Type),
		string(event.Category),
		event.Area,
		sqlutil.NullableString(event.EquipmentID),
		event.StartedAt.UTC(),
		sqlutil.NullableTimePtr(event.EndedAt),
		event.Reason,
		event.Description,
		event.ReportedBy,
		event.UpdatedAt.UTC(),
	)
	if err != nil {
		if sqlutil.IsForeignKeyViolation(err) {
			return events.ErrUnknownEquipment
		}
		return err
	}
	return sqlutil.ExpectRow(res, events.ErrNotFound)
}

// Delete removes an event, reporting whether it existed.
func (r *EventRepository) Delete(ctx context.Context, id string) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("event repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.table), id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func scanEvent(row sqlutil.Scanner) (events.Event, error) {
	var (
		event          events.Event
		kind, category string
		equipmentID    sql.NullString
		endedAt        sql.NullTime
	)
	if err := row.Scan(
		&event.ID,
		&kind,
		&category,
		&event.Area,
		&equipmentID,
		&event.StartedAt,
		&endedAt,
		&event.Reason,
		&event.Description,
		&event.ReportedBy,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		return events.Event{}, err
	}
	event.Type = events.Type(kind)
	event.Category = events.Category(category)
	event.EquipmentID = sqlutil.StringPtr(equipmentID)
	event.EndedAt = sqlutil.TimePtr(endedAt)
	event.Status = events.DeriveStatus(event.EndedAt)
	event.StartedAt = event.StartedAt.UTC()
	event.CreatedAt = event.CreatedAt.UTC()
	event.UpdatedAt = event.UpdatedAt.UTC()
	return event, nil
}
