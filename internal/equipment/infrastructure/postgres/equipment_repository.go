package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	equipment "refinery-ops/internal/equipment/domain"
	sqlutil "refinery-ops/internal/platform/postgres"
)

const defaultEquipmentTable = "equipment"

const equipmentColumns = `id, tag, name, type, area, status, criticality, manufacturer, model,
	installed_at, last_inspection_at, next_inspection_at, notes, created_at, updated_at`

var equipmentSorts = map[string]string{
	"tag":                "tag",
	"name":               "name",
	"type":               "type",
	"area":               "area",
	"status":             "status",
	"criticality":        "criticality",
	"next_inspection_at": "next_inspection_at",
	"created_at":         "created_at",
}

// EquipmentRepository is a Postgres implementation for equipment.
type EquipmentRepository struct {
	db    sqlutil.DBTX
	table string
}

// EquipmentOption configures the repository.
type EquipmentOption func(*EquipmentRepository)

// WithEquipmentTable overrides the default table name.
func WithEquipmentTable(table string) EquipmentOption {
	return func(repo *EquipmentRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewEquipmentRepository constructs a repository.
func NewEquipmentRepository(db sqlutil.DBTX, opts ...EquipmentOption) *EquipmentRepository {
	repo := &EquipmentRepository{db: db, table: defaultEquipmentTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// List returns equipment matching filter.
func (r *EquipmentRepository) List(ctx context.Context, filter equipment.Filter) ([]equipment.Equipment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("equipment repo: nil db")
	}
	var where sqlutil.Where
	where.Eq("type", string(filter.Type))
	where.Eq("status", string(filter.Status))
	where.Eq("criticality", string(filter.Criticality))
	where.Eq("area", filter.Area)
	where.Search(filter.Q, "tag", "name", "area", "manufacturer")

	query := fmt.Sprintf("SELECT %s FROM %s", equipmentColumns, r.table) +
		where.SQL() +
		sqlutil.OrderBy(filter.Sort, equipmentSorts, "tag, id") +
		where.Page(filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, where.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []equipment.Equipment
	for rows.Next() {
		item, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// Get loads equipment by id.
func (r *EquipmentRepository) Get(ctx context.Context, id string) (*equipment.Equipment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("equipment repo: nil db")
	}
	if id == "" {
		return nil, errors.New("equipment repo: empty id")
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 LIMIT 1", equipmentColumns, r.table)
	item, err := scanEquipment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// Insert stores new equipment. A duplicate tag yields ErrTagConflict.
func (r *EquipmentRepository) Insert(ctx context.Context, item equipment.Equipment) error {
	if r == nil || r.db == nil {
		return errors.New("equipment repo: nil db")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id, tag, name, type, area, status, criticality, manufacturer, model,
	installed_at, last_inspection_at, next_inspection_at, notes, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
)`, r.table)
	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.Tag,
		item.Name,
		string(item.Type),
		item.Area,
		string(item.Status),
		string(item.Criticality),
		item.Manufacturer,
		item.Model,
		sqlutil.NullableTimePtr(item.InstalledAt),
		sqlutil.NullableTimePtr(item.LastInspectionAt),
		sqlutil.NullableTimePtr(item.NextInspectionAt),
		item.Notes,
		item.CreatedAt.UTC(),
		item.UpdatedAt.UTC(),
	)
	if sqlutil.IsUniqueViolation(err) {
		return equipment.ErrTagConflict
	}
	return err
}

// Update overwrites stored equipment.
func (r *EquipmentRepository) Update(ctx context.Context, item equipment.Equipment) error {
	if r == nil || r.db == nil {
		return errors.New("equipment repo: nil db")
	}
	query := fmt.Sprintf(`
UPDATE %s SET
	tag = $2,
	name = $3,
	type = $4,
	area = $5,
	status = $6,
	criticality = $7,
	manufacturer = $8,
	model = $9,
	installed_at = $10,
	last_inspection_at = $11,
	next_inspection_at = $12,
	notes = $13,
	updated_at = $14
WHERE id = $1`, r.table)
	res, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.Tag,
		item.Name,
		string(item.Type),
		item.Area,
		string(item.Status),
		string(item.Criticality),
		item.Manufacturer,
		item.Model,
		sqlutil.NullableTimePtr(item.InstalledAt),
		sqlutil.NullableTimePtr(item.LastInspectionAt),
		sqlutil.NullableTimePtr(item.NextInspectionAt),
		item.Notes,
		item.UpdatedAt.UTC(),
	)
	if err != nil {
		if sqlutil.IsUniqueViolation(err) {
			return equipment.ErrTagConflict
		}
		return err
	}
	return sqlutil.ExpectRow(res, equipment.ErrNotFound)
}

// Delete removes equipment, reporting whether it existed. Events referencing it keep a NULL equipment_id.
func (r *EquipmentRepository) Delete(ctx context.Context, id string) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("equipment repo: nil db")
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

func scanEquipment(row sqlutil.Scanner) (equipment.Equipment, error) {
	var (
		item                          equipment.Equipment
		kind, status, criticality     string
		installed, lastInsp, nextInsp sql.NullTime
	)
	if err := row.Scan(
		&item.ID,
		&item.Tag,
		&item.Name,
		&kind,
		&item.Area,
		&status,
		&criticality,
		&item.Manufacturer,
		&item.Model,
		&installed,
		&lastInsp,
		&nextInsp,
		&item.Notes,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return equipment.Equipment{}, err
	}
	item.Type = equipment.Type(kind)
	item.Status = equipment.Status(status)
	item.Criticality = equipment.Criticality(criticality)
	item.InstalledAt = sqlutil.TimePtr(installed)
	item.LastInspectionAt = sqlutil.TimePtr(lastInsp)
	item.NextInspectionAt = sqlutil.TimePtr(nextInsp)
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	return item, nil
}
