package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqlutil "refinery-ops/internal/platform/postgres"
	quality "refinery-ops/internal/quality/domain"
)

const defaultStandardsTable = "commercial_standards"

const standardColumns = `id, product, parameter, min_value, max_value, unit, method, reference, notes, created_at, updated_at`

var standardSorts = map[string]string{
	"product":    "product",
	"parameter":  "parameter",
	"created_at": "created_at",
}

// StandardRepository is a Postgres implementation for commercial standards.
type StandardRepository struct {
	db    sqlutil.DBTX
	table string
}

// NewStandardRepository constructs a repository.
func NewStandardRepository(db sqlutil.DBTX) *StandardRepository {
	return &StandardRepository{db: db, table: defaultStandardsTable}
}

// List returns standards matching filter.
func (r *StandardRepository) List(ctx context.Context, filter quality.StandardFilter) ([]quality.Standard, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("standard repo: nil db")
	}
	var where sqlutil.Where
	where.Eq("product", string(filter.Product))
	where.Eq("parameter", filter.Parameter)
	where.Search(filter.Q, "parameter", "method", "reference", "notes")

	query := fmt.Sprintf("SELECT %s FROM %s", standardColumns, r.table) +
		where.SQL() +
		sqlutil.OrderBy(filter.Sort, standardSorts, "product, parameter") +
		where.Page(filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, where.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []quality.Standard
	for rows.Next() {
		standard, err := scanStandard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, standard)
	}
	return out, rows.Err()
}

// Get loads a standard by id.
func (r *StandardRepository) Get(ctx context.Context, id string) (*quality.Standard, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("standard repo: nil db")
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 LIMIT 1", standardColumns, r.table)
	standard, err := scanStandard(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &standard, nil
}

// Insert stores a standard. A duplicate product/parameter pair yields ErrStandardConflict.
func (r *StandardRepository) Insert(ctx context.Context, standard quality.Standard) error {
	if r == nil || r.db == nil {
		return errors.New("standard repo: nil db")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, product, parameter, min_value, max_value, unit, method, reference, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`, r.table)
	_, err := r.db.ExecContext(ctx, query,
		standard.ID,
		string(standard.Product),
		standard.Parameter,
		sqlutil.NullableFloat(standard.Min),
		sqlutil.NullableFloat(standard.Max),
		standard.Unit,
		standard.Method,
		standard.Reference,
		standard.Notes,
		standard.CreatedAt.UTC(),
		standard.UpdatedAt.UTC(),
	)
	if sqlutil.IsUniqueViolation(err) {
		return quality.ErrStandardConflict
	}
	return err
}

// Update overwrites a stored standard.
func (r *StandardRepository) Update(ctx context.Context, standard quality.Standard) error {
	if r == nil || r.db == nil {
		return errors.New("standard repo: nil db")
	}
	query := fmt.Sprintf(`
UPDATE %s SET
	product = $2,
	parameter = $3,
	min_value = $4,
	max_value = $5,
	unit = $6,
	method = $7,
	reference = $8,
	notes = $9,
	updated_at = $10
WHERE id = $1`, r.table)
	res, err := r.db.ExecContext(ctx, query,
		standard.ID,
		string(standard.Product),
		standard.Parameter,
		sqlutil.NullableFloat(standard.Min),
		sqlutil.NullableFloat(standard.Max),
		standard.Unit,
		standard.Method,
		standard.Reference,
		standard.Notes,
		standard.UpdatedAt.UTC(),
	)
	if sqlutil.IsUniqueViolation(err) {
		return quality.ErrStandardConflict
	}
	if err != nil {
		return err
	}
	return sqlutil.ExpectRow(res, quality.ErrStandardNotFound)
}

// Delete removes a standard, reporting whether it existed.
func (r *StandardRepository) Delete(ctx context.Context, id string) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("standard repo: nil db")
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

func scanStandard(row sqlutil.Scanner) (quality.Standard, error) {
	var (
		standard quality.Standard
		product  string
		lo, hi   sql.NullFloat64
	)
	if err := row.Scan(
		&standard.ID,
		&product,
		&standard.Parameter,
		&lo,
		&hi,
		&standard.Unit,
		&standard.Method,
		&standard.Reference,
		&standard.Notes,
		&standard.CreatedAt,
		&standard.UpdatedAt,
	); err != nil {
		return quality.Standard{}, err
	}
	standard.Product = quality.Product(product)
	standard.Min = sqlutil.FloatPtr(lo)
	standard.Max = sqlutil.FloatPtr(hi)
	standard.CreatedAt = standard.CreatedAt.UTC()
	standard.UpdatedAt = standard.UpdatedAt.UTC()
	return standard, nil
}
