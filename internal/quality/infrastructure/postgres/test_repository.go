package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqlutil "refinery-ops/internal/platform/postgres"
	quality "refinery-ops/internal/quality/domain"
)

const defaultTestsTable = "quality_tests"

const testColumns = `id, product, batch_number, tank, sampled_at, density, flash_point, sulfur_content,
	viscosity, octane_number, water_content, result, tested_by, notes, created_at, updated_at`

var testSorts = map[string]string{
	"sampled_at":   "sampled_at",
	"product":      "product",
	"batch_number": "batch_number",
	"result":       "result",
	"created_at":   "created_at",
}

// TestRepository is a Postgres implementation for quality tests.
type TestRepository struct {
	db    sqlutil.DBTX
	table string
}

// TestOption configures the repository.
type TestOption func(*TestRepository)

// WithTestsTable overrides the default table name.
func WithTestsTable(table string) TestOption {
	return func(repo *TestRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewTestRepository constructs a repository.
func NewTestRepository(db sqlutil.DBTX, opts ...TestOption) *TestRepository {
	repo := &TestRepository{db: db, table: defaultTestsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// List returns tests matching filter.
func (r *TestRepository) List(ctx context.Context, filter quality.Filter) ([]quality.Test, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("quality test repo: nil db")
	}
	var where sqlutil.Where
	where.Since("sampled_at", filter.From)
	where.Before("sampled_at", filter.To)
	where.Eq("product", string(filter.Product))
	where.Eq("result", string(filter.Result))
	where.Eq("tank", filter.Tank)
	where.Search(filter.Q, "batch_number", "tank", "tested_by", "notes")

	query := fmt.Sprintf("SELECT %s FROM %s", testColumns, r.table) +
		where.SQL() +
		sqlutil.OrderBy(filter.Sort, testSorts, "sampled_at DESC, id") +
		where.Page(filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, where.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []quality.Test
	for rows.Next() {
		test, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, test)
	}
	return out, rows.Err()
}

// Get loads a test by id.
func (r *TestRepository) Get(ctx context.Context, id string) (*quality.Test, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("quality test repo: nil db")
	}
	if id == "" {
		return nil, errors.New("quality test repo: empty id")
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 LIMIT 1", testColumns, r.table)
	test, err := scanTest(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &test, nil
}

// Insert stores a new test.
func (r *TestRepository) Insert(ctx context.Context, test quality.Test) error {
	if r == nil || r.db == nil {
		return errors.New("quality test repo: nil db")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id, product, batch_number, tank, sampled_at, density, flash_point, sulfur_content,
	viscosity, octane_number, water_content, result, tested_by, notes, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
)`, r.table)
	_, err := r.db.ExecContext(ctx, query,
		test.ID,
		string(test.Product),
		test.BatchNumber,
		test.Tank,
		test.SampledAt.UTC(),
		sqlutil.NullableFloat(test.Density),
		sqlutil.NullableFloat(test.FlashPoint),
		sqlutil.NullableFloat(test.SulfurContent),
		sqlutil.NullableFloat(test.Viscosity),
		sqlutil.NullableFloat(test.OctaneNumber),
		sqlutil.NullableFloat(test.WaterContent),
		string(test.Result),
		test.TestedBy,
		test.Notes,
		test.CreatedAt.UTC(),
		test.UpdatedAt.UTC(),
	)
	return err
}

// Update overwrites a stored test.
func (r *TestRepository) Update(ctx context.Context, test quality.Test) error {
	if r == nil || r.db == nil {
		return errors.New("quality test repo: nil db")
	}
	query := fmt.Sprintf(`
UPDATE %s SET
	product = $2,
	batch_number = $3,
	tank = $4,
	sampled_at = $5,
	density = $6,
	flash_point = $7,
	sulfur_content = $8,
	viscosity = $9,
	octane_number = $10,
	water_content = $11,
	result = $12,
	tested_by = $13,
	notes = $14,
	updated_at = $15
WHERE id = $1`, r.table)
	res, err := r.db.ExecContext(ctx, query,
		test.ID,
		string(test.Product),
		test.BatchNumber,
		test.Tank,
		test.SampledAt.UTC(),
		sqlutil.NullableFloat(test.Density),
		sqlutil.NullableFloat(test.FlashPoint),
		sqlutil.NullableFloat(test.SulfurContent),
		sqlutil.NullableFloat(test.Viscosity),
		sqlutil.NullableFloat(test.OctaneNumber),
		sqlutil.NullableFloat(test.WaterContent),
		string(test.Result),
		test.TestedBy,
		test.Notes,
		test.UpdatedAt.UTC(),
	)
	if err != nil {
		return err
	}
	return sqlutil.ExpectRow(res, quality.ErrNotFound)
}

// Delete removes a test, reporting whether it existed.
func (r *TestRepository) Delete(ctx context.Context, id string) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("quality test repo: nil db")
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

func scanTest(row sqlutil.Scanner) (quality.Test, error) {
	var (
		test                                            quality.Test
		product, result                                 string
		density, flash, sulfur, visc, octane, waterPart sql.NullFloat64
	)
	if err := row.Scan(
		&test.ID,
		&product,
		&test.BatchNumber,
		&test.Tank,
		&test.SampledAt,
		&density,
		&flash,
		&sulfur,
		&visc,
		&octane,
		&waterPart,
		&result,
		&test.TestedBy,
		&test.Notes,
		&test.CreatedAt,
		&test.UpdatedAt,
	); err != nil {
		return quality.Test{}, err
	}
	test.Product = quality.Product(product)
	test.Result = quality.Result(result)
	test.Density = sqlutil.FloatPtr(density)
	test.FlashPoint = sqlutil.FloatPtr(flash)
	test.SulfurContent = sqlutil.FloatPtr(sulfur)
	test.Viscosity = sqlutil.FloatPtr(visc)
	test.OctaneNumber = sqlutil.FloatPtr(octane)
	test.WaterContent = sqlutil.FloatPtr(waterPart)
	test.SampledAt = test.SampledAt.UTC()
	test.CreatedAt = test.CreatedAt.UTC()
	test.UpdatedAt = test.UpdatedAt.UTC()
	return test, nil
}
