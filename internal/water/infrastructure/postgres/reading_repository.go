package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqlutil "refinery-ops/internal/platform/postgres"
	water "refinery-ops/internal/water/domain"
)

const defaultReadingsTable = "water_readings"

const readingColumns = `id, sample_point, sampled_at, ph, conductivity, turbidity, residual_chlorine,
	temperature, tds, hardness, recorded_by, notes, created_at, updated_at`

var readingSorts = map[string]string{
	"sampled_at":   "sampled_at",
	"sample_point": "sample_point",
	"ph":           "ph",
	"temperature":  "temperature",
	"created_at":   "created_at",
}

// ReadingRepository is a Postgres implementation for water readings.
type ReadingRepository struct {
	db    sqlutil.DBTX
	table string
}

// ReadingOption configures the repository.
type ReadingOption func(*ReadingRepository)

// WithReadingsTable overrides the default table name.
func WithReadingsTable(table string) ReadingOption {
	return func(repo *ReadingRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewReadingRepository constructs a repository.
func NewReadingRepository(db sqlutil.DBTX, opts ...ReadingOption) *ReadingRepository {
	repo := &ReadingRepository{db: db, table: defaultReadingsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// List returns readings matching filter.
func (r *ReadingRepository) List(ctx context.Context, filter water.Filter) ([]water.Reading, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("water reading repo: nil db")
	}
	var where sqlutil.Where
	where.Since("sampled_at", filter.From)
	where.Before("sampled_at", filter.To)
	where.Eq("sample_point", filter.SamplePoint)
	where.Search(filter.Q, "sample_point", "recorded_by", "notes")

	query := fmt.Sprintf("SELECT %s FROM %s", readingColumns, r.table) +
		where.SQL() +
		sqlutil.OrderBy(filter.Sort, readingSorts, "sampled_at DESC, id") +
		where.Page(filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, where.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []water.Reading
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reading)
	}
	return out, rows.Err()
}

// Get loads a reading by id.
func (r *ReadingRepository) Get(ctx context.Context, id string) (*water.Reading, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("water reading repo: nil db")
	}
	if id == "" {
		return nil, errors.New("water reading repo: empty id")
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 LIMIT 1", readingColumns, r.table)
	reading, err := scanReading(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &reading, nil
}

// Insert stores a new reading.
func (r *ReadingRepository) Insert(ctx context.Context, reading water.Reading) error {
	if r == nil || r.db == nil {
		return errors.New("water reading repo: nil db")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id, sample_point, sampled_at, ph, conductivity, turbidity, residual_chlorine,
	temperature, tds, hardness, recorded_by, notes, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
)`, r.table)
	_, err := r.db.ExecContext(ctx, query,
		reading.ID,
		reading.SamplePoint,
		reading.SampledAt.UTC(),
		sqlutil.NullableFloat(reading.PH),
		sqlutil.NullableFloat(reading.Conductivity),
		sqlutil.NullableFloat(reading.Turbidity),
		sqlutil.NullableFloat(reading.ResidualChlorine),
		sqlutil.NullableFloat(reading.Temperature),
		sqlutil.NullableFloat(reading.TDS),
		sqlutil.NullableFloat(reading.Hardness),
		reading.RecordedBy,
		reading.Notes,
		reading.CreatedAt.UTC(),
		reading.UpdatedAt.UTC(),
	)
	return err
}

// Update overwrites a stored reading.
func (r *ReadingRepository) Update(ctx context.Context, reading water.Reading) error {
	if r == nil || r.db == nil {
		return errors.New("water reading repo: nil db")
	}
	query := fmt.Sprintf(`
UPDATE %s SET
	sample_point = $2,
	sampled_at = $3,
	ph = $4,
	conductivity = $5,
	turbidity = $6,
	residual_chlorine = $7,
	temperature = $8,
	tds = $9,
	hardness = $10,
	recorded_by = $11,
	notes = $12,
	updated_at = $13
WHERE id = $1`, r.table)
	res, err := r.db.ExecContext(ctx, query,
		reading.ID,
		reading.SamplePoint,
		reading.SampledAt.UTC(),
		sqlutil.NullableFloat(reading.PH),
		sqlutil.NullableFloat(reading.Conductivity),
		sqlutil.NullableFloat(reading.Turbidity),
		sqlutil.NullableFloat(reading.ResidualChlorine),
		sqlutil.NullableFloat(reading.Temperature),
		sqlutil.NullableFloat(reading.TDS),
		sqlutil.NullableFloat(reading.Hardness),
		reading.RecordedBy,
		reading.Notes,
		reading.UpdatedAt.UTC(),
	)
	if err != nil {
		return err
	}
	return sqlutil.ExpectRow(res, water.ErrNotFound)
}

// Delete removes a reading, reporting whether it existed.
func (r *ReadingRepository) Delete(ctx context.Context, id string) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("water reading repo: nil db")
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

func scanReading(row sqlutil.Scanner) (water.Reading, error) {
	var (
		reading                                    water.Reading
		ph, cond, turb, chlorine, temp, tds, hard sql.NullFloat64
	)
	if err := row.Scan(
		&reading.ID,
		&reading.SamplePoint,
		&reading.SampledAt,
		&ph,
		&cond,
		&turb,
		&chlorine,
		&temp,
		&tds,
		&hard,
		&reading.RecordedBy,
		&reading.Notes,
		&reading.CreatedAt,
		&reading.UpdatedAt,
	); err != nil {
		return water.Reading{}, err
	}
	reading.PH = sqlutil.FloatPtr(ph)
	reading.Conductivity = sqlutil.FloatPtr(cond)
	reading.Turbidity = sqlutil.FloatPtr(turb)
	reading.ResidualChlorine = sqlutil.FloatPtr(chlorine)
	reading.Temperature = sqlutil.FloatPtr(temp)
	reading.TDS = sqlutil.FloatPtr(tds)
	reading.Hardness = sqlutil.FloatPtr(hard)
	reading.SampledAt = reading.SampledAt.UTC()
	reading.CreatedAt = reading.CreatedAt.UTC()
	reading.UpdatedAt = reading.UpdatedAt.UTC()
	return reading, nil
}
