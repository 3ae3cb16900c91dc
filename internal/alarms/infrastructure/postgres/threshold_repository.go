package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	alarms "refinery-ops/internal/alarms/domain"
	sqlutil "refinery-ops/internal/platform/postgres"
)

const defaultThresholdsTable = "alert_thresholds"

const thresholdColumns = `id, module, parameter, scope, min_value, max_value, severity, enabled, created_at, updated_at`

var thresholdSorts = map[string]string{
	"module":     "module",
	"parameter":  "parameter",
	"severity":   "severity",
	"created_at": "created_at",
}

// ThresholdRepository is a Postgres repository for alert thresholds.
type ThresholdRepository struct {
	db    sqlutil.DBTX
	table string
}

// NewThresholdRepository constructs a repository.
func NewThresholdRepository(db sqlutil.DBTX) *ThresholdRepository {
	return &ThresholdRepository{db: db, table: defaultThresholdsTable}
}

// List returns thresholds matching filter.
func (r *ThresholdRepository) List(ctx context.Context, filter alarms.ThresholdFilter) ([]alarms.Threshold, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("threshold repo: nil db")
	}
	var where sqlutil.Where
	where.Eq("module", string(filter.Module))
	where.Eq("parameter", filter.Parameter)
	where.Eq("severity", string(filter.Severity))
	where.EqBool("enabled", filter.Enabled)
	where.Search(filter.Q, "parameter", "scope")

	query := fmt.Sprintf("SELECT %s FROM %s", thresholdColumns, r.table) +
		where.SQL() +
		sqlutil.OrderBy(filter.Sort, thresholdSorts, "module, parameter, scope") +
		where.Page(filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, where.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []alarms.Threshold
	for rows.Next() {
		threshold, err := scanThreshold(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, threshold)
	}
	return out, rows.Err()
}

// Get loads a threshold by id.
func (r *ThresholdRepository) Get(ctx context.Context, id string) (*alarms.Threshold, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("threshold repo: nil db")
	}
	if id == "" {
		return nil, errors.New("threshold repo: empty id")
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 LIMIT 1", thresholdColumns, r.table)
	threshold, err := scanThreshold(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &threshold, nil
}

// Insert stores a threshold.
func (r *ThresholdRepository) Insert(ctx context.Context, threshold alarms.Threshold) error {
	if r == nil || r.db == nil {
		return errors.New("threshold repo: nil db")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, module, parameter, scope, min_value, max_value, severity, enabled, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, r.table)
	_, err := r.db.ExecContext(ctx, query,
		threshold.ID,
		string(threshold.Module),
		threshold.Parameter,
		threshold.Scope,
		sqlutil.NullableFloat(threshold.Min),
		sqlutil.NullableFloat(threshold.Max),
		string(threshold.Severity),
		threshold.Enabled,
		threshold.CreatedAt.UTC(),
		threshold.UpdatedAt.UTC(),
	)
	return err
}

// Update overwrites a stored threshold.
func (r *ThresholdRepository) Update(ctx context.Context, threshold alarms.Threshold) error {
	if r == nil || r.db == nil {
		return errors.New("threshold repo: nil db")
	}
	query := fmt.Sprintf(`
UPDATE %s SET
	module = $2,
	parameter = $3,
	scope = $4,
	min_value = $5,
	max_value = $6,
	severity = $7,
	enabled = $8,
	updated_at = $9
WHERE id = $1`, r.table)
	res, err := r.db.ExecContext(ctx, query,
		threshold.ID,
		string(threshold.Module),
		threshold.Parameter,
		threshold.Scope,
		sqlutil.NullableFloat(threshold.Min),
		sqlutil.NullableFloat(threshold.Max),
		string(threshold.Severity),
		threshold.Enabled,
		threshold.UpdatedAt.UTC(),
	)
	if err != nil {
		return err
	}
	return sqlutil.ExpectRow(res, alarms.ErrNotFound)
}

// Delete removes a threshold, reporting whether it existed.
func (r *ThresholdRepository) Delete(ctx context.Context, id string) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("threshold repo: nil db")
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

func scanThreshold(row sqlutil.Scanner) (alarms.Threshold, error) {
	var (
		threshold        alarms.Threshold
		module, severity string
		lo, hi           sql.NullFloat64
	)
	if err := row.Scan(
		&threshold.ID,
		&module,
		&threshold.Parameter,
		&threshold.Scope,
		&lo,
		&hi,
		&severity,
		&threshold.Enabled,
		&threshold.CreatedAt,
		&threshold.UpdatedAt,
	); err != nil {
		return alarms.Threshold{}, err
	}
	threshold.Module = alarms.Module(module)
	threshold.Severity = alarms.Severity(severity)
	threshold.Min = sqlutil.FloatPtr(lo)
	threshold.Max = sqlutil.FloatPtr(hi)
	threshold.CreatedAt = threshold.CreatedAt.UTC()
	threshold.UpdatedAt = threshold.UpdatedAt.UTC()
	return threshold, nil
}
