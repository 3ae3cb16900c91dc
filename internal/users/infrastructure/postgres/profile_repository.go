package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"refinery-ops/internal/auth"
	sqlutil "refinery-ops/internal/platform/postgres"
	users "refinery-ops/internal/users/domain"
)

const defaultProfilesTable = "profiles"

const profileColumns = `id, email, full_name, role, department, active, created_at, updated_at`

var profileSorts = map[string]string{
	"email":      "email",
	"full_name":  "full_name",
	"role":       "role",
	"department": "department",
	"created_at": "created_at",
}

// ProfileRepository is a Postgres implementation for profiles.
type ProfileRepository struct {
	db    sqlutil.DBTX
	table string
}

// NewProfileRepository constructs a repository.
func NewProfileRepository(db sqlutil.DBTX) *ProfileRepository {
	return &ProfileRepository{db: db, table: defaultProfilesTable}
}

// List returns profiles matching filter.
func (r *ProfileRepository) List(ctx context.Context, filter users.Filter) ([]users.Profile, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("profile repo: nil db")
	}
	var where sqlutil.Where
	where.Eq("role", string(filter.Role))
	where.Eq("department", filter.Department)
	where.EqBool("active", filter.Active)
	where.Search(filter.Q, "email", "full_name", "department")

	query := fmt.Sprintf("SELECT %s FROM %s", profileColumns, r.table) +
		where.SQL() +
		sqlutil.OrderBy(filter.Sort, profileSorts, "full_name, id") +
		where.Page(filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, where.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []users.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, profile)
	}
	return out, rows.Err()
}

// Get loads a profile by id.
func (r *ProfileRepository) Get(ctx context.Context, id string) (*users.Profile, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("profile repo: nil db")
	}
	if id == "" {
		return nil, errors.New("profile repo: empty id")
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 LIMIT 1", profileColumns, r.table)
	profile, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// Insert stores a profile. A duplicate id or email yields ErrConflict.
func (r *ProfileRepository) Insert(ctx context.Context, profile users.Profile) error {
	if r == nil || r.db == nil {
		return errors.New("profile repo: nil db")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, email, full_name, role, department, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, r.table)
	_, err := r.db.ExecContext(ctx, query,
		profile.ID,
		profile.Email,
		profile.FullName,
		string(profile.Role),
		profile.Department,
		profile.Active,
		profile.CreatedAt.UTC(),
		profile.UpdatedAt.UTC(),
	)
	if sqlutil.IsUniqueViolation(err) {
		return users.ErrConflict
	}
	return err
}

// Update overwrites a stored profile.
func (r *ProfileRepository) Update(ctx context.Context, profile users.Profile) error {
	if r == nil || r.db == nil {
		return errors.New("profile repo: nil db")
	}
	query := fmt.Sprintf(`
UPDATE %s SET
	email = $2,
	full_name = $3,
	role = $4,
	department = $5,
	active = $6,
	updated_at = $7
WHERE id = $1`, r.table)
	res, err := r.db.ExecContext(ctx, query,
		profile.ID,
		profile.Email,
		profile.FullName,
		string(profile.Role),
		profile.Department,
		profile.Active,
		profile.UpdatedAt.UTC(),
	)
	if err != nil {
		if sqlutil.IsUniqueViolation(err) {
			return users.ErrConflict
		}
		return err
	}
	return sqlutil.ExpectRow(res, users.ErrNotFound)
}

// Delete removes a profile, reporting whether it existed.
func (r *ProfileRepository) Delete(ctx context.Context, id string) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("profile repo: nil db")
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

func scanProfile(row sqlutil.Scanner) (users.Profile, error) {
	var (
		profile users.Profile
		role    string
	)
	if err := row.Scan(
		&profile.ID,
		&profile.Email,
		&profile.FullName,
		&role,
		&profile.Department,
		&profile.Active,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return users.Profile{}, err
	}
	profile.Role = auth.Role(role)
	profile.CreatedAt = profile.CreatedAt.UTC()
	profile.UpdatedAt = profile.UpdatedAt.UTC()
	return profile, nil
}
