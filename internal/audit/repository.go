package audit

import (
	"context"
	"errors"
	"time"

	"refinery-ops/internal/platform/postgres"
)

// Repository writes audit logs.
type Repository struct {
	db postgres.DBTX
}

// NewRepository constructs an audit repository.
func NewRepository(db postgres.DBTX) *Repository {
	if db == nil {
		return nil
	}
	return &Repository{db: db}
}

// Log writes an audit entry.
func (r *Repository) Log(ctx context.Context, entry Entry) error {
	if r == nil || r.db == nil {
		return errors.New("audit repo: nil db")
	}
	if entry.ID == "" {
		entry.ID = NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.PayloadDigest == "" {
		entry.PayloadDigest = DigestJSON(entry.Metadata)
	}
	var metadata any
	if len(entry.Metadata) > 0 {
		metadata = []byte(entry.Metadata)
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO audit_logs (
	id, actor, role, action, resource_type, resource_id, module,
	metadata, payload_digest, ip, user_agent, created_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
)`, entry.ID, entry.Actor, entry.Role, entry.Action, entry.ResourceType, entry.ResourceID, entry.Module,
		metadata, entry.PayloadDigest, entry.IP, entry.UserAgent, entry.CreatedAt)
	return err
}

// List returns audit entries newest first.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Entry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("audit repo: nil db")
	}
	var where postgres.Where
	where.Since("created_at", filter.From)
	where.Before("created_at", filter.To)
	where.Eq("action", filter.Action)
	where.Eq("actor", filter.Actor)
	where.Eq("module", filter.Module)
	query := `
SELECT id, actor, role, action, resource_type, resource_id, module,
	metadata, payload_digest, ip, user_agent, created_at
FROM audit_logs` + where.SQL() + " ORDER BY created_at DESC" + where.Page(filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, where.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		var entry Entry
		var metadata []byte
		if err := rows.Scan(
			&entry.ID,
			&entry.Actor,
			&entry.Role,
			&entry.Action,
			&entry.ResourceType,
			&entry.ResourceID,
			&entry.Module,
			&metadata,
			&entry.PayloadDigest,
			&entry.IP,
			&entry.UserAgent,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			entry.Metadata = metadata
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

var _ Logger = (*Repository)(nil)
