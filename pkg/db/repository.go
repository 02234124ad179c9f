package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoLogPrefix = "db:repository"

const defaultListLimit = 50

// Repository provides database access to the audit trail.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// InsertAuditEntry appends one audit row. Rows are never updated.
func (r *Repository) InsertAuditEntry(ctx context.Context, e AuditEntry) error {
	slog.Debug(fmt.Sprintf("%s - InsertAuditEntry id=%s agent=%s task=%s", repoLogPrefix, e.ID, e.Agent, e.Task))

	payload := e.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_entries (id, recorded_at, agent, task, payload, result, ok)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.RecordedAt, e.Agent, e.Task, []byte(payload), []byte(e.Result), e.OK)
	if err != nil {
		return fmt.Errorf("%s - insert audit entry: %w", repoLogPrefix, err)
	}
	return nil
}

// ListAuditEntries returns the most recent entries, oldest first.
func (r *Repository) ListAuditEntries(ctx context.Context, params ListAuditEntriesParams) ([]AuditEntry, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var (
		where []string
		args  []any
	)
	if params.Agent != "" {
		args = append(args, params.Agent)
		where = append(where, fmt.Sprintf("agent = $%d", len(args)))
	}
	if params.Task != "" {
		args = append(args, params.Task)
		where = append(where, fmt.Sprintf("task = $%d", len(args)))
	}
	args = append(args, limit)

	query := `SELECT id::text AS id, recorded_at, agent, task, payload, result, ok FROM audit_entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query = fmt.Sprintf(`SELECT * FROM (%s ORDER BY recorded_at DESC LIMIT $%d) recent ORDER BY recorded_at ASC`, query, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s - list audit entries: %w", repoLogPrefix, err)
	}
	entries, err := pgx.CollectRows(rows, scanAuditEntry)
	if err != nil {
		return nil, fmt.Errorf("%s - scan audit entries: %w", repoLogPrefix, err)
	}
	return entries, nil
}

// CountAuditEntries returns the number of rows in the audit trail.
func (r *Repository) CountAuditEntries(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s - count audit entries: %w", repoLogPrefix, err)
	}
	return n, nil
}

func scanAuditEntry(row pgx.CollectableRow) (AuditEntry, error) {
	var (
		e       AuditEntry
		payload []byte
		result  []byte
	)
	if err := row.Scan(&e.ID, &e.RecordedAt, &e.Agent, &e.Task, &payload, &result, &e.OK); err != nil {
		return AuditEntry{}, err
	}
	e.Payload = payload
	e.Result = result
	return e, nil
}
