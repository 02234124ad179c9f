package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/morezero/agent-orchestrator/pkg/db"
)

const postgresLogPrefix = "audit:postgres"

// EntryStore is the subset of db.Repository used by PostgresSink.
type EntryStore interface {
	InsertAuditEntry(ctx context.Context, e db.AuditEntry) error
}

// PostgresSink inserts entries into the audit_entries table.
type PostgresSink struct {
	store EntryStore
}

// NewPostgresSink creates a PostgresSink over store (usually a *db.Repository).
func NewPostgresSink(store EntryStore) *PostgresSink {
	return &PostgresSink{store: store}
}

// Append inserts e as one row.
func (s *PostgresSink) Append(ctx context.Context, e Entry) error {
	row, err := toRow(e)
	if err != nil {
		return err
	}
	if err := s.store.InsertAuditEntry(ctx, row); err != nil {
		return fmt.Errorf("%s - append %s: %w", postgresLogPrefix, e.ID, err)
	}
	return nil
}

// Close is a no-op; the pool is owned by the caller.
func (s *PostgresSink) Close() error { return nil }

func toRow(e Entry) (db.AuditEntry, error) {
	ts, err := e.Time()
	if err != nil {
		return db.AuditEntry{}, fmt.Errorf("%s - entry %s timestamp: %w", postgresLogPrefix, e.ID, err)
	}
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return db.AuditEntry{}, fmt.Errorf("%s - entry %s payload: %w", postgresLogPrefix, e.ID, err)
	}
	result, err := json.Marshal(e.Result)
	if err != nil {
		return db.AuditEntry{}, fmt.Errorf("%s - entry %s result: %w", postgresLogPrefix, e.ID, err)
	}
	return db.AuditEntry{
		ID:         e.ID,
		RecordedAt: ts,
		Agent:      e.Agent,
		Task:       e.Task,
		Payload:    payload,
		Result:     result,
		OK:         e.Result.OK,
	}, nil
}

// FromRow converts a stored row back into an Entry.
func FromRow(row db.AuditEntry) (Entry, error) {
	e := Entry{
		ID:        row.ID,
		Timestamp: row.RecordedAt.UTC().Format(time.RFC3339Nano),
		Agent:     row.Agent,
		Task:      row.Task,
	}
	if len(row.Payload) > 0 {
		if err := json.Unmarshal(row.Payload, &e.Payload); err != nil {
			return Entry{}, fmt.Errorf("%s - row %s payload: %w", postgresLogPrefix, row.ID, err)
		}
	}
	if err := json.Unmarshal(row.Result, &e.Result); err != nil {
		return Entry{}, fmt.Errorf("%s - row %s result: %w", postgresLogPrefix, row.ID, err)
	}
	return e, nil
}
