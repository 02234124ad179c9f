package db

import (
	"encoding/json"
	"time"
)

// AuditEntry represents a row in the audit_entries table.
type AuditEntry struct {
	ID         string          `json:"id"`
	RecordedAt time.Time       `json:"recorded_at"`
	Agent      string          `json:"agent"`
	Task       string          `json:"task"`
	Payload    json.RawMessage `json:"payload"`
	Result     json.RawMessage `json:"result"`
	OK         bool            `json:"ok"`
}

// ListAuditEntriesParams filters ListAuditEntries.
type ListAuditEntriesParams struct {
	Agent string
	Task  string
	Limit int
}
