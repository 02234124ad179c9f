// Package audit records every dispatched task to an append-only trail.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/morezero/agent-orchestrator/pkg/agent"
)

// DefaultPath is the NDJSON trail written when no path is configured.
const DefaultPath = "audit_log.jsonl"

// Entry is one dispatched task and the result the agent produced.
type Entry struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"timestamp"`
	Agent     string         `json:"agent"`
	Task      string         `json:"task"`
	Payload   map[string]any `json:"payload"`
	Result    agent.Result   `json:"result"`
}

// Sink appends audit entries. Implementations never rewrite earlier entries.
type Sink interface {
	Append(ctx context.Context, e Entry) error
	Close() error
}

// NewEntry builds an Entry stamped with now (UTC, RFC 3339 with nanoseconds).
func NewEntry(agentName, taskName string, payload map[string]any, result agent.Result, now time.Time) Entry {
	if payload == nil {
		payload = map[string]any{}
	}
	return Entry{
		ID:        uuid.NewString(),
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		Agent:     agentName,
		Task:      taskName,
		Payload:   payload,
		Result:    result,
	}
}

// Time parses the entry timestamp.
func (e Entry) Time() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, e.Timestamp)
}

// MultiSink fans each entry out to every sink.
type MultiSink []Sink

// Append writes to all sinks, even after a failure, and joins the errors.
func (m MultiSink) Append(ctx context.Context, e Entry) error {
	var errs []error
	for _, s := range m {
		if err := s.Append(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes all sinks.
func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NoOpSink discards entries.
type NoOpSink struct{}

func (NoOpSink) Append(context.Context, Entry) error { return nil }
func (NoOpSink) Close() error                        { return nil }
