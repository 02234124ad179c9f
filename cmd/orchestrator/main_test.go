package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/morezero/agent-orchestrator/internal/config"
	"github.com/morezero/agent-orchestrator/pkg/agent"
	"github.com/morezero/agent-orchestrator/pkg/audit"
)

const mainTestPrefix = "cmd/orchestrator:main_test"

func TestUsage_ContainsCommands(t *testing.T) {
	required := []string{"serve", "migrate", "ensure-db", "audit", "postgres", "redis", "agents", "check", "DATABASE_URL", "ORCHESTRATOR_API_KEY"}
	for _, word := range required {
		if !strings.Contains(usage, word) {
			t.Errorf("%s - usage should contain %q", mainTestPrefix, word)
		}
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "5", want: 5},
		{in: " 12 ", want: 12},
		{in: "0", wantErr: true},
		{in: "-3", wantErr: true},
		{in: "ten", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseCount(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s - parseCount(%q) err = %v, wantErr %v", mainTestPrefix, tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("%s - parseCount(%q) = %d, want %d", mainTestPrefix, tt.in, got, tt.want)
		}
	}
}

func TestRunAudit_TailsLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit_log.jsonl")
	sink, err := audit.NewFileSink(path)
	if err != nil {
		t.Fatalf("%s - NewFileSink: %v", mainTestPrefix, err)
	}
	now := time.Date(2025, 9, 15, 10, 0, 0, 0, time.UTC)
	for _, task := range []string{"job_search", "health_search", "legal_search"} {
		e := audit.NewEntry("agent", task, nil, agent.Success(nil), now)
		if err := sink.Append(context.Background(), e); err != nil {
			t.Fatalf("%s - Append: %v", mainTestPrefix, err)
		}
	}
	sink.Close()

	var out bytes.Buffer
	if err := runAudit(context.Background(), &out, &config.Config{AuditLogPath: path}, auditSourceFile, 2); err != nil {
		t.Fatalf("%s - runAudit: %v", mainTestPrefix, err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("%s - printed %d lines, want 2: %q", mainTestPrefix, len(lines), out.String())
	}
	if !strings.Contains(lines[0], "health_search") || !strings.Contains(lines[1], "legal_search") {
		t.Errorf("%s - wrong tail: %q", mainTestPrefix, lines)
	}
}

func TestRunAudit_MissingLog(t *testing.T) {
	var out bytes.Buffer
	cfg := &config.Config{AuditLogPath: filepath.Join(t.TempDir(), "none.jsonl")}
	if err := runAudit(context.Background(), &out, cfg, auditSourceFile, 5); err != nil {
		t.Fatalf("%s - missing log should not be an error: %v", mainTestPrefix, err)
	}
	if out.Len() != 0 {
		t.Errorf("%s - expected no output, got %q", mainTestPrefix, out.String())
	}
}

func TestParseAuditArgs(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantN      int
		wantSource string
		wantErr    bool
	}{
		{name: "defaults", args: nil, wantN: defaultAuditTail, wantSource: auditSourceFile},
		{name: "count only", args: []string{"5"}, wantN: 5, wantSource: auditSourceFile},
		{name: "source only", args: []string{"redis"}, wantN: defaultAuditTail, wantSource: auditSourceRedis},
		{name: "count then source", args: []string{"3", "postgres"}, wantN: 3, wantSource: auditSourcePostgres},
		{name: "source then count", args: []string{"postgres", "7"}, wantN: 7, wantSource: auditSourcePostgres},
		{name: "unknown source", args: []string{"5", "kafka"}, wantErr: true},
		{name: "bad count", args: []string{"zero"}, wantErr: true},
		{name: "two sources", args: []string{"file", "redis"}, wantErr: true},
		{name: "too many", args: []string{"1", "file", "x"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, source, err := parseAuditArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("%s - parseAuditArgs(%q) expected error", mainTestPrefix, tt.args)
				}
				return
			}
			if err != nil {
				t.Fatalf("%s - parseAuditArgs(%q): %v", mainTestPrefix, tt.args, err)
			}
			if n != tt.wantN || source != tt.wantSource {
				t.Errorf("%s - parseAuditArgs(%q) = %d, %q; want %d, %q", mainTestPrefix, tt.args, n, source, tt.wantN, tt.wantSource)
			}
		})
	}
}

func TestRunAudit_SourceRequiresConfig(t *testing.T) {
	for _, source := range []string{auditSourcePostgres, auditSourceRedis, "kafka"} {
		var out bytes.Buffer
		if err := runAudit(context.Background(), &out, &config.Config{}, source, 5); err == nil {
			t.Errorf("%s - runAudit(%q) with empty config should fail", mainTestPrefix, source)
		}
		if out.Len() != 0 {
			t.Errorf("%s - runAudit(%q) wrote %q", mainTestPrefix, source, out.String())
		}
	}
}

func TestRunAgents(t *testing.T) {
	t.Setenv("ORCHESTRATOR_CATALOG_FILE", "")
	var out bytes.Buffer
	if err := runAgents(&out, &config.Config{SynthSeed: 1, CatalogFile: filepath.Join(t.TempDir(), "none.yaml")}); err != nil {
		t.Fatalf("%s - runAgents: %v", mainTestPrefix, err)
	}
	for _, want := range []string{"AGENT", "sales_agent", "sales_outreach", "legal_appointment"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("%s - output missing %q:\n%s", mainTestPrefix, want, out.String())
		}
	}
}

func TestRunCheck(t *testing.T) {
	t.Setenv("ORCHESTRATOR_CATALOG_FILE", "")
	cfg := &config.Config{
		HTTPPort:        8080,
		RequestTimeout:  time.Second,
		ShutdownTimeout: time.Second,
		AuditTimeout:    time.Second,
		AuditLogPath:    "audit_log.jsonl",
		CatalogFile:     filepath.Join(t.TempDir(), "none.yaml"),
	}

	var out bytes.Buffer
	if err := runCheck(&out, cfg); err != nil {
		t.Fatalf("%s - runCheck: %v", mainTestPrefix, err)
	}
	if !strings.Contains(out.String(), "OK: 6 agents") {
		t.Errorf("%s - output = %q", mainTestPrefix, out.String())
	}

	cfg.AuditTimeout = 0
	if err := runCheck(&out, cfg); err == nil {
		t.Errorf("%s - expected invalid config to fail check", mainTestPrefix)
	}
}
