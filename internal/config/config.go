// Package config provides orchestrator configuration loaded from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const logPrefix = "config:LoadConfig"

// Config holds agent-orchestrator configuration.
type Config struct {
	// HTTP API (ORCHESTRATOR_HTTP_ADDR preferred, e.g. "0.0.0.0:8080")
	HTTPAddr        string        `envconfig:"ORCHESTRATOR_HTTP_ADDR"`
	HTTPPort        int           `envconfig:"HTTP_PORT" default:"8080"`
	APIKey          string        `envconfig:"ORCHESTRATOR_API_KEY"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"25s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	// Audit trail
	AuditLogPath string        `envconfig:"ORCHESTRATOR_AUDIT_LOG" default:"audit_log.jsonl"`
	AuditTimeout time.Duration `envconfig:"AUDIT_TIMEOUT" default:"5s"`

	// Database mirror of the audit trail (empty = disabled)
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"false"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"migrations"`

	// Redis stream mirror of the audit trail (empty address = disabled)
	AuditRedisAddr     string `envconfig:"AUDIT_REDIS_ADDR"`
	AuditRedisPassword string `envconfig:"AUDIT_REDIS_PASSWORD"`
	AuditRedisDB       int    `envconfig:"AUDIT_REDIS_DB" default:"0"`
	AuditRedisStream   string `envconfig:"AUDIT_REDIS_STREAM" default:"orchestrator:audit"`

	// COMMS: task subject and dispatch events (empty URL = disabled)
	COMMSURL             string `envconfig:"COMMS_URL"`
	COMMSName            string `envconfig:"SERVICE_NAME" default:"agent-orchestrator"`
	TaskSubject          string `envconfig:"ORCHESTRATOR_TASK_SUBJECT" default:"orchestrator.tasks.v1"`
	DispatchEventSubject string `envconfig:"ORCHESTRATOR_DISPATCH_EVENT_SUBJECT"`

	// Marketplace catalog and synthetic data
	CatalogFile string `envconfig:"ORCHESTRATOR_CATALOG_FILE"`
	SynthSeed   uint64 `envconfig:"SYNTH_SEED" default:"0"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("%s - %w", logPrefix, err)
	}
	return &c, nil
}

// ListenAddr returns the HTTP listen address, preferring HTTPAddr over HTTPPort.
func (c *Config) ListenAddr() string {
	if c.HTTPAddr != "" {
		return c.HTTPAddr
	}
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// SlogLevel maps LOG_LEVEL onto a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidateForServe checks required config when running the orchestrator server.
func (c *Config) ValidateForServe() error {
	if c.HTTPAddr == "" && (c.HTTPPort <= 0 || c.HTTPPort > 65535) {
		return fmt.Errorf("%s - HTTP_PORT must be between 1 and 65535", logPrefix)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s - REQUEST_TIMEOUT must be positive", logPrefix)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%s - SHUTDOWN_TIMEOUT must be positive", logPrefix)
	}
	if c.AuditTimeout <= 0 {
		return fmt.Errorf("%s - AUDIT_TIMEOUT must be positive", logPrefix)
	}
	if strings.TrimSpace(c.AuditLogPath) == "" {
		return fmt.Errorf("%s - ORCHESTRATOR_AUDIT_LOG is required", logPrefix)
	}
	if c.RunMigrations && c.DatabaseURL == "" {
		return fmt.Errorf("%s - RUN_MIGRATIONS requires DATABASE_URL", logPrefix)
	}
	if c.COMMSURL != "" && c.TaskSubject == "" {
		return fmt.Errorf("%s - ORCHESTRATOR_TASK_SUBJECT is required when COMMS_URL is set", logPrefix)
	}
	return nil
}

// ValidateForDB checks required config when running DB-dependent commands (migrate, ensure-db).
func (c *Config) ValidateForDB() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s - DATABASE_URL is required", logPrefix)
	}
	return nil
}
