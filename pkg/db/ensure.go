package db

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ensureLogPrefix = "db:ensure"

// maintenanceDB is the database EnsureDatabase connects to before creating the target.
const maintenanceDB = "postgres"

// safeDBName matches allowed database names (alphanumeric and underscore only).
var safeDBName = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// WithDatabaseName returns databaseURL pointed at dbName, keeping host,
// credentials and query. dbName must be a plain identifier.
func WithDatabaseName(databaseURL, dbName string) (string, error) {
	if err := checkDBName(dbName); err != nil {
		return "", err
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("%s - invalid database URL: %w", ensureLogPrefix, err)
	}
	u.Path = "/" + dbName
	return u.String(), nil
}

// EnsureDatabase creates the database named in databaseURL if it does not
// exist, so `orchestrator ensure-db` can prepare a scratch audit database.
func EnsureDatabase(ctx context.Context, databaseURL string) error {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return fmt.Errorf("%s - invalid database URL: %w", ensureLogPrefix, err)
	}
	dbName := strings.TrimSpace(strings.TrimPrefix(u.Path, "/"))
	if err := checkDBName(dbName); err != nil {
		return err
	}

	config, err := pgxpool.ParseConfig(buildPostgresURL(u))
	if err != nil {
		return fmt.Errorf("%s - failed to parse postgres URL: %w", ensureLogPrefix, err)
	}
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	config.MaxConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("%s - failed to connect to %s: %w", ensureLogPrefix, maintenanceDB, err)
	}
	defer pool.Close()

	var exists bool
	err = pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, dbName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("%s - failed to check database: %w", ensureLogPrefix, err)
	}
	if exists {
		slog.Info(fmt.Sprintf("%s - Database %q already exists", ensureLogPrefix, dbName))
		return nil
	}

	slog.Info(fmt.Sprintf("%s - Creating database %q", ensureLogPrefix, dbName))
	if _, err := pool.Exec(ctx, "CREATE DATABASE "+quoteIdent(dbName)); err != nil {
		return fmt.Errorf("%s - CREATE DATABASE %s failed: %w", ensureLogPrefix, dbName, err)
	}
	return nil
}

func checkDBName(name string) error {
	if name == "" {
		return fmt.Errorf("%s - database name is empty", ensureLogPrefix)
	}
	if !safeDBName.MatchString(name) {
		return fmt.Errorf("%s - database name %q contains invalid characters", ensureLogPrefix, name)
	}
	return nil
}

func buildPostgresURL(u *url.URL) string {
	maintenance := *u
	maintenance.Path = "/" + maintenanceDB
	return maintenance.String()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
