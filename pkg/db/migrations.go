package db

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

const migrationsLogPrefix = "db:migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// LoadMigrationFiles reads all .sql files from dir, sorted by name, and returns their contents.
func LoadMigrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to read migration dir %s: %w", migrationsLogPrefix, dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".sql" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var out []string
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to read %s: %w", migrationsLogPrefix, path, err)
		}
		out = append(out, string(data))
	}
	slog.Info(fmt.Sprintf("%s - Loaded %d migration files from %s", migrationsLogPrefix, len(out), dir))
	return out, nil
}

// EmbeddedMigrations returns the migrations compiled into the binary, sorted by name.
func EmbeddedMigrations() ([]string, error) {
	names, err := fs.Glob(embeddedMigrations, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("%s - failed to list embedded migrations: %w", migrationsLogPrefix, err)
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, name := range names {
		data, err := embeddedMigrations.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to read embedded %s: %w", migrationsLogPrefix, name, err)
		}
		out = append(out, string(data))
	}
	return out, nil
}

// LoadMigrations reads migrations from dir, falling back to the embedded set
// when dir is empty or does not exist.
func LoadMigrations(dir string) ([]string, error) {
	if dir == "" {
		return EmbeddedMigrations()
	}
	files, err := LoadMigrationFiles(dir)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info(fmt.Sprintf("%s - Migration dir %s not found, using embedded migrations", migrationsLogPrefix, dir))
		return EmbeddedMigrations()
	}
	return files, err
}
