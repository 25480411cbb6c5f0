package db

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

// Embed migrations into the binary so startup works regardless of the
// current working directory.
//
//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

type migration struct {
	Name string
	SQL  string
}

const createMigrationsTableSQL = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		migration_name TEXT PRIMARY KEY,
		applied_at     TEXT NOT NULL
	)`

// loadMigrations returns the dialect's migrations in file name order.
func loadMigrations(dialect string) ([]migration, error) {
	names, err := fs.Glob(migrationsFS, "migrations/"+dialect+"/*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	out := make([]migration, 0, len(names))
	for _, name := range names {
		b, err := migrationsFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		out = append(out, migration{Name: name, SQL: string(b)})
	}
	return out, nil
}
