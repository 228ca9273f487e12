package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var embeddedMigrations embed.FS

type migrationFile struct {
	name string
	data []byte
}

func loadMigrations(driver string) ([]migrationFile, error) {
	dir := path.Join("migrations", driver)
	entries, err := embeddedMigrations.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded migrations for %s: %w", driver, err)
	}
	files := make([]migrationFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		content, err := embeddedMigrations.ReadFile(path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read embedded migration %s: %w", entry.Name(), err)
		}
		files = append(files, migrationFile{name: entry.Name(), data: content})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })
	return files, nil
}

// MigrateSQLite applies the embedded SQLite schema in filename order.
func MigrateSQLite(db *sql.DB) error {
	files, err := loadMigrations("sqlite")
	if err != nil {
		return err
	}
	for _, mf := range files {
		if _, err := db.Exec(string(mf.data)); err != nil {
			return fmt.Errorf("exec migration %s: %w", mf.name, err)
		}
	}
	return nil
}

// MigratePostgres applies the embedded PostgreSQL schema in filename order.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	files, err := loadMigrations("postgres")
	if err != nil {
		return err
	}
	for _, mf := range files {
		if _, err := pool.Exec(ctx, string(mf.data)); err != nil {
			return fmt.Errorf("exec migration %s: %w", mf.name, err)
		}
	}
	return nil
}
