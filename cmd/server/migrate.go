package main

import (
	"context"
	"fmt"
	"time"

	"github.com/canvasslabs/canvass/internal/config"
	"github.com/canvasslabs/canvass/internal/db"
)

// runMigrations applies the embedded schema for the configured backend.
// The memory driver has no schema; asking to migrate it is a usage error.
func runMigrations(cfg *config.Config) error {
	switch cfg.Store.Driver {
	case "sqlite":
		sqlDB, err := openSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		defer func() { _ = sqlDB.Close() }()
		return db.MigrateSQLite(sqlDB)
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		pool, err := db.NewPostgresPool(ctx, cfg.Postgres.DSN(), cfg.Postgres.MaxConns, cfg.Postgres.MinConns)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		return db.MigratePostgres(ctx, pool)
	default:
		return fmt.Errorf("store driver %q has no migrations", cfg.Store.Driver)
	}
}
