package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"foodscan/db"

	"go.uber.org/zap"
)

// Embed migrations into the binary so `foodscan migrate` works regardless of the current
// working directory.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// applyMigrations runs every embedded migration not yet recorded in schema_migrations, in name
// order, each in its own transaction.
func applyMigrations(ctx context.Context, log *zap.Logger) error {
	if _, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		base := path.Base(name)
		var applied bool
		if err := db.Pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, base,
		).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", base, err)
		}
		if applied {
			log.Debug("migration already applied", zap.String("name", base))
			continue
		}

		sqlBytes, err := migrationsFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", base, err)
		}
		tx, err := db.Pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", base, err)
		}
		if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("apply migration %s: %w", base, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, base); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("record migration %s: %w", base, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit migration %s: %w", base, err)
		}
		log.Info("migration applied", zap.String("name", base))
	}
	return nil
}
