// Package migrations embeds the SQL schema and applies it in file-name
// order, recording each applied file in schema_migrations.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed *.sql
var files embed.FS

// Names lists the embedded migration files in apply order.
func Names() ([]string, error) {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Applied returns the migrations already recorded in the database.
func Applied(ctx context.Context, db *pgxpool.Pool) (map[string]bool, error) {
	if err := ensureTable(ctx, db); err != nil {
		return nil, err
	}
	rows, err := db.Query(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	applied := make(map[string]bool, len(names))
	for _, n := range names {
		applied[n] = true
	}
	return applied, nil
}

// Apply runs every pending migration, each in its own transaction, and
// returns the names it applied.
func Apply(ctx context.Context, db *pgxpool.Pool) ([]string, error) {
	names, err := Names()
	if err != nil {
		return nil, err
	}
	applied, err := Applied(ctx, db)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, name := range names {
		if applied[name] {
			continue
		}
		sql, err := files.ReadFile(name)
		if err != nil {
			return done, fmt.Errorf("read %s: %w", name, err)
		}
		err = pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(sql)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name)
			return err
		})
		if err != nil {
			return done, fmt.Errorf("apply %s: %w", name, err)
		}
		done = append(done, name)
	}
	return done, nil
}

func ensureTable(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name       TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
	return err
}
