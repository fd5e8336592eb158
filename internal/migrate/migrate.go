package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const bookkeepingTable = "schema_migrations"

// Runner applies .sql files from a directory in lexicographic order, once
// each, recording applied names in a bookkeeping table. Each file runs in its
// own transaction.
type Runner struct {
	db  *sql.DB
	dir string
}

func NewRunner(db *sql.DB, dir string) *Runner {
	return &Runner{db: db, dir: dir}
}

// Apply runs all pending migrations and returns the names applied.
func (r *Runner) Apply(ctx context.Context) ([]string, error) {
	if _, err := r.db.ExecContext(ctx,
		`create table if not exists `+bookkeepingTable+` (
			name text primary key,
			applied_at timestamptz not null default now()
		)`); err != nil {
		return nil, fmt.Errorf("ensure bookkeeping table: %w", err)
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var applied []string
	for _, name := range names {
		done, err := r.isApplied(ctx, name)
		if err != nil {
			return applied, err
		}
		if done {
			continue
		}
		if err := r.applyOne(ctx, name); err != nil {
			return applied, fmt.Errorf("apply %s: %w", name, err)
		}
		applied = append(applied, name)
	}
	return applied, nil
}

func (r *Runner) isApplied(ctx context.Context, name string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`select count(1) from `+bookkeepingTable+` where name=$1`, name).Scan(&count)
	return count > 0, err
}

func (r *Runner) applyOne(ctx context.Context, name string) error {
	raw, err := os.ReadFile(filepath.Join(r.dir, name))
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(raw)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`insert into `+bookkeepingTable+`(name) values($1)`, name); err != nil {
		return err
	}
	return tx.Commit()
}
