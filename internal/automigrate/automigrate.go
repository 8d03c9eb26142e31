// Package automigrate applies pending schema migrations at server startup,
// so a fresh deploy only needs DATABASE_URL to come up with a usable schema.
// The schema_migrations table is shared with the standalone migrate command.
package automigrate

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

type migration struct {
	version int
	name    string
	path    string
}

// Run applies every up migration under dir that is not yet recorded in
// schema_migrations, in version order, each inside its own transaction.
func Run(db *sql.DB, dir string) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return err
	}

	pending, err := pendingMigrations(dir, applied)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		log.Printf("database schema up to date (%d migrations applied)", len(applied))
		return nil
	}

	for _, m := range pending {
		if err := apply(db, m); err != nil {
			return err
		}
		log.Printf("applied migration %03d (%s)", m.version, m.name)
	}
	return nil
}

func appliedVersions(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan migration version: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func pendingMigrations(dir string, applied map[int]bool) ([]migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var pending []migration
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			continue
		}
		if !applied[version] {
			pending = append(pending, migration{
				version: version,
				name:    name,
				path:    filepath.Join(dir, name),
			})
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].version < pending[j].version })
	return pending, nil
}

func apply(db *sql.DB, m migration) error {
	script, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("read %s: %w", m.name, err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx for %s: %w", m.name, err)
	}
	if _, err := tx.Exec(string(script)); err != nil {
		tx.Rollback()
		return fmt.Errorf("apply %s: %w", m.name, err)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES ($1)", m.version); err != nil {
		tx.Rollback()
		return fmt.Errorf("record %s: %w", m.name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", m.name, err)
	}
	return nil
}
