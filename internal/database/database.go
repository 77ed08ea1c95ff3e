// internal/database/database.go
//
// SQLite handle and schema migrations for results, accounts and daily scores.

package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

const dsnParams = "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"

// Open returns a handle on the SQLite file at file, creating its directory.
func Open(file string) (*sql.DB, error) {
	if dir := filepath.Dir(file); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", file+dsnParams)
	if err != nil {
		return nil, err
	}
	// The DSN flags only apply to connections the driver opens itself.
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragmas: %w", err)
	}
	return db, nil
}

// Migrate runs every .sql file of fsys not yet listed in _migrations, in name order.
func Migrate(db *sql.DB, fsys fs.FS) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY)`); err != nil {
		return fmt.Errorf("migrations table: %w", err)
	}
	names, err := scripts(fsys)
	if err != nil {
		return err
	}
	for _, name := range names {
		applied, err := isApplied(db, name)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := apply(db, name, string(body)); err != nil {
			return err
		}
		log.Info().Str("migration", name).Msg("migration applied")
	}
	return nil
}

func scripts(fsys fs.FS) ([]string, error) {
	var names []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(path.Ext(p), ".sql") {
			names = append(names, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	slices.Sort(names)
	return names, nil
}

func isApplied(db *sql.DB, name string) (bool, error) {
	var one int
	err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, name).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("check %s: %w", name, err)
	}
	return true, nil
}

// apply runs one script and records it. Scripts that open their own
// transaction or switch foreign keys off cannot run inside ours.
func apply(db *sql.DB, name, body string) error {
	upper := strings.ToUpper(body)
	if strings.Contains(upper, "BEGIN TRANSACTION") || strings.Contains(strings.ReplaceAll(upper, " ", ""), "FOREIGN_KEYS=OFF") {
		if _, err := db.Exec(body); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
		_, err := db.Exec(`INSERT INTO _migrations(name) VALUES (?)`, name)
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(body); err != nil {
		return fmt.Errorf("apply %s: %w", name, err)
	}
	if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, name); err != nil {
		return fmt.Errorf("record %s: %w", name, err)
	}
	return tx.Commit()
}
