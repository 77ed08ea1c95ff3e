package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/robalobadob/memory-game/assets"
)

func TestMigrate_EmbeddedSchemaIsIdempotent(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "nested", "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if err := Migrate(db, assets.Migrations()); err != nil {
			t.Fatalf("migrate pass %d: %v", i, err)
		}
	}
	for _, table := range []string{"users", "results", "daily_results"} {
		var name string
		if err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name); err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("_migrations rows = %d", n)
	}
}

func TestMigrate_FailingScriptRollsBack(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	fsys := fstest.MapFS{
		"001_ok.sql":  {Data: []byte(`CREATE TABLE ok (id INTEGER);`)},
		"002_bad.sql": {Data: []byte(`CREATE TABLE broken (;`)},
	}
	if err := Migrate(db, fsys); err == nil {
		t.Fatal("expected error")
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM _migrations WHERE name='002_bad.sql'`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatal("failed migration recorded as applied")
	}
}

func TestMigrate_SelfManagedScriptRunsOutsideTransaction(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	fsys := fstest.MapFS{
		"001_rebuild.sql": {Data: []byte(`PRAGMA foreign_keys = OFF;
BEGIN TRANSACTION;
CREATE TABLE rebuilt (id INTEGER);
COMMIT;
PRAGMA foreign_keys = ON;`)},
	}
	if err := Migrate(db, fsys); err != nil {
		t.Fatal(err)
	}
	if err := Migrate(db, fsys); err != nil {
		t.Fatalf("second run: %v", err)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM _migrations WHERE name='001_rebuild.sql'`).Scan(&n); err != nil || n != 1 {
		t.Fatalf("recorded %d times, err %v", n, err)
	}
}
