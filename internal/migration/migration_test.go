package migration

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/stronghabit/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func migrationFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

func TestGetCurrentVersion(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, migrationFS(map[string]string{
		"001_test.sql": "CREATE TABLE test (id INTEGER);",
	}), SQLite)

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0, got %d", version)
	}

	if err := runner.SetVersion(5); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}

	version, err = runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 5 {
		t.Errorf("expected version 5, got %d", version)
	}
}

func TestReadMigrationFiles(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, migrationFS(map[string]string{
		"002_update.sql":  "ALTER TABLE test1 ADD COLUMN name TEXT;",
		"001_init.sql":    "CREATE TABLE test1 (id INTEGER);",
		"003_another.sql": "CREATE TABLE test2 (id INTEGER);",
		"README.md":       "ignored",
	}), SQLite)

	migrations, err := runner.ReadMigrationFiles()
	if err != nil {
		t.Fatalf("ReadMigrationFiles failed: %v", err)
	}

	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}

	wantNames := []string{"init", "update", "another"}
	for i, m := range migrations {
		if m.Version != i+1 || m.Name != wantNames[i] {
			t.Errorf("migration %d: got version %d name %q", i, m.Version, m.Name)
		}
	}
}

func TestApplyMigrationsFromScratch(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, migrationFS(map[string]string{
		"001_init.sql":  "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);",
		"002_posts.sql": "CREATE TABLE posts (id INTEGER PRIMARY KEY, user_id INTEGER, content TEXT);",
	}), SQLite)

	var logged []string
	count, err := runner.ApplyMigrations(func(s string) { logged = append(logged, s) })
	if err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 migrations applied, got %d", count)
	}
	if len(logged) == 0 {
		t.Error("expected progress to be logged")
	}

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}

	for _, table := range []string{"users", "posts"} {
		var n int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n)
		if err != nil || n != 1 {
			t.Errorf("%s table was not created", table)
		}
	}
}

func TestApplyMigrationsNoOp(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, migrationFS(map[string]string{
		"001_init.sql": "CREATE TABLE users (id INTEGER PRIMARY KEY);",
	}), SQLite)

	if _, err := runner.ApplyMigrations(nil); err != nil {
		t.Fatalf("first ApplyMigrations failed: %v", err)
	}

	count, err := runner.ApplyMigrations(nil)
	if err != nil {
		t.Fatalf("second ApplyMigrations failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 migrations applied, got %d", count)
	}
}

func TestMigrationRollbackOnError(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, migrationFS(map[string]string{
		"001_init.sql":   "CREATE TABLE users (id INTEGER PRIMARY KEY);",
		"002_broken.sql": "CREATE TABLE broken (id INTEGER PRIMARY KEY); THIS IS NOT SQL;",
	}), SQLite)

	count, err := runner.ApplyMigrations(nil)
	if err == nil {
		t.Fatal("expected error from broken migration")
	}
	if count != 1 {
		t.Errorf("expected 1 migration applied before failure, got %d", count)
	}

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version to stay at 1, got %d", version)
	}
}

func TestValidateVersionNewerDatabase(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, migrationFS(map[string]string{
		"001_init.sql": "CREATE TABLE users (id INTEGER PRIMARY KEY);",
	}), SQLite)

	if err := runner.SetVersion(9); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}

	err := runner.ValidateVersion()
	if err == nil || !strings.Contains(err.Error(), "newer than supported") {
		t.Errorf("expected newer-version error, got %v", err)
	}
}

func TestMigrationFilenameValidation(t *testing.T) {
	tests := map[string]string{
		"missing separator": "001init.sql",
		"non numeric":       "abc_init.sql",
		"zero version":      "000_init.sql",
	}

	for name, file := range tests {
		t.Run(name, func(t *testing.T) {
			runner := NewRunner(setupTestDB(t), migrationFS(map[string]string{file: "SELECT 1;"}), SQLite)
			if _, err := runner.ReadMigrationFiles(); err == nil {
				t.Errorf("expected error for %s", file)
			}
		})
	}
}

func TestDuplicateVersionDetection(t *testing.T) {
	runner := NewRunner(setupTestDB(t), migrationFS(map[string]string{
		"001_a.sql": "SELECT 1;",
		"01_b.sql":  "SELECT 1;",
	}), SQLite)

	if _, err := runner.ReadMigrationFiles(); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("expected duplicate version error, got %v", err)
	}
}

func TestEmbeddedSQLiteMigrationsApply(t *testing.T) {
	db := setupTestDB(t)
	sub, err := migrations.SQLite()
	if err != nil {
		t.Fatalf("failed to open embedded migrations: %v", err)
	}

	runner := NewRunner(db, sub, SQLite)
	if _, err := runner.ApplyMigrations(nil); err != nil {
		t.Fatalf("embedded migrations failed: %v", err)
	}

	if _, err := db.Exec("INSERT INTO kv (key, value, updated_at) VALUES ('k', 'v', '2024-01-01T00:00:00Z')"); err != nil {
		t.Errorf("kv table not usable after migrations: %v", err)
	}
}
