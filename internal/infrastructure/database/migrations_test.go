package database

import (
	"context"
	"io/fs"
	"testing"
	"testing/fstest"
)

var testMigrations = fstest.MapFS{
	"sql/20260301_120000_slots.up.sql":   {Data: []byte("CREATE TABLE test_slots (address INTEGER PRIMARY KEY);")},
	"sql/20260301_120000_slots.down.sql": {Data: []byte("DROP TABLE test_slots;")},
	"sql/README.md":                      {Data: []byte("ignored")},
}

func useMigrations(t *testing.T, fsys fs.FS, dir string) {
	t.Helper()
	origFS, origDir := Migrations, MigrationsDir
	Migrations, MigrationsDir = fsys, dir
	t.Cleanup(func() { Migrations, MigrationsDir = origFS, origDir })
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&n)
	if err != nil {
		t.Fatalf("sqlite_master query error = %v", err)
	}
	return n == 1
}

func TestMigrate(t *testing.T) {
	useMigrations(t, testMigrations, "sql")
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // test cleanup
	ctx := context.Background()

	_, pending, err := db.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(pending) != 1 || pending[0].Name != "slots" {
		t.Fatalf("pending = %+v, want one named slots", pending)
	}

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !tableExists(t, db, "test_slots") {
		t.Fatal("test_slots not created")
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	applied, pending, err := db.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 1 || len(pending) != 0 {
		t.Errorf("applied=%d pending=%d, want 1/0", len(applied), len(pending))
	}
}

func TestMigrateWithoutFilesystem(t *testing.T) {
	useMigrations(t, nil, ".")
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
}

func TestMigrateIgnoresDownFiles(t *testing.T) {
	useMigrations(t, fstest.MapFS{
		"20260301_120000_orphan.down.sql": {Data: []byte("DROP TABLE nothing_here;")},
	}, ".")
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	_, pending, err := db.MigrationStatus(context.Background())
	if err != nil || len(pending) != 0 {
		t.Errorf("pending = %+v, %v, want none", pending, err)
	}
}

func TestMigrateEmptyUp(t *testing.T) {
	useMigrations(t, fstest.MapFS{
		"20260301_120000_blank.up.sql": {Data: []byte("  \n")},
	}, ".")
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // test cleanup

	if err := db.Migrate(context.Background()); err == nil {
		t.Error("Migrate() accepted a migration without up SQL")
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		file    string
		version string
		name    string
		up      bool
		ok      bool
	}{
		{file: "20260301_120000_storage_slots.up.sql", version: "20260301_120000", name: "storage_slots", up: true, ok: true},
		{file: "20260301_120000_storage_slots.down.sql", version: "20260301_120000", name: "storage_slots", ok: true},
		{file: "20260301_120000.up.sql", version: "20260301_120000", name: "20260301_120000", up: true, ok: true},
		{file: "notes.txt"},
		{file: "20260301_120000_storage_slots.sql"},
		{file: "slots.up.sql"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			version, name, up, ok := parseMigrationFilename(tt.file)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if version != tt.version || name != tt.name || up != tt.up {
				t.Errorf("got (%q, %q, %v), want (%q, %q, %v)", version, name, up, tt.version, tt.name, tt.up)
			}
		})
	}
}
