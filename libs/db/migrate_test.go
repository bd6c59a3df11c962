package db

import (
	"testing"
	"testing/fstest"
)

func TestMigratorLoadOrdersAndSkips(t *testing.T) {
	files := fstest.MapFS{
		"sql/002_bookings.sql":     {Data: []byte("CREATE TABLE b();")},
		"sql/001_availability.sql": {Data: []byte("CREATE TABLE a();")},
		"sql/readme.md":            {Data: []byte("notes")},
		"sql/seed.sql":             {Data: []byte("SELECT 1;")},
	}
	m := NewMigrator(nil, files, "sql", nil)

	got, err := m.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(got))
	}
	if got[0].Version != 1 || got[1].Version != 2 {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].SQL != "CREATE TABLE a();" {
		t.Fatalf("unexpected sql: %q", got[0].SQL)
	}
}

func TestMigratorLoadRejectsDuplicateVersions(t *testing.T) {
	files := fstest.MapFS{
		"sql/001_a.sql": {Data: []byte("SELECT 1;")},
		"sql/001_b.sql": {Data: []byte("SELECT 2;")},
	}
	if _, err := NewMigrator(nil, files, "sql", nil).Load(); err == nil {
		t.Fatalf("expected duplicate version error")
	}
}
