package db

import (
	"context"
	"io/fs"
	"strings"
	"testing"
)

func TestOpen_EmptyDSN(t *testing.T) {
	db, err := Open(context.Background(), "")
	if err == nil {
		_ = db.Close()
		t.Fatal("Open with empty DSN should return error")
	}
	if db != nil {
		t.Error("Open should return nil db when error occurs")
	}
}

func TestMigrationFS_Pairs(t *testing.T) {
	files, err := fs.Glob(MigrationFS, "migrations/*.sql")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no migrations embedded")
	}
	ups, downs := map[string]bool{}, map[string]bool{}
	for _, f := range files {
		switch {
		case strings.HasSuffix(f, ".up.sql"):
			ups[strings.TrimSuffix(f, ".up.sql")] = true
		case strings.HasSuffix(f, ".down.sql"):
			downs[strings.TrimSuffix(f, ".down.sql")] = true
		default:
			t.Errorf("unexpected file %s", f)
		}
	}
	for v := range ups {
		if !downs[v] {
			t.Errorf("%s has no down migration", v)
		}
	}
}
