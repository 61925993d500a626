package repo

import (
	"path/filepath"
	"testing"

	"github.com/xqin/go-blog-backend/internal/domain"
)

func TestOpenSQLite_CreatesAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	for _, m := range []any{
		&domain.Account{}, &domain.UserProfile{}, &domain.TokenGroup{},
		&domain.Menu{}, &domain.Label{}, &domain.Link{},
		&domain.Classification{}, &domain.Article{},
	} {
		if !db.Migrator().HasTable(m) {
			t.Errorf("missing table for %T", m)
		}
	}
}

func TestOpenSQLite_MissingParentDir(t *testing.T) {
	if _, err := OpenSQLite(filepath.Join(t.TempDir(), "nope", "app.db")); err == nil {
		t.Fatal("expected error for missing parent directory")
	}
}
