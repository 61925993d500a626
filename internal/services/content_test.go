package services

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/xqin/go-blog-backend/internal/auth"
	"github.com/xqin/go-blog-backend/internal/config"
	"github.com/xqin/go-blog-backend/internal/crud"
	"github.com/xqin/go-blog-backend/internal/domain"
	"github.com/xqin/go-blog-backend/internal/repo"
	"github.com/xqin/go-blog-backend/internal/status"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "svc.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func testCRUDConfig() config.CRUDConfig {
	return config.CRUDConfig{
		DefaultPageSize: 20,
		MaxPageSize:     100,
		VarcharMax:      255,
		NameMaxLen:      20,
	}
}

func hctx(db *gorm.DB, p *auth.Principal) *crud.Context {
	return &crud.Context{Ctx: context.Background(), Tx: db, Principal: p}
}

func TestLabelHooks_CreateRequiresName(t *testing.T) {
	db := newTestDB(t)
	h := NewLabelHooks(testCRUDConfig())

	for _, p := range []crud.Payload{
		{},
		{"name": nil},
		{"name": "   "},
	} {
		if _, err := h.BeforeCreate(hctx(db, nil), p); !status.Is(err, status.ParamIsNull) {
			t.Fatalf("payload %v: want ParamIsNull, got %v", p, err)
		}
	}
}

func TestLabelHooks_CreateNameTooLong(t *testing.T) {
	db := newTestDB(t)
	h := NewLabelHooks(testCRUDConfig())

	p := crud.Payload{"name": strings.Repeat("x", 256)}
	_, err := h.BeforeCreate(hctx(db, nil), p)
	if !status.Is(err, status.ParamLength) {
		t.Fatalf("want ParamLength, got %v", err)
	}
	if se := status.From(err); se.Param != "name" {
		t.Fatalf("want param name, got %q", se.Param)
	}
}

func TestLabelHooks_CreateDuplicateName(t *testing.T) {
	db := newTestDB(t)
	if err := db.Create(&domain.Label{Name: "golang"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	h := NewLabelHooks(testCRUDConfig())

	_, err := h.BeforeCreate(hctx(db, nil), crud.Payload{"name": "golang"})
	if !status.Is(err, status.ParamDuplicated) {
		t.Fatalf("want ParamDuplicated, got %v", err)
	}
}

func TestLabelHooks_CreateStampsOwner(t *testing.T) {
	db := newTestDB(t)
	h := NewLabelHooks(testCRUDConfig())

	out, err := h.BeforeCreate(hctx(db, &auth.Principal{ProfileID: 7, Role: domain.RoleAdmin}), crud.Payload{"name": "go"})
	if err != nil {
		t.Fatalf("BeforeCreate: %v", err)
	}
	if got, ok := out.Value("owner").(uint); !ok || got != 7 {
		t.Fatalf("want owner 7, got %v", out.Value("owner"))
	}
}

func TestContentHooks_UpdateAllowsOwnName(t *testing.T) {
	db := newTestDB(t)
	rec := domain.Label{Name: "golang"}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	h := NewLabelHooks(testCRUDConfig())

	// Re-submitting the record's own name must not count as a duplicate.
	if _, err := h.BeforeUpdate(hctx(db, nil), &rec, crud.Payload{"name": "golang"}); err != nil {
		t.Fatalf("BeforeUpdate: %v", err)
	}
}

func TestContentHooks_UpdateRejectsTakenName(t *testing.T) {
	db := newTestDB(t)
	a := domain.Label{Name: "golang"}
	b := domain.Label{Name: "python"}
	for _, l := range []*domain.Label{&a, &b} {
		if err := db.Create(l).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	h := NewLabelHooks(testCRUDConfig())

	_, err := h.BeforeUpdate(hctx(db, nil), &b, crud.Payload{"name": "golang"})
	if !status.Is(err, status.ParamDuplicated) {
		t.Fatalf("want ParamDuplicated, got %v", err)
	}
}

func TestContentHooks_UpdateWithoutNameSkipsRules(t *testing.T) {
	db := newTestDB(t)
	rec := domain.Link{Name: "blog", URL: "https://example.com"}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	h := NewLinkHooks(testCRUDConfig())

	if _, err := h.BeforeUpdate(hctx(db, nil), &rec, crud.Payload{"desc": "updated"}); err != nil {
		t.Fatalf("BeforeUpdate: %v", err)
	}
}

func TestLinkHooks_CreateRequiresURL(t *testing.T) {
	db := newTestDB(t)
	h := NewLinkHooks(testCRUDConfig())

	_, err := h.BeforeCreate(hctx(db, nil), crud.Payload{"name": "blog"})
	if !status.Is(err, status.ParamIsNull) {
		t.Fatalf("want ParamIsNull, got %v", err)
	}
	if se := status.From(err); se.Param != "url" {
		t.Fatalf("want param url, got %q", se.Param)
	}
}

func TestLinkHooks_UpdateEmptyURLRejected(t *testing.T) {
	db := newTestDB(t)
	rec := domain.Link{Name: "blog", URL: "https://example.com"}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	h := NewLinkHooks(testCRUDConfig())

	_, err := h.BeforeUpdate(hctx(db, nil), &rec, crud.Payload{"url": ""})
	if !status.Is(err, status.ParamIsNull) {
		t.Fatalf("want ParamIsNull, got %v", err)
	}
}

func TestSpecs_DeclareSubstringName(t *testing.T) {
	for _, spec := range []crud.Spec{
		LabelSpec(), LinkSpec(), ClassificationSpec(), ArticleSpec(), MenuSpec(), UserSpec(),
	} {
		found := false
		for _, f := range spec.ContainsFields {
			if f == "name" {
				found = true
			}
		}
		if !found {
			t.Fatalf("spec %+v: name not declared as substring filter", spec)
		}
	}
}
