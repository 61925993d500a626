package services

import (
	"github.com/xqin/go-blog-backend/internal/config"
	"github.com/xqin/go-blog-backend/internal/crud"
	"github.com/xqin/go-blog-backend/internal/domain"
)

// MenuSpec declares the menu wire surface.
func MenuSpec() crud.Spec {
	return crud.Spec{
		Fields:         []string{"name", "parent", "url", "level", "is_root", "created", "modified"},
		ContainsFields: []string{"name"},
		DefaultOrder:   "-created",
		Columns:        map[string]string{"parent": "parent_id"},
	}
}

// MenuHooks enforces the shared name rules for navigation entries.
type MenuHooks struct {
	contentHooks[domain.Menu]
}

// NewMenuHooks builds the menu policy.
func NewMenuHooks(cfg config.CRUDConfig) MenuHooks {
	return MenuHooks{contentHooks[domain.Menu]{cfg: cfg}}
}
