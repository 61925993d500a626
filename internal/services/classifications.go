package services

import (
	"github.com/xqin/go-blog-backend/internal/config"
	"github.com/xqin/go-blog-backend/internal/crud"
	"github.com/xqin/go-blog-backend/internal/domain"
)

// ClassificationSpec declares the classification wire surface. parent maps
// to the parent_id column.
func ClassificationSpec() crud.Spec {
	return crud.Spec{
		Fields:         []string{"name", "parent", "level", "is_root", "priority", "created", "modified"},
		ContainsFields: []string{"name"},
		DefaultOrder:   "-created",
		Columns:        map[string]string{"parent": "parent_id"},
	}
}

// ClassificationHooks enforces the shared name rules for categories.
type ClassificationHooks struct {
	contentHooks[domain.Classification]
}

// NewClassificationHooks builds the classification policy.
func NewClassificationHooks(cfg config.CRUDConfig) ClassificationHooks {
	return ClassificationHooks{contentHooks[domain.Classification]{cfg: cfg}}
}
