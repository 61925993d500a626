package services

import (
	"github.com/xqin/go-blog-backend/internal/config"
	"github.com/xqin/go-blog-backend/internal/crud"
	"github.com/xqin/go-blog-backend/internal/domain"
)

// LabelSpec declares the label wire surface.
func LabelSpec() crud.Spec {
	return crud.Spec{
		Fields:         []string{"name", "created", "modified"},
		ContainsFields: []string{"name"},
		DefaultOrder:   "-created",
	}
}

// LabelHooks enforces the label rules: name present, bounded, unique.
type LabelHooks struct {
	contentHooks[domain.Label]
}

// NewLabelHooks builds the label policy.
func NewLabelHooks(cfg config.CRUDConfig) LabelHooks {
	return LabelHooks{contentHooks[domain.Label]{cfg: cfg}}
}

// AfterDelete detaches the label from every article so no join rows
// outlive it.
func (h LabelHooks) AfterDelete(hc *crud.Context, rec *domain.Label) error {
	return hc.Tx.Exec("DELETE FROM article_labels WHERE label_id = ?", rec.ID).Error
}
