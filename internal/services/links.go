package services

import (
	"github.com/xqin/go-blog-backend/internal/config"
	"github.com/xqin/go-blog-backend/internal/crud"
	"github.com/xqin/go-blog-backend/internal/domain"
)

// LinkSpec declares the link wire surface.
func LinkSpec() crud.Spec {
	return crud.Spec{
		Fields:         []string{"name", "url", "desc", "created", "modified"},
		ContainsFields: []string{"name"},
		DefaultOrder:   "-created",
	}
}

// LinkHooks extends the shared content rules with a mandatory url.
type LinkHooks struct {
	contentHooks[domain.Link]
}

// NewLinkHooks builds the link policy.
func NewLinkHooks(cfg config.CRUDConfig) LinkHooks {
	return LinkHooks{contentHooks[domain.Link]{cfg: cfg}}
}

func (h LinkHooks) BeforeCreate(hc *crud.Context, p crud.Payload) (crud.Payload, error) {
	if err := crud.ValidateNotEmpty(p.Value("url"), "url"); err != nil {
		return nil, err
	}
	if err := crud.ValidateMaxLength(p.String("url"), "url", h.cfg.VarcharMax); err != nil {
		return nil, err
	}
	return h.contentHooks.BeforeCreate(hc, p)
}

func (h LinkHooks) BeforeUpdate(hc *crud.Context, rec *domain.Link, p crud.Payload) (crud.Payload, error) {
	if p.Has("url") {
		if err := crud.ValidateNotEmpty(p.Value("url"), "url"); err != nil {
			return nil, err
		}
		if err := crud.ValidateMaxLength(p.String("url"), "url", h.cfg.VarcharMax); err != nil {
			return nil, err
		}
	}
	return h.contentHooks.BeforeUpdate(hc, rec, p)
}
