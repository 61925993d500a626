// Package services holds the per-resource policies plugged into the
// generic pipeline: validation rules, ownership stamping, role checks and
// credential provisioning. Each resource gets a Spec describing its wire
// surface and a Hooks implementation enforcing its rules.
package services

import (
	"github.com/xqin/go-blog-backend/internal/config"
	"github.com/xqin/go-blog-backend/internal/crud"
	"github.com/xqin/go-blog-backend/internal/domain"
)

// checkName runs the shared name rules: present, within max characters, and
// unique among records of T (excluding excludeID on update).
func checkName[T any](hc *crud.Context, p crud.Payload, max int, excludeID uint) error {
	if err := crud.ValidateNotEmpty(p.Value("name"), "name"); err != nil {
		return err
	}
	name := p.String("name")
	if err := crud.ValidateMaxLength(name, "name", max); err != nil {
		return err
	}
	return crud.ValidateUnique[T](hc.Ctx, hc.Tx, "name", map[string]any{"name": name}, excludeID)
}

// stampOwner records the authenticated caller as the owner of a new record.
// Pass-listed routes carry no principal and leave the owner unset.
func stampOwner(hc *crud.Context, p crud.Payload) crud.Payload {
	if hc.Principal == nil {
		return p
	}
	return p.Merge(map[string]any{"owner": hc.Principal.ProfileID})
}

// contentHooks is the policy shared by the plain content resources: the
// name rules on create and update, plus owner stamping on create.
type contentHooks[T domain.Entity] struct {
	crud.NopHooks[T]
	cfg config.CRUDConfig
}

func (h contentHooks[T]) BeforeCreate(hc *crud.Context, p crud.Payload) (crud.Payload, error) {
	if err := checkName[T](hc, p, h.cfg.VarcharMax, 0); err != nil {
		return nil, err
	}
	return stampOwner(hc, p), nil
}

func (h contentHooks[T]) BeforeUpdate(hc *crud.Context, rec *T, p crud.Payload) (crud.Payload, error) {
	if !p.Has("name") {
		return p, nil
	}
	if err := checkName[T](hc, p, h.cfg.VarcharMax, (*rec).PrimaryKey()); err != nil {
		return nil, err
	}
	return p, nil
}
