// Package crud – hook contract.
//
// Hooks are the pipeline's only extension point: every resource-specific
// business rule (name validation, role checks, credential provisioning) is
// expressed as a hook override, never by modifying the generic pipeline.
package crud

import (
	"context"

	"gorm.io/gorm"

	"github.com/xqin/go-blog-backend/internal/auth"
)

// Context is the state handed to every hook invocation. Tx is the
// transaction the surrounding operation runs in, so hook-initiated writes
// commit or roll back together with the operation itself. Principal is nil
// on pass-listed routes.
type Context struct {
	Ctx       context.Context
	Tx        *gorm.DB
	Principal *auth.Principal
}

// Hooks is the per-resource policy consulted at fixed points of the
// pipeline. Before hooks may veto the operation by returning an error,
// typically a *status.Error built by a validation helper. BeforeCreate and
// BeforeUpdate return the payload the pipeline should proceed with, letting
// a policy merge in server-computed fields without mutating the request.
type Hooks[T any] interface {
	BeforeCreate(hc *Context, p Payload) (Payload, error)
	AfterCreate(hc *Context, rec *T, p Payload) error
	BeforeUpdate(hc *Context, rec *T, p Payload) (Payload, error)
	AfterUpdate(hc *Context, rec *T) error
	BeforeDelete(hc *Context, rec *T) error
	AfterDelete(hc *Context, rec *T) error
}

// NopHooks is the all-defaults policy. Embed it and override only what the
// resource needs.
type NopHooks[T any] struct{}

func (NopHooks[T]) BeforeCreate(_ *Context, p Payload) (Payload, error)         { return p, nil }
func (NopHooks[T]) AfterCreate(_ *Context, _ *T, _ Payload) error               { return nil }
func (NopHooks[T]) BeforeUpdate(_ *Context, _ *T, p Payload) (Payload, error)   { return p, nil }
func (NopHooks[T]) AfterUpdate(_ *Context, _ *T) error                          { return nil }
func (NopHooks[T]) BeforeDelete(_ *Context, _ *T) error                         { return nil }
func (NopHooks[T]) AfterDelete(_ *Context, _ *T) error                          { return nil }
