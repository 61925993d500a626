// Package crud – the generic resource handler.
//
// One Handler instance serves one resource type. Each operation is a
// one-shot pipeline: authentication has already happened in middleware, the
// resource's before hook runs (inside the operation's transaction), the
// persistence step executes, the after hook runs, and the result is wrapped
// in the response envelope. A *status.Error raised anywhere in the pipeline
// is converted to an error envelope at this boundary; any other failure
// degrades to the unknown-error envelope. Nothing below this boundary is
// permitted to swallow a status error.
package crud

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/xqin/go-blog-backend/internal/config"
	"github.com/xqin/go-blog-backend/internal/http/middleware"
	"github.com/xqin/go-blog-backend/internal/repo"
	"github.com/xqin/go-blog-backend/internal/status"
	"github.com/xqin/go-blog-backend/internal/utils"
)

// ErrRecordNotFound is the boundary signal for a missing primary key on
// retrieve, update or delete. The status table reserves no dedicated code
// for it, so it surfaces as the generic error envelope.
var ErrRecordNotFound = status.Errorf(status.Unknown, "record not found")

// wireColumns maps the wire names every resource shares to their columns.
var wireColumns = map[string]string{
	"created":  "created_at",
	"modified": "updated_at",
	"owner":    "owner_id",
}

// Spec declares a resource's wire surface: which fields may be filtered,
// ordered and written, which of those match by substring, and the order
// applied when the client requests none.
type Spec struct {
	// Fields lists the resource's declared wire field names. Query
	// parameters outside this list are silently ignored, as are payload
	// keys on update.
	Fields []string
	// ContainsFields is the subset of Fields matched by substring instead
	// of exact equality.
	ContainsFields []string
	// ReadOnly lists fields excluded from updates. created and modified
	// are always read-only.
	ReadOnly []string
	// DefaultOrder names the field ordering list responses when no order
	// parameter is sent; a leading '-' means descending.
	DefaultOrder string
	// Columns overrides the wire-name to column mapping for fields whose
	// column differs (e.g. "parent" to "parent_id").
	Columns map[string]string
	// Relations maps a wire filter name to a builder producing the WHERE
	// fragment for it, for filters that reach beyond the model's own
	// table (e.g. association membership). Relation names are filterable
	// but never orderable or writable through the pipeline.
	Relations map[string]func(value string) (string, []any)
}

func (s Spec) has(field string) bool {
	if field == "id" {
		return true
	}
	for _, f := range s.Fields {
		if f == field {
			return true
		}
	}
	return false
}

func (s Spec) isContains(field string) bool {
	for _, f := range s.ContainsFields {
		if f == field {
			return true
		}
	}
	return false
}

func (s Spec) isReadOnly(field string) bool {
	if field == "created" || field == "modified" {
		return true
	}
	for _, f := range s.ReadOnly {
		if f == field {
			return true
		}
	}
	return false
}

// column resolves a wire field name to its database column.
func (s Spec) column(field string) string {
	if c, ok := s.Columns[field]; ok {
		return c
	}
	if c, ok := wireColumns[field]; ok {
		return c
	}
	return field
}

// Page is the list response body.
type Page struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// Handler is the generic pipeline bound to one resource type. All limits
// come from the injected configuration; the handler reads no globals.
type Handler[T any] struct {
	db    *gorm.DB
	cfg   config.CRUDConfig
	spec  Spec
	hooks Hooks[T]
}

// New builds a Handler for T. A nil hooks installs the no-op policy.
func New[T any](db *gorm.DB, cfg config.CRUDConfig, spec Spec, hooks Hooks[T]) *Handler[T] {
	if hooks == nil {
		hooks = NopHooks[T]{}
	}
	return &Handler[T]{db: db, cfg: cfg, spec: spec, hooks: hooks}
}

// Mount registers the five REST routes for the resource under path.
func (h *Handler[T]) Mount(rg *gin.RouterGroup, path string) {
	rg.POST("/"+path, h.Create)
	rg.GET("/"+path, h.List)
	rg.GET("/"+path+"/:id", h.Retrieve)
	rg.PUT("/"+path+"/:id", h.Update)
	rg.PATCH("/"+path+"/:id", h.Update)
	rg.DELETE("/"+path+"/:id", h.Delete)
}

// hookCtx assembles the per-operation hook context.
func hookCtx(c *gin.Context, tx *gorm.DB) *Context {
	return &Context{
		Ctx:       c.Request.Context(),
		Tx:        tx,
		Principal: middleware.PrincipalFrom(c),
	}
}

// Create runs the create pipeline. The before hook, the insert and any
// side writes the hooks perform share one transaction: either everything
// commits or nothing does.
func (h *Handler[T]) Create(c *gin.Context) {
	p, err := bindPayload(c)
	if err != nil {
		respondErr(c, err)
		return
	}

	var created *T
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		hc := hookCtx(c, tx)
		p, err := h.hooks.BeforeCreate(hc, p)
		if err != nil {
			return err
		}
		var rec T
		if err := p.decodeInto(&rec); err != nil {
			return err
		}
		if err := repo.Create(hc.Ctx, tx, &rec); err != nil {
			return err
		}
		if err := h.hooks.AfterCreate(hc, &rec, p); err != nil {
			return err
		}
		created = &rec
		return nil
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, created)
}

// List serves the filtered, ordered, paginated collection.
func (h *Handler[T]) List(c *gin.Context) {
	ctx := c.Request.Context()
	q := h.listQuery(c)

	total, err := repo.Count[T](ctx, h.db, q)
	if err != nil {
		respondErr(c, err)
		return
	}

	limit := utils.AtoiDefault(c.Query("limit"), h.cfg.DefaultPageSize)
	if limit < 1 {
		limit = 1
	}
	if limit > h.cfg.MaxPageSize {
		limit = h.cfg.MaxPageSize
	}
	offset := utils.AtoiDefault(c.Query("offset"), 0)
	if offset < 0 {
		offset = 0
	}
	q.Offset, q.Limit = offset, limit

	items, err := repo.List[T](ctx, h.db, q)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(200, Page{
		Count:    total,
		Next:     pageLink(c, offset+limit, limit, offset+limit < int(total)),
		Previous: pageLink(c, offset-limit, limit, offset > 0),
		Results:  items,
	})
}

// Retrieve fetches one record by primary key.
func (h *Handler[T]) Retrieve(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondErr(c, ErrRecordNotFound)
		return
	}
	rec, err := repo.Get[T](c.Request.Context(), h.db, id)
	if errors.Is(err, repo.ErrNotFound) {
		respondErr(c, ErrRecordNotFound)
		return
	}
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, rec)
}

// Update runs the update pipeline: fetch, before hook, partial field
// application, after hook, all inside one transaction.
func (h *Handler[T]) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondErr(c, ErrRecordNotFound)
		return
	}
	p, err := bindPayload(c)
	if err != nil {
		respondErr(c, err)
		return
	}

	var updated *T
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		rec, err := repo.Get[T](c.Request.Context(), tx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrRecordNotFound
		}
		if err != nil {
			return err
		}

		hc := hookCtx(c, tx)
		p, err := h.hooks.BeforeUpdate(hc, rec, p)
		if err != nil {
			return err
		}
		if err := repo.Update(hc.Ctx, tx, rec, h.updateFields(p)); err != nil {
			return err
		}
		fresh, err := repo.Get[T](hc.Ctx, tx, id)
		if err != nil {
			return err
		}
		if err := h.hooks.AfterUpdate(hc, fresh); err != nil {
			return err
		}
		updated = fresh
		return nil
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, updated)
}

// Delete runs the delete pipeline and answers with an empty-data envelope.
func (h *Handler[T]) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondErr(c, ErrRecordNotFound)
		return
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		rec, err := repo.Get[T](c.Request.Context(), tx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrRecordNotFound
		}
		if err != nil {
			return err
		}
		hc := hookCtx(c, tx)
		if err := h.hooks.BeforeDelete(hc, rec); err != nil {
			return err
		}
		if err := repo.Delete(hc.Ctx, tx, rec); err != nil {
			return err
		}
		return h.hooks.AfterDelete(hc, rec)
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, nil)
}

// listQuery derives the filter and order portion of a list request from the
// declared fields. Query parameters naming undeclared fields are ignored.
func (h *Handler[T]) listQuery(c *gin.Context) repo.Query {
	q := repo.Query{
		Exact:    map[string]any{},
		Contains: map[string]string{},
	}
	for _, f := range h.spec.Fields {
		v, ok := c.GetQuery(f)
		if !ok || v == "" {
			continue
		}
		if h.spec.isContains(f) {
			q.Contains[h.spec.column(f)] = v
		} else {
			q.Exact[h.spec.column(f)] = v
		}
	}
	for name, build := range h.spec.Relations {
		v, ok := c.GetQuery(name)
		if !ok || v == "" {
			continue
		}
		sql, args := build(v)
		q.Conds = append(q.Conds, repo.Cond{SQL: sql, Args: args})
	}
	q.Order = h.orderClause(c.Query("order"))
	return q
}

// orderClause translates an order parameter ("name", "-name") into an ORDER
// BY clause. Undeclared fields fall back to the resource default.
func (h *Handler[T]) orderClause(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !h.spec.has(strings.TrimPrefix(raw, "-")) {
		raw = h.spec.DefaultOrder
	}
	if raw == "" {
		return ""
	}
	field := strings.TrimPrefix(raw, "-")
	if !h.spec.has(field) {
		return ""
	}
	col := h.spec.column(field)
	if strings.HasPrefix(raw, "-") {
		return col + " desc"
	}
	return col
}

// updateFields projects the payload onto the declared writable fields,
// mapping wire names to columns. Values pass through as decoded so zero
// values are written like any other.
func (h *Handler[T]) updateFields(p Payload) map[string]any {
	out := map[string]any{}
	for _, f := range h.spec.Fields {
		if h.spec.isReadOnly(f) || !p.Has(f) {
			continue
		}
		out[h.spec.column(f)] = p.Value(f)
	}
	return out
}

// pathID parses the :id path parameter.
func pathID(c *gin.Context) (uint, bool) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// pageLink builds the absolute URL for a neighboring page, or nil when the
// page does not exist. An offset of zero is expressed by omitting the
// parameter.
func pageLink(c *gin.Context, offset, limit int, exists bool) *string {
	if !exists {
		return nil
	}
	if offset < 0 {
		offset = 0
	}
	u := *c.Request.URL
	vals := u.Query()
	vals.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		vals.Set("offset", strconv.Itoa(offset))
	} else {
		vals.Del("offset")
	}
	u.RawQuery = vals.Encode()
	abs := url.URL{Scheme: scheme(c), Host: c.Request.Host, Path: u.Path, RawQuery: u.RawQuery}
	s := abs.String()
	return &s
}

func scheme(c *gin.Context) string {
	if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		return "https"
	}
	return "http"
}
