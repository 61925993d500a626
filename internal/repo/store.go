// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the generic store consumed by the
// request pipeline: equality/contains filtering, single-field ordering,
// offset/limit paging, and primary-key CRUD over any domain model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business logic, only CRUD persistence and query composition.
//
// Error semantics:
//   - When a record is not found, Get returns ErrNotFound
//     (an alias of gorm.ErrRecordNotFound).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for consistency across the service
// layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// Query describes one list request over a model: equality and substring
// filters keyed by column name, extra raw conditions for filters that span
// more than the model's own table, an ORDER BY clause, and an offset/limit
// window. Column names and condition SQL always come from a resource's
// declared field list, never from raw client input.
type Query struct {
	Exact    map[string]any
	Contains map[string]string
	Conds    []Cond
	Order    string
	Offset   int
	Limit    int
}

// Cond is one parameterized WHERE fragment, e.g. a membership subquery.
type Cond struct {
	SQL  string
	Args []any
}

// scope applies the filter portion of q to tx.
func scope(tx *gorm.DB, q Query) *gorm.DB {
	for col, v := range q.Exact {
		tx = tx.Where(map[string]any{col: v})
	}
	for col, v := range q.Contains {
		// SQLite has no default LIKE escape character, so the ESCAPE
		// clause must name the one escapeLike inserts.
		tx = tx.Where(fmt.Sprintf("%s LIKE ? ESCAPE '\\'", col), "%"+escapeLike(v)+"%")
	}
	for _, c := range q.Conds {
		tx = tx.Where(c.SQL, c.Args...)
	}
	return tx
}

// escapeLike neutralizes LIKE metacharacters in a user-supplied fragment so
// a contains filter matches them literally.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

// Count returns the number of records of T matching q's filters.
func Count[T any](ctx context.Context, db *gorm.DB, q Query) (int64, error) {
	var total int64
	err := scope(db.WithContext(ctx).Model(new(T)), q).Count(&total).Error
	return total, err
}

// List returns the page of records of T selected by q.
func List[T any](ctx context.Context, db *gorm.DB, q Query) ([]T, error) {
	out := []T{}
	tx := scope(db.WithContext(ctx).Model(new(T)), q)
	if q.Order != "" {
		tx = tx.Order(q.Order)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	err := tx.Find(&out).Error
	return out, err
}

// Get fetches a record of T by primary key. Returns ErrNotFound when the
// record does not exist.
func Get[T any](ctx context.Context, db *gorm.DB, id uint) (*T, error) {
	var rec T
	if err := db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// Exists reports whether any record of T matches the criteria exactly,
// excluding the row with primary key excludeID when non-zero. The exclusion
// is what keeps an update from colliding with the record's own value.
func Exists[T any](ctx context.Context, db *gorm.DB, criteria map[string]any, excludeID uint) (bool, error) {
	tx := db.WithContext(ctx).Model(new(T)).Where(criteria)
	if excludeID != 0 {
		tx = tx.Where("id <> ?", excludeID)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return false, err
	}
	return total > 0, nil
}

// Create inserts rec.
func Create[T any](ctx context.Context, db *gorm.DB, rec *T) error {
	return db.WithContext(ctx).Create(rec).Error
}

// Update applies the given column/value pairs to rec's row and refreshes
// rec in place. A map is used so zero values are written like any other.
func Update[T any](ctx context.Context, db *gorm.DB, rec *T, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return db.WithContext(ctx).Model(rec).Updates(fields).Error
}

// Delete removes rec's row by primary key.
func Delete[T any](ctx context.Context, db *gorm.DB, rec *T) error {
	return db.WithContext(ctx).Delete(rec).Error
}
