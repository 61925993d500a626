// Package crud – parameter validation helpers.
//
// Each helper either returns nil or a *status.Error naming the offending
// field; the pipeline boundary turns that signal into the error envelope.
// Hooks compose these to express per-resource rules.
package crud

import (
	"context"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/xqin/go-blog-backend/internal/repo"
	"github.com/xqin/go-blog-backend/internal/status"
)

// DefaultMaxLength is the character cap applied when a caller passes no
// explicit bound to ValidateMaxLength.
const DefaultMaxLength = 255

// ValidateNotEmpty fails with code 0001 when value is absent, an empty or
// whitespace-only string, or a numeric zero. Rejecting zero for numbers is a
// long-standing contract of this API; callers with legitimately zero-valued
// fields simply do not run this check on them.
func ValidateNotEmpty(value any, field string) error {
	switch v := value.(type) {
	case nil:
		return status.New(status.ParamIsNull, field)
	case string:
		if strings.TrimSpace(v) == "" {
			return status.New(status.ParamIsNull, field)
		}
	case float64:
		if v == 0 {
			return status.New(status.ParamIsNull, field)
		}
	case float32:
		if v == 0 {
			return status.New(status.ParamIsNull, field)
		}
	case int:
		if v == 0 {
			return status.New(status.ParamIsNull, field)
		}
	case int64:
		if v == 0 {
			return status.New(status.ParamIsNull, field)
		}
	case uint:
		if v == 0 {
			return status.New(status.ParamIsNull, field)
		}
	}
	return nil
}

// ValidateMaxLength fails with code 0003 when the trimmed value exceeds max
// characters. A max of 0 or less applies DefaultMaxLength. Length is counted
// in runes, not bytes, so multi-byte names are not unfairly penalized.
func ValidateMaxLength(value, field string, max int) error {
	if max <= 0 {
		max = DefaultMaxLength
	}
	if utf8.RuneCountInString(strings.TrimSpace(value)) > max {
		return status.New(status.ParamLength, field)
	}
	return nil
}

// ValidateUnique fails with code 0002 when a persisted record of T matches
// criteria. When excludeID is non-zero the record with that primary key is
// ignored, which is what keeps an update from colliding with its own row.
// Matching is exact equality of the supplied values: no case folding, no
// trimming.
func ValidateUnique[T any](ctx context.Context, db *gorm.DB, field string, criteria map[string]any, excludeID uint) error {
	found, err := repo.Exists[T](ctx, db, criteria, excludeID)
	if err != nil {
		return err
	}
	if found {
		return status.New(status.ParamDuplicated, field)
	}
	return nil
}
