// Package utils holds small helpers shared across layers, free of any
// domain knowledge.
package utils

import "strconv"

// AtoiDefault parses s as a base-10 integer, falling back to def when s is
// empty or not a number. Pagination parameters come through here, so a
// bad limit or offset degrades to the default instead of failing the
// request.
func AtoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
