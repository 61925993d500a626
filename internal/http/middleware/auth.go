// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the authentication gate. Every request either matches
// a configured pass-list fragment (health, login and similar public paths)
// or must carry a valid bearer token. The pass-list check is a plain
// substring match against the request path and is evaluated first, before
// the token is even looked at. Rejection happens at the transport level
// (HTTP 401); business envelopes are never built for unauthenticated
// requests.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xqin/go-blog-backend/internal/auth"
)

// principalKey is the Gin context key holding the authenticated principal.
const principalKey = "principal"

// TokenParser validates a raw bearer token and yields the principal it
// identifies. *auth.Issuer satisfies this.
type TokenParser interface {
	Parse(raw string) (*auth.Principal, error)
}

// Gate returns the authentication middleware. passList entries are path
// fragments; a request whose path contains any fragment bypasses the gate
// entirely and proceeds without a principal.
func Gate(parser TokenParser, passList []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, frag := range passList {
			if strings.Contains(path, frag) {
				c.Next()
				return
			}
		}

		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			unauthorized(c, "authentication credentials were not provided")
			return
		}
		p, err := parser.Parse(raw)
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// PrincipalFrom returns the authenticated principal attached by Gate, or nil
// on pass-listed routes.
func PrincipalFrom(c *gin.Context) *auth.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(*auth.Principal); ok {
			return p
		}
	}
	return nil
}

// SetPrincipal stores p as the request's principal. Exposed for tests and
// for trusted in-process callers.
func SetPrincipal(c *gin.Context, p *auth.Principal) {
	c.Set(principalKey, p)
}

// bearerToken extracts the token from an "Authorization: Bearer x" header.
// The scheme comparison is case-insensitive per RFC 6750.
func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(c *gin.Context, msg string) {
	rid, _ := c.Get(requestIDKey)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": asString(rid),
		"detail":     msg,
	})
}
