// Authentication HTTP handlers.
//
// This file exposes the credential endpoints that live outside the generic
// resource pipeline:
//   - POST /users/login  (exchange username/password for a bearer token)
//   - GET  /users/me     (resolve the caller's own profile)
//
// Handlers are transport-thin: they decode input, call the user service, and
// wrap the result in the uniform response envelope.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xqin/go-blog-backend/internal/crud"
	"github.com/xqin/go-blog-backend/internal/domain"
	"github.com/xqin/go-blog-backend/internal/http/middleware"
	"github.com/xqin/go-blog-backend/internal/repo"
	"github.com/xqin/go-blog-backend/internal/status"
)

// UserService defines the credential operations consumed by the auth
// handlers. *services.UserService satisfies this.
type UserService interface {
	// Login verifies the credentials and returns a signed token with the
	// authenticated profile.
	Login(ctx context.Context, username, password string) (string, *domain.UserProfile, error)
	// Profile fetches the profile behind an authenticated principal.
	Profile(ctx context.Context, profileID uint) (*domain.UserProfile, error)
}

// AuthHandlers groups the credential endpoints.
type AuthHandlers struct {
	users    UserService
	tokenTTL func() int64
}

// NewAuthHandlers binds the handlers to the user service. ttlSeconds reports
// the validity window advertised in login responses.
func NewAuthHandlers(users UserService, ttlSeconds func() int64) *AuthHandlers {
	return &AuthHandlers{users: users, tokenTTL: ttlSeconds}
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Username string `json:"username" example:"alice01"`
	Password string `json:"password" example:"s3cret"`
}

// LoginResponse is the data member of a successful login envelope.
type LoginResponse struct {
	Token     string              `json:"token"`
	TokenType string              `json:"token_type" example:"Bearer"`
	ExpiresIn int64               `json:"expires_in" example:"43200"`
	Profile   *domain.UserProfile `json:"profile"`
}

// Login handles POST /users/login.
//
// @Summary     Log in
// @Description Exchanges a username and password for a bearer token. Bad credentials are reported inside the envelope with HTTP 200.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
// @Success     200  {object}  crud.Envelope
// @Router      /users/login [post]
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, crud.Failure(status.New(status.BadCredentials, "")))
		return
	}
	token, prof, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusOK, crud.Failure(err))
		return
	}
	c.JSON(http.StatusOK, crud.Success(LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: h.tokenTTL(),
		Profile:   prof,
	}))
}

// Me handles GET /users/me.
//
// @Summary     Current profile
// @Description Returns the profile of the authenticated caller.
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  crud.Envelope
// @Failure     401  {object}  map[string]string
// @Router      /users/me [get]
func (h *AuthHandlers) Me(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	if p == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "authentication credentials were not provided"})
		return
	}
	prof, err := h.users.Profile(c.Request.Context(), p.ProfileID)
	if errors.Is(err, repo.ErrNotFound) {
		c.JSON(http.StatusOK, crud.Failure(status.Errorf(status.Unknown, "profile not found")))
		return
	}
	if err != nil {
		c.JSON(http.StatusOK, crud.Failure(err))
		return
	}
	c.JSON(http.StatusOK, crud.Success(prof))
}
