package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/xqin/go-blog-backend/internal/auth"
	"github.com/xqin/go-blog-backend/internal/config"
	"github.com/xqin/go-blog-backend/internal/crud"
	"github.com/xqin/go-blog-backend/internal/domain"
	"github.com/xqin/go-blog-backend/internal/repo"
	"github.com/xqin/go-blog-backend/internal/status"
)

// UserSpec declares the profile wire surface. username and password belong
// to the backing account and never appear in list filters; failed is
// maintained by the login flow and read-only on the wire.
func UserSpec() crud.Spec {
	return crud.Spec{
		Fields:         []string{"name", "role", "failed", "created", "modified"},
		ContainsFields: []string{"name"},
		ReadOnly:       []string{"failed"},
		DefaultOrder:   "-created",
	}
}

// UserHooks is the profile policy: display-name and credential validation on
// signup, account provisioning inside the create transaction, token-group
// issuance afterwards, and role-based authorization on update and delete.
type UserHooks struct {
	crud.NopHooks[domain.UserProfile]
	cfg config.CRUDConfig
}

// NewUserHooks builds the profile policy.
func NewUserHooks(cfg config.CRUDConfig) UserHooks {
	return UserHooks{cfg: cfg}
}

func (h UserHooks) BeforeCreate(hc *crud.Context, p crud.Payload) (crud.Payload, error) {
	if hc.Principal != nil && hc.Principal.Role == domain.RoleCommon {
		return nil, status.New(status.RoleError, "")
	}
	if role, ok := p.Value("role").(float64); ok && int(role) == domain.RoleSuperAdmin {
		if hc.Principal == nil || hc.Principal.Role != domain.RoleSuperAdmin {
			return nil, status.New(status.RoleError, "")
		}
	}

	if err := h.checkDisplayName(hc, p, 0); err != nil {
		return nil, err
	}
	username := p.String("username")
	if err := crud.ValidateNotEmpty(p.Value("username"), "username"); err != nil {
		return nil, err
	}
	if err := crud.ValidateMaxLength(username, "username", h.cfg.NameMaxLen); err != nil {
		return nil, err
	}
	if err := crud.ValidateUnique[domain.Account](hc.Ctx, hc.Tx, "username", map[string]any{"username": username}, 0); err != nil {
		return nil, err
	}
	if err := crud.ValidateNotEmpty(p.Value("password"), "password"); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(p.String("password"))
	if err != nil {
		return nil, err
	}
	acc := domain.Account{Username: username, PasswordHash: hash}
	if err := repo.Create(hc.Ctx, hc.Tx, &acc); err != nil {
		return nil, err
	}
	return stampOwner(hc, p).Merge(map[string]any{"account_id": acc.ID}), nil
}

// AfterCreate provisions the profile's token group. It runs in the create
// transaction, so a failed provision rolls the signup back whole.
func (UserHooks) AfterCreate(hc *crud.Context, rec *domain.UserProfile, _ crud.Payload) error {
	g := domain.TokenGroup{
		ProfileID: rec.ID,
		ClientID:  uuid.NewString(),
		Secret:    uuid.NewString(),
	}
	return repo.Create(hc.Ctx, hc.Tx, &g)
}

func (h UserHooks) BeforeUpdate(hc *crud.Context, rec *domain.UserProfile, p crud.Payload) (crud.Payload, error) {
	if err := authorizeProfile(hc.Principal, rec); err != nil {
		return nil, err
	}
	if p.Has("role") {
		if hc.Principal == nil || hc.Principal.Role != domain.RoleSuperAdmin {
			return nil, status.New(status.RoleError, "")
		}
	}
	if p.Has("name") {
		if err := h.checkDisplayName(hc, p, rec.ID); err != nil {
			return nil, err
		}
	}
	if p.Has("password") {
		if err := crud.ValidateNotEmpty(p.Value("password"), "password"); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(p.String("password"))
		if err != nil {
			return nil, err
		}
		err = hc.Tx.Model(&domain.Account{}).
			Where("id = ?", rec.AccountID).
			UpdateColumn("password_hash", hash).Error
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (UserHooks) BeforeDelete(hc *crud.Context, rec *domain.UserProfile) error {
	return authorizeProfile(hc.Principal, rec)
}

// AfterDelete removes the credential rows tied to the deleted profile.
func (UserHooks) AfterDelete(hc *crud.Context, rec *domain.UserProfile) error {
	if err := hc.Tx.Where("profile_id = ?", rec.ID).Delete(&domain.TokenGroup{}).Error; err != nil {
		return err
	}
	return hc.Tx.Delete(&domain.Account{}, rec.AccountID).Error
}

// checkDisplayName applies the profile naming rules: present, within the
// short name cap, unique among profiles.
func (h UserHooks) checkDisplayName(hc *crud.Context, p crud.Payload, excludeID uint) error {
	if err := crud.ValidateNotEmpty(p.Value("name"), "name"); err != nil {
		return err
	}
	name := p.String("name")
	if err := crud.ValidateMaxLength(name, "name", h.cfg.NameMaxLen); err != nil {
		return err
	}
	return crud.ValidateUnique[domain.UserProfile](hc.Ctx, hc.Tx, "name", map[string]any{"name": name}, excludeID)
}

// authorizeProfile admits the profile's own holder and super admins; every
// other caller gets the role error.
func authorizeProfile(p *auth.Principal, rec *domain.UserProfile) error {
	if p == nil {
		return status.New(status.RoleError, "")
	}
	if p.ProfileID == rec.ID || p.Role == domain.RoleSuperAdmin {
		return nil
	}
	return status.New(status.RoleError, "")
}

// UserService implements the credential flows that live outside the generic
// pipeline: login and first-boot admin seeding.
type UserService struct {
	DB     *gorm.DB
	Issuer *auth.Issuer
}

// NewUserService wires the login flow to its database and token issuer.
func NewUserService(db *gorm.DB, issuer *auth.Issuer) *UserService {
	return &UserService{DB: db, Issuer: issuer}
}

// Login verifies the credentials and returns a signed bearer token with the
// authenticated profile. Every authentication failure (unknown username,
// wrong password, orphaned account) reports the same bad-credentials code
// so the response does not reveal which part was wrong. A wrong password
// additionally bumps the profile's failure counter; a successful login
// resets it.
func (s *UserService) Login(ctx context.Context, username, password string) (string, *domain.UserProfile, error) {
	if username == "" || password == "" {
		return "", nil, status.New(status.BadCredentials, "")
	}
	acc, err := repo.GetAccountByUsername(ctx, s.DB, username)
	if errors.Is(err, repo.ErrNotFound) {
		return "", nil, status.New(status.BadCredentials, "")
	}
	if err != nil {
		return "", nil, err
	}
	if !auth.CheckPassword(acc.PasswordHash, password) {
		if err := repo.BumpLoginFailed(ctx, s.DB, acc.ID); err != nil {
			return "", nil, err
		}
		return "", nil, status.New(status.BadCredentials, "")
	}
	prof, err := repo.GetProfileByAccount(ctx, s.DB, acc.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return "", nil, status.New(status.BadCredentials, "")
	}
	if err != nil {
		return "", nil, err
	}
	if err := repo.ResetLoginFailed(ctx, s.DB, acc.ID); err != nil {
		return "", nil, err
	}

	clientID := ""
	if g, err := repo.GetTokenGroupByProfile(ctx, s.DB, prof.ID); err == nil {
		clientID = g.ClientID
	} else if !errors.Is(err, repo.ErrNotFound) {
		return "", nil, err
	}

	token, err := s.Issuer.Issue(auth.Principal{ProfileID: prof.ID, Role: prof.Role}, clientID)
	if err != nil {
		return "", nil, err
	}
	return token, prof, nil
}

// Profile fetches the profile behind an authenticated principal.
func (s *UserService) Profile(ctx context.Context, profileID uint) (*domain.UserProfile, error) {
	return repo.Get[domain.UserProfile](ctx, s.DB, profileID)
}

// EnsureSeedAdmin creates the initial super-admin account when the profile
// table is empty. Subsequent boots are a no-op.
func EnsureSeedAdmin(ctx context.Context, db *gorm.DB, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	var n int64
	if err := db.WithContext(ctx).Model(&domain.UserProfile{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		acc := domain.Account{Username: username, PasswordHash: hash}
		if err := tx.Create(&acc).Error; err != nil {
			return err
		}
		prof := domain.UserProfile{Name: username, Role: domain.RoleSuperAdmin, AccountID: acc.ID}
		if err := tx.Create(&prof).Error; err != nil {
			return err
		}
		g := domain.TokenGroup{ProfileID: prof.ID, ClientID: uuid.NewString(), Secret: uuid.NewString()}
		return tx.Create(&g).Error
	})
}
