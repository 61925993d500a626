package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/xqin/go-blog-backend/internal/auth"
	"github.com/xqin/go-blog-backend/internal/crud"
	"github.com/xqin/go-blog-backend/internal/domain"
	"github.com/xqin/go-blog-backend/internal/status"
)

// signup drives the user hooks the way the pipeline would: BeforeCreate,
// the insert, AfterCreate, all in one transaction.
func signup(t *testing.T, db *gorm.DB, principal *auth.Principal, p crud.Payload) (*domain.UserProfile, error) {
	t.Helper()
	h := NewUserHooks(testCRUDConfig())
	var created *domain.UserProfile
	err := db.Transaction(func(tx *gorm.DB) error {
		hc := &crud.Context{Ctx: context.Background(), Tx: tx, Principal: principal}
		merged, err := h.BeforeCreate(hc, p)
		if err != nil {
			return err
		}
		accID, _ := merged.Value("account_id").(uint)
		prof := domain.UserProfile{
			Name:      merged.String("name"),
			AccountID: accID,
		}
		if role, ok := merged.Value("role").(float64); ok {
			prof.Role = int(role)
		} else {
			prof.Role = domain.RoleAdmin
		}
		if err := tx.Create(&prof).Error; err != nil {
			return err
		}
		if err := h.AfterCreate(hc, &prof, merged); err != nil {
			return err
		}
		created = &prof
		return nil
	})
	return created, err
}

func TestUserHooks_SignupProvisionsAccountAndTokenGroup(t *testing.T) {
	db := newTestDB(t)

	prof, err := signup(t, db, nil, crud.Payload{
		"name": "alice", "username": "alice01", "password": "s3cret",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	var acc domain.Account
	if err := db.First(&acc, prof.AccountID).Error; err != nil {
		t.Fatalf("account not created: %v", err)
	}
	if acc.Username != "alice01" {
		t.Fatalf("want username alice01, got %q", acc.Username)
	}
	if acc.PasswordHash == "" || acc.PasswordHash == "s3cret" {
		t.Fatalf("password stored unhashed: %q", acc.PasswordHash)
	}

	var g domain.TokenGroup
	if err := db.Where("profile_id = ?", prof.ID).First(&g).Error; err != nil {
		t.Fatalf("token group not provisioned: %v", err)
	}
	if len(g.ClientID) != 36 {
		t.Fatalf("client id not a uuid: %q", g.ClientID)
	}
}

func TestUserHooks_SignupValidation(t *testing.T) {
	db := newTestDB(t)
	if _, err := signup(t, db, nil, crud.Payload{
		"name": "bob", "username": "bob01", "password": "pw",
	}); err != nil {
		t.Fatalf("seed signup: %v", err)
	}

	cases := []struct {
		name    string
		payload crud.Payload
		code    status.Code
		param   string
	}{
		{"missing name", crud.Payload{"username": "x", "password": "pw"}, status.ParamIsNull, "name"},
		{"missing username", crud.Payload{"name": "x", "password": "pw"}, status.ParamIsNull, "username"},
		{"missing password", crud.Payload{"name": "x", "username": "x1"}, status.ParamIsNull, "password"},
		{"long name", crud.Payload{"name": strings.Repeat("n", 21), "username": "x1", "password": "pw"}, status.ParamLength, "name"},
		{"long username", crud.Payload{"name": "x", "username": strings.Repeat("u", 21), "password": "pw"}, status.ParamLength, "username"},
		{"duplicate name", crud.Payload{"name": "bob", "username": "x1", "password": "pw"}, status.ParamDuplicated, "name"},
		{"duplicate username", crud.Payload{"name": "x", "username": "bob01", "password": "pw"}, status.ParamDuplicated, "username"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := signup(t, db, nil, tc.payload)
			if !status.Is(err, tc.code) {
				t.Fatalf("want code %s, got %v", tc.code, err)
			}
			if se := status.From(err); se.Param != tc.param {
				t.Fatalf("want param %q, got %q", tc.param, se.Param)
			}
		})
	}
}

func TestUserHooks_CommonRoleCannotSignupOthers(t *testing.T) {
	db := newTestDB(t)

	_, err := signup(t, db, &auth.Principal{ProfileID: 9, Role: domain.RoleCommon}, crud.Payload{
		"name": "eve", "username": "eve01", "password": "pw",
	})
	if !status.Is(err, status.RoleError) {
		t.Fatalf("want RoleError, got %v", err)
	}
}

func TestUserHooks_OnlySuperAdminMintsSuperAdmins(t *testing.T) {
	db := newTestDB(t)

	p := crud.Payload{"name": "root2", "username": "root2", "password": "pw", "role": float64(domain.RoleSuperAdmin)}
	if _, err := signup(t, db, &auth.Principal{ProfileID: 1, Role: domain.RoleAdmin}, p); !status.Is(err, status.RoleError) {
		t.Fatalf("admin minting super admin: want RoleError, got %v", err)
	}
	if _, err := signup(t, db, &auth.Principal{ProfileID: 1, Role: domain.RoleSuperAdmin}, p); err != nil {
		t.Fatalf("super admin minting super admin: %v", err)
	}
}

func TestUserHooks_UpdateAuthorization(t *testing.T) {
	db := newTestDB(t)
	prof, err := signup(t, db, nil, crud.Payload{"name": "carol", "username": "carol01", "password": "pw"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	h := NewUserHooks(testCRUDConfig())
	rename := crud.Payload{"name": "carol2"}

	// A different non-super principal is rejected.
	_, err = h.BeforeUpdate(hctx(db, &auth.Principal{ProfileID: prof.ID + 100, Role: domain.RoleAdmin}), prof, rename)
	if !status.Is(err, status.RoleError) {
		t.Fatalf("foreign admin: want RoleError, got %v", err)
	}

	// The profile's own holder passes.
	if _, err := h.BeforeUpdate(hctx(db, &auth.Principal{ProfileID: prof.ID, Role: domain.RoleAdmin}), prof, rename); err != nil {
		t.Fatalf("own profile: %v", err)
	}

	// A super admin passes on any profile.
	if _, err := h.BeforeUpdate(hctx(db, &auth.Principal{ProfileID: prof.ID + 100, Role: domain.RoleSuperAdmin}), prof, rename); err != nil {
		t.Fatalf("super admin: %v", err)
	}
}

func TestUserHooks_RoleChangeNeedsSuperAdmin(t *testing.T) {
	db := newTestDB(t)
	prof, err := signup(t, db, nil, crud.Payload{"name": "dave", "username": "dave01", "password": "pw"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	h := NewUserHooks(testCRUDConfig())

	_, err = h.BeforeUpdate(hctx(db, &auth.Principal{ProfileID: prof.ID, Role: domain.RoleAdmin}), prof, crud.Payload{"role": float64(1)})
	if !status.Is(err, status.RoleError) {
		t.Fatalf("want RoleError, got %v", err)
	}
}

func TestUserHooks_PasswordUpdateRehashes(t *testing.T) {
	db := newTestDB(t)
	prof, err := signup(t, db, nil, crud.Payload{"name": "erin", "username": "erin01", "password": "old"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	h := NewUserHooks(testCRUDConfig())

	principal := &auth.Principal{ProfileID: prof.ID, Role: domain.RoleAdmin}
	if _, err := h.BeforeUpdate(hctx(db, principal), prof, crud.Payload{"password": "new"}); err != nil {
		t.Fatalf("BeforeUpdate: %v", err)
	}

	var acc domain.Account
	if err := db.First(&acc, prof.AccountID).Error; err != nil {
		t.Fatalf("account: %v", err)
	}
	if !auth.CheckPassword(acc.PasswordHash, "new") {
		t.Fatal("new password does not verify")
	}
	if auth.CheckPassword(acc.PasswordHash, "old") {
		t.Fatal("old password still verifies")
	}
}

func TestUserHooks_DeleteRemovesCredentials(t *testing.T) {
	db := newTestDB(t)
	prof, err := signup(t, db, nil, crud.Payload{"name": "fred", "username": "fred01", "password": "pw"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	h := NewUserHooks(testCRUDConfig())
	principal := &auth.Principal{ProfileID: 1, Role: domain.RoleSuperAdmin}

	err = db.Transaction(func(tx *gorm.DB) error {
		hc := &crud.Context{Ctx: context.Background(), Tx: tx, Principal: principal}
		if err := h.BeforeDelete(hc, prof); err != nil {
			return err
		}
		if err := tx.Delete(&domain.UserProfile{}, prof.ID).Error; err != nil {
			return err
		}
		return h.AfterDelete(hc, prof)
	})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}

	var n int64
	db.Model(&domain.Account{}).Where("id = ?", prof.AccountID).Count(&n)
	if n != 0 {
		t.Fatal("account row survived profile delete")
	}
	db.Model(&domain.TokenGroup{}).Where("profile_id = ?", prof.ID).Count(&n)
	if n != 0 {
		t.Fatal("token group survived profile delete")
	}
}

func TestLogin_Success(t *testing.T) {
	db := newTestDB(t)
	prof, err := signup(t, db, nil, crud.Payload{"name": "gina", "username": "gina01", "password": "pw"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	issuer := auth.NewIssuer("test-secret", time.Hour)
	svc := NewUserService(db, issuer)

	token, got, err := svc.Login(context.Background(), "gina01", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != prof.ID {
		t.Fatalf("want profile %d, got %d", prof.ID, got.ID)
	}
	p, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if p.ProfileID != prof.ID {
		t.Fatalf("token principal %d, want %d", p.ProfileID, prof.ID)
	}
}

func TestLogin_WrongPasswordBumpsFailed(t *testing.T) {
	db := newTestDB(t)
	prof, err := signup(t, db, nil, crud.Payload{"name": "hank", "username": "hank01", "password": "pw"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	svc := NewUserService(db, auth.NewIssuer("test-secret", time.Hour))

	_, _, err = svc.Login(context.Background(), "hank01", "nope")
	if !status.Is(err, status.BadCredentials) {
		t.Fatalf("want BadCredentials, got %v", err)
	}

	var fresh domain.UserProfile
	if err := db.First(&fresh, prof.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if fresh.Failed != 1 {
		t.Fatalf("want failed=1, got %d", fresh.Failed)
	}

	// A successful login resets the counter.
	if _, _, err := svc.Login(context.Background(), "hank01", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := db.First(&fresh, prof.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if fresh.Failed != 0 {
		t.Fatalf("want failed reset, got %d", fresh.Failed)
	}
}

func TestLogin_UnknownUserAndEmptyCreds(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, auth.NewIssuer("test-secret", time.Hour))

	for _, c := range [][2]string{{"ghost", "pw"}, {"", "pw"}, {"ghost", ""}} {
		if _, _, err := svc.Login(context.Background(), c[0], c[1]); !status.Is(err, status.BadCredentials) {
			t.Fatalf("creds %v: want BadCredentials, got %v", c, err)
		}
	}
}

func TestEnsureSeedAdmin(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := EnsureSeedAdmin(ctx, db, "root", "rootpw"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	var prof domain.UserProfile
	if err := db.Where("name = ?", "root").First(&prof).Error; err != nil {
		t.Fatalf("profile: %v", err)
	}
	if prof.Role != domain.RoleSuperAdmin {
		t.Fatalf("want role %d, got %d", domain.RoleSuperAdmin, prof.Role)
	}

	// Second boot is a no-op.
	if err := EnsureSeedAdmin(ctx, db, "root", "other"); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	var n int64
	db.Model(&domain.UserProfile{}).Count(&n)
	if n != 1 {
		t.Fatalf("want 1 profile, got %d", n)
	}

	svc := NewUserService(db, auth.NewIssuer("test-secret", time.Hour))
	if _, _, err := svc.Login(ctx, "root", "rootpw"); err != nil {
		t.Fatalf("seeded admin cannot log in: %v", err)
	}
}
