// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the account and profile lookups used by
// login and by the authentication gate.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/xqin/go-blog-backend/internal/domain"
)

// GetAccountByUsername fetches an account by its login name.
// Returns ErrNotFound when no such account exists.
func GetAccountByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.Account, error) {
	var a domain.Account
	if err := db.WithContext(ctx).Where("username = ?", username).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// GetProfileByAccount fetches the profile backed by the given account id.
func GetProfileByAccount(ctx context.Context, db *gorm.DB, accountID uint) (*domain.UserProfile, error) {
	var p domain.UserProfile
	if err := db.WithContext(ctx).Where("account_id = ?", accountID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// BumpLoginFailed increments the failure counter on the profile backed by
// accountID. Missing profiles are ignored: the counter is best-effort
// bookkeeping and must not mask the credential error being reported.
func BumpLoginFailed(ctx context.Context, db *gorm.DB, accountID uint) error {
	res := db.WithContext(ctx).
		Model(&domain.UserProfile{}).
		Where("account_id = ?", accountID).
		UpdateColumn("failed", gorm.Expr("failed + 1"))
	return res.Error
}

// ResetLoginFailed clears the failure counter after a successful login.
func ResetLoginFailed(ctx context.Context, db *gorm.DB, accountID uint) error {
	return db.WithContext(ctx).
		Model(&domain.UserProfile{}).
		Where("account_id = ? AND failed <> 0", accountID).
		UpdateColumn("failed", 0).Error
}

// GetTokenGroupByProfile fetches the token group provisioned for a profile.
func GetTokenGroupByProfile(ctx context.Context, db *gorm.DB, profileID uint) (*domain.TokenGroup, error) {
	var g domain.TokenGroup
	if err := db.WithContext(ctx).Where("profile_id = ?", profileID).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}
