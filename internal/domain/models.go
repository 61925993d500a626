// Package domain defines the persistence models for the blog backend:
// accounts and user profiles on the user-management side, and labels, links,
// classifications, articles and menus on the content side. These types are
// mapped with GORM and form the data layer of the application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// User roles. Role 1 may manage every profile; role 2 only its own; role 3
// is a plain reader account.
const (
	RoleSuperAdmin = 1
	RoleAdmin      = 2
	RoleCommon     = 3
)

// Account holds the login credentials backing a user profile. The password
// is stored as a bcrypt hash and never serialized.
type Account struct {
	ID           uint      `json:"id"        gorm:"primaryKey"`
	Username     string    `json:"username"  gorm:"type:varchar(150);not null;uniqueIndex"`
	PasswordHash string    `json:"-"         gorm:"type:varchar(128);not null"`
	CreatedAt    time.Time `json:"created"`
	UpdatedAt    time.Time `json:"modified"`
}

// TableName returns the database table name for Account.
func (Account) TableName() string { return "accounts" }

// UserProfile is the application-facing user record. Each profile is backed
// by exactly one Account and carries the display name, role and login
// failure counter.
type UserProfile struct {
	ID        uint      `json:"id"       gorm:"primaryKey"`
	Name      string    `json:"name"     gorm:"type:varchar(255);not null;default:''"`
	Role      int       `json:"role"     gorm:"not null;default:2"`
	Failed    int       `json:"failed"   gorm:"not null;default:0"`
	OwnerID   *uint     `json:"owner,omitempty"`
	AccountID uint      `json:"account_id" gorm:"not null;uniqueIndex"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"modified"`

	Account Account `json:"-" gorm:"foreignKey:AccountID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for UserProfile.
func (UserProfile) TableName() string { return "user_profiles" }

// TokenGroup is the per-profile credential group provisioned at signup.
// Tokens issued for the profile are bound to its client id, so revoking the
// group invalidates every outstanding token.
type TokenGroup struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	ProfileID uint      `json:"profile_id" gorm:"not null;uniqueIndex"`
	ClientID  string    `json:"client_id"  gorm:"type:char(36);not null;uniqueIndex"`
	Secret    string    `json:"-"          gorm:"type:varchar(128);not null"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"modified"`

	Profile UserProfile `json:"-" gorm:"foreignKey:ProfileID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for TokenGroup.
func (TokenGroup) TableName() string { return "token_groups" }

// Menu is a navigation entry, optionally nested under a parent menu.
type Menu struct {
	ID        uint      `json:"id"      gorm:"primaryKey"`
	Name      string    `json:"name"    gorm:"type:varchar(255);not null"`
	ParentID  *uint     `json:"parent,omitempty"`
	URL       string    `json:"url"     gorm:"type:varchar(255);not null;default:''"`
	Level     int       `json:"level"   gorm:"not null;default:0"`
	IsRoot    bool      `json:"is_root" gorm:"not null;default:false"`
	OwnerID   *uint     `json:"owner,omitempty"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"modified"`
}

// TableName returns the database table name for Menu.
func (Menu) TableName() string { return "menus" }

// Label is a free-form tag attached to articles.
type Label struct {
	ID        uint      `json:"id"   gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	OwnerID   *uint     `json:"owner,omitempty"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"modified"`
}

// TableName returns the database table name for Label.
func (Label) TableName() string { return "labels" }

// Link is an external bookmark shown on the site.
type Link struct {
	ID        uint      `json:"id"   gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	URL       string    `json:"url"  gorm:"type:varchar(255);not null;default:''"`
	Desc      string    `json:"desc" gorm:"type:varchar(255);not null;default:''"`
	OwnerID   *uint     `json:"owner,omitempty"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"modified"`
}

// TableName returns the database table name for Link.
func (Link) TableName() string { return "links" }

// Classification is a hierarchical article category.
type Classification struct {
	ID        uint      `json:"id"       gorm:"primaryKey"`
	Name      string    `json:"name"     gorm:"type:varchar(255);not null"`
	ParentID  *uint     `json:"parent,omitempty"`
	Level     int       `json:"level"    gorm:"not null;default:0"`
	IsRoot    bool      `json:"is_root"  gorm:"not null;default:false"`
	Priority  int       `json:"priority" gorm:"not null;default:0"`
	OwnerID   *uint     `json:"owner,omitempty"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"modified"`
}

// TableName returns the database table name for Classification.
func (Classification) TableName() string { return "classifications" }

// Article is a published post, filed under one classification and tagged
// with any number of labels. The label set rides the wire as a list of
// label ids under the "label" key; the loaded association itself stays off
// the wire.
type Article struct {
	ID               uint      `json:"id"       gorm:"primaryKey"`
	Name             string    `json:"name"     gorm:"type:varchar(255);not null"`
	ClassificationID *uint     `json:"classification,omitempty"`
	Heat             int       `json:"heat"     gorm:"not null;default:0"`
	Abstract         string    `json:"abstract" gorm:"type:text;not null;default:''"`
	Content          string    `json:"content"  gorm:"type:text;not null;default:''"`
	OwnerID          *uint     `json:"owner,omitempty"`
	CreatedAt        time.Time `json:"created"`
	UpdatedAt        time.Time `json:"modified"`

	Labels   []Label `json:"-"               gorm:"many2many:article_labels"`
	LabelIDs []uint  `json:"label,omitempty" gorm:"-"`
}

// TableName returns the database table name for Article.
func (Article) TableName() string { return "articles" }

// AfterFind loads the ids of the article's labels so reads carry the label
// set without materializing the full association.
func (a *Article) AfterFind(tx *gorm.DB) error {
	return tx.Table("article_labels").
		Where("article_id = ?", a.ID).
		Order("label_id").
		Pluck("label_id", &a.LabelIDs).Error
}

// Entity is satisfied by every persisted type; it gives generic code access
// to the primary key without reflection.
type Entity interface {
	PrimaryKey() uint
}

// PrimaryKey returns the record's primary key.
func (a Account) PrimaryKey() uint        { return a.ID }
func (u UserProfile) PrimaryKey() uint    { return u.ID }
func (t TokenGroup) PrimaryKey() uint     { return t.ID }
func (m Menu) PrimaryKey() uint           { return m.ID }
func (l Label) PrimaryKey() uint          { return l.ID }
func (l Link) PrimaryKey() uint           { return l.ID }
func (c Classification) PrimaryKey() uint { return c.ID }
func (a Article) PrimaryKey() uint        { return a.ID }
