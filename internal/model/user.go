package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"jualapa/internal/auth"
)

// Role tags what a user may do.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents an account, local or federated through Google.
type User struct {
	ID       uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Username string    `json:"username" gorm:"size:255;not null"`
	Email    string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	// Password is the plaintext pending hashing; it is never persisted.
	Password      string     `json:"-" gorm:"-"`
	PasswordHash  string     `json:"-" gorm:"size:255"` // Never expose in JSON
	Role          Role       `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	IsVerified    bool       `json:"is_verified" gorm:"not null;default:false"`
	IsOAuth       bool       `json:"is_oauth" gorm:"not null;default:false"`
	Picture       string     `json:"picture,omitempty" gorm:"size:1024"`
	ImagePublicID string     `json:"image_public_id,omitempty" gorm:"size:255"`
	Bio           string     `json:"bio,omitempty" gorm:"size:300"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	// TokenVerify and TokenExpires form the one-time token slot shared by
	// email verification and password reset. They are set and cleared together.
	TokenVerify  *string    `json:"-" gorm:"size:64;index"`
	TokenExpires *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// BeforeSave hashes a newly assigned plaintext password. Saves that do not
// touch the password leave the stored hash alone.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Password == "" {
		return nil
	}
	hash, err := auth.HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.Password = ""
	return nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// SetOneTimeToken fills the token slot, replacing any pending token.
func (u *User) SetOneTimeToken(token string, expires time.Time) {
	u.TokenVerify = &token
	u.TokenExpires = &expires
}

// ClearOneTimeToken empties the token slot.
func (u *User) ClearOneTimeToken() {
	u.TokenVerify = nil
	u.TokenExpires = nil
}

// OneTimeTokenExpired reports whether the pending token is unusable at now.
// A missing expiry counts as expired.
func (u *User) OneTimeTokenExpired(now time.Time) bool {
	return u.TokenExpires == nil || u.TokenExpires.Before(now)
}
