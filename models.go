package gqlauth

import (
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserStatus tracks the account lifecycle for the bundled bun backend.
type UserStatus = string

const (
	// UserStatusPending is a registered account awaiting email verification
	UserStatusPending UserStatus = "pending"
	// UserStatusActive is a verified, usable account
	UserStatusActive UserStatus = "active"
	// UserStatusArchived is a deactivated account; login un-archives it
	UserStatusArchived UserStatus = "archived"
)

// User is the user model persisted by the bundled bun backend. Applications
// with their own user storage implement CredentialBackend instead and never
// touch this type.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Status         UserStatus `bun:"status,notnull,default:'pending'" json:"status,omitempty"`
	FirstName      string     `bun:"first_name" json:"first_name,omitempty"`
	LastName       string     `bun:"last_name" json:"last_name,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	EmailAddr      string     `bun:"email,notnull,unique" json:"email,omitempty"`
	SecondEmail    string     `bun:"secondary_email" json:"secondary_email,omitempty"`
	Phone          string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"-"`
	EmailValidated bool       `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

var _ UserRef = (*User)(nil)

// Key returns the opaque identifier embedded in tokens.
func (u *User) Key() string {
	return u.ID.String()
}

// Email returns the primary email address.
func (u *User) Email() string {
	return u.EmailAddr
}

// SecondaryEmail returns the verified secondary address, empty when unset.
func (u *User) SecondaryEmail() string {
	return u.SecondEmail
}

// RefreshToken is a persisted, revocable credential used to mint new access
// tokens without re-authenticating. Records are never deleted, only flagged:
// expiry is computed from CreatedAt plus the configured delta, and RevokedAt
// marks explicit revocation.
type RefreshToken struct {
	bun.BaseModel `bun:"table:refresh_tokens,alias:rft"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserKey       string     `bun:"user_key,notnull" json:"user_key,omitempty"`
	Token         string     `bun:"token,notnull,unique:rft_token_revoked" json:"token,omitempty"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	RevokedAt     *time.Time `bun:"revoked_at,nullzero,unique:rft_token_revoked" json:"revoked_at,omitempty"`
}

// Revoked reports whether the token has been explicitly revoked.
func (t *RefreshToken) Revoked() bool {
	return t.RevokedAt != nil
}

// CaptchaChallenge is a single-use human verification puzzle. Any terminal
// validation outcome (success, expiry, retry exhaustion) deletes the record.
type CaptchaChallenge struct {
	bun.BaseModel `bun:"table:captcha_challenges,alias:cap"`
	UUID          uuid.UUID `bun:"uuid,pk,type:uuid" json:"uuid"`
	Text          string    `bun:"text,notnull" json:"-"`
	InsertedAt    time.Time `bun:"inserted_at,nullzero,default:current_timestamp" json:"inserted_at,omitempty"`
	Tries         int       `bun:"tries,notnull,default:0" json:"tries,omitempty"`
	Image         []byte    `bun:"image" json:"-"`
}

// ImageBase64 exposes the rendered challenge for transport to clients.
func (c *CaptchaChallenge) ImageBase64() string {
	return base64.StdEncoding.EncodeToString(c.Image)
}
