package gqlauth

import (
	"time"
)

// Config holds every tunable of the auth layer. It is passed by value at
// construction time and never mutated afterwards; tests build a fresh Config
// instead of patching shared state.
type Config struct {
	// SigningKey is the symmetric secret shared by the payload signer and the
	// default access token codec. Rotating it invalidates every outstanding
	// token, which is accepted behavior.
	SigningKey string
	Issuer     string
	Audience   []string

	// TTLs per token kind.
	AccessTokenTTL              time.Duration
	RefreshTokenTTL             time.Duration
	ActivationTTL               time.Duration
	PasswordResetTTL            time.Duration
	PasswordSetTTL              time.Duration
	ActivationSecondaryEmailTTL time.Duration

	// RefreshTokenBytes is the entropy of a refresh token before hex encoding.
	RefreshTokenBytes int

	CaptchaMaxRetries int
	CaptchaTTL        time.Duration

	// AllowLoginNotVerified lets unverified accounts obtain token pairs.
	AllowLoginNotVerified bool

	// SendActivationEmail makes Register create the account unverified and
	// mail out a signed activation link. When false accounts are created
	// verified and no email is sent.
	SendActivationEmail bool

	// HardDelete controls whether DeleteAccount drops the user row or soft
	// deactivates it.
	HardDelete bool

	// Captcha requirements per sensitive mutation.
	LoginRequireCaptcha    bool
	RegisterRequireCaptcha bool

	// TokenLookup locates the bearer credential in an inbound request, using
	// the "source:name" syntax understood by TokenFromRequest, e.g.
	// "header:Authorization", "cookie:token", "query:jwt".
	TokenLookup string
	AuthScheme  string

	// Codec overrides the access token encoding. Nil uses the HS256 JWT codec.
	Codec AccessTokenCodec

	// TextFactory, TextMatcher and Renderer override captcha generation.
	TextFactory CaptchaTextFactory
	TextMatcher CaptchaTextMatcher
	Renderer    CaptchaRenderer

	// Clock overrides time.Now, used by tests for expiry control.
	Clock Clock
}

// DefaultConfig returns a Config with production oriented defaults. The
// signing key has no default on purpose.
func DefaultConfig() Config {
	return Config{
		AccessTokenTTL:              5 * time.Minute,
		RefreshTokenTTL:             7 * 24 * time.Hour,
		ActivationTTL:               7 * 24 * time.Hour,
		PasswordResetTTL:            time.Hour,
		PasswordSetTTL:              time.Hour,
		ActivationSecondaryEmailTTL: 7 * 24 * time.Hour,
		RefreshTokenBytes:           32,
		CaptchaMaxRetries:           5,
		CaptchaTTL:                  5 * time.Minute,
		TokenLookup:                 "header:Authorization",
		AuthScheme:                  "Bearer",
	}
}

// withDefaults fills zero values so a sparse literal Config still behaves.
func (c Config) withDefaults() Config {
	def := DefaultConfig()

	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = def.AccessTokenTTL
	}
	if c.RefreshTokenTTL == 0 {
		c.RefreshTokenTTL = def.RefreshTokenTTL
	}
	if c.ActivationTTL == 0 {
		c.ActivationTTL = def.ActivationTTL
	}
	if c.PasswordResetTTL == 0 {
		c.PasswordResetTTL = def.PasswordResetTTL
	}
	if c.PasswordSetTTL == 0 {
		c.PasswordSetTTL = def.PasswordSetTTL
	}
	if c.ActivationSecondaryEmailTTL == 0 {
		c.ActivationSecondaryEmailTTL = def.ActivationSecondaryEmailTTL
	}
	if c.RefreshTokenBytes == 0 {
		c.RefreshTokenBytes = def.RefreshTokenBytes
	}
	if c.CaptchaMaxRetries == 0 {
		c.CaptchaMaxRetries = def.CaptchaMaxRetries
	}
	if c.CaptchaTTL == 0 {
		c.CaptchaTTL = def.CaptchaTTL
	}
	if c.TokenLookup == "" {
		c.TokenLookup = def.TokenLookup
	}
	if c.AuthScheme == "" {
		c.AuthScheme = def.AuthScheme
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}

	return c
}
