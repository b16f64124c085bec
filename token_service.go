package gqlauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// AccessToken is the primary bearer credential. It lives only for the
// request/response cycle and is never persisted server side; revocation is
// only supported for refresh tokens.
type AccessToken struct {
	UserKey   string    `json:"user_key"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Encoded   string    `json:"token"`
}

// AccessClaims is the JWT claim set used by the default codec.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserKey string `json:"uid,omitempty"`
}

// AccessTokenService issues and decodes access tokens through a pluggable
// codec. Issue is a pure function of (userKey, clock, secret); Decode enforces
// expiry itself, independent of whatever the codec does, so swapping codecs
// cannot silently disable expiry checks.
type AccessTokenService struct {
	codec  AccessTokenCodec
	ttl    time.Duration
	now    Clock
	logger Logger
}

// NewAccessTokenService creates a service around the given codec. A zero ttl
// is honored as-is and produces tokens that are expired on arrival, which is
// occasionally useful in tests.
func NewAccessTokenService(codec AccessTokenCodec, ttl time.Duration, clock Clock, logger Logger) *AccessTokenService {
	return &AccessTokenService{
		codec:  codec,
		ttl:    ttl,
		now:    normalizeClock(clock),
		logger: normalizeLogger(logger),
	}
}

// WithLogger replaces the service logger.
func (s *AccessTokenService) WithLogger(logger Logger) *AccessTokenService {
	s.logger = normalizeLogger(logger)
	return s
}

// Issue mints a new access token for the given user key.
func (s *AccessTokenService) Issue(userKey string) (AccessToken, error) {
	if userKey == "" {
		return AccessToken{}, goerrors.New("user key is required", goerrors.CategoryBadInput)
	}

	issuedAt := s.now()
	token := AccessToken{
		UserKey:   userKey,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(s.ttl),
	}

	encoded, err := s.codec.Encode(token)
	if err != nil {
		return AccessToken{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode access token")
	}

	token.Encoded = encoded
	return token, nil
}

// Decode verifies and unpacks an encoded access token. Expired tokens return
// ErrTokenExpired; anything malformed or unverifiable returns ErrInvalidToken.
func (s *AccessTokenService) Decode(encoded string) (AccessToken, error) {
	token, err := s.codec.Decode(encoded)
	if err != nil {
		if IsTokenExpiredError(err) {
			return AccessToken{}, ErrTokenExpired
		}
		return AccessToken{}, ErrInvalidToken
	}

	if token.UserKey == "" {
		return AccessToken{}, ErrInvalidToken
	}

	// strict re-check, regardless of codec behavior
	if !s.now().Before(token.ExpiresAt) {
		return AccessToken{}, ErrTokenExpired
	}

	token.Encoded = encoded
	return token, nil
}

// HS256Codec is the default AccessTokenCodec: a symmetric JWT envelope with
// issuer and audience claims.
type HS256Codec struct {
	signingKey []byte
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
}

var _ AccessTokenCodec = (*HS256Codec)(nil)

// NewHS256Codec creates the default symmetric codec.
func NewHS256Codec(signingKey []byte, issuer string, audience []string, logger Logger) *HS256Codec {
	return &HS256Codec{
		signingKey: signingKey,
		issuer:     issuer,
		audience:   jwt.ClaimStrings(audience),
		logger:     normalizeLogger(logger),
	}
}

// Encode implements AccessTokenCodec.
func (c *HS256Codec) Encode(token AccessToken) (string, error) {
	claims := &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   token.UserKey,
			Audience:  c.audience,
			IssuedAt:  jwt.NewNumericDate(token.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(token.ExpiresAt),
		},
		UserKey: token.UserKey,
	}

	encoded, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return encoded, nil
}

// Decode implements AccessTokenCodec.
func (c *HS256Codec) Decode(encoded string) (AccessToken, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if c.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(c.issuer))
	}
	if len(c.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(c.audience...))
	}

	token, err := jwt.ParseWithClaims(encoded, &AccessClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			c.logger.Error("access token codec encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, ErrInvalidToken
		}
		return c.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return AccessToken{}, ErrTokenExpired
		}
		return AccessToken{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		c.logger.Error("access token codec could not decode claims")
		return AccessToken{}, ErrInvalidToken
	}

	return accessTokenFromClaims(claims)
}

func accessTokenFromClaims(claims *AccessClaims) (AccessToken, error) {
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return AccessToken{}, ErrInvalidToken
	}

	userKey := claims.UserKey
	if userKey == "" {
		userKey = claims.Subject
	}

	return AccessToken{
		UserKey:   userKey,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
