package gqlauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// signedPayloadClaims is the wire shape of an action scoped payload token.
// The action discriminator travels inside the signed envelope so it cannot be
// stripped or rewritten without breaking the signature.
type signedPayloadClaims struct {
	Payload map[string]string `json:"pld"`
	Action  string            `json:"act"`
	jwt.RegisteredClaims
}

// PayloadSigner produces and verifies compact signed strings carrying a small
// key/value payload plus an action tag. It backs every short lived workflow
// token (activation, password reset/set, secondary email activation). The
// main access token uses AccessTokenService instead.
//
// Sign and Unsign are pure functions of (payload, secret, clock); the signer
// keeps no state and is safe for concurrent use.
type PayloadSigner struct {
	signingKey []byte
	now        Clock
}

// NewPayloadSigner creates a signer bound to a process wide symmetric secret.
// Rotating the secret invalidates all outstanding payload tokens.
func NewPayloadSigner(signingKey []byte, clock Clock) *PayloadSigner {
	return &PayloadSigner{
		signingKey: signingKey,
		now:        normalizeClock(clock),
	}
}

// Sign serializes the payload plus the action discriminator into a signed,
// timestamped string. Max age is decided by the verifier, not embedded here,
// so one token can be checked against different policies.
func (s *PayloadSigner) Sign(payload map[string]string, action ActionTag) (string, error) {
	if action == "" {
		return "", goerrors.New("action tag is required", goerrors.CategoryBadInput)
	}

	claims := &signedPayloadClaims{
		Payload: payload,
		Action:  string(action),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign payload")
	}

	return signed, nil
}

// Unsign verifies the signature, the elapsed age, and the action tag, in that
// order, and returns the embedded payload. It fails closed:
//   - ErrBadSignature for tampered or malformed tokens
//   - ErrSignatureExpired when now - issuedAt exceeds maxAge
//   - ErrTokenScope when the action tag does not match expected
func (s *PayloadSigner) Unsign(encoded string, expected ActionTag, maxAge time.Duration) (map[string]string, error) {
	token, err := jwt.ParseWithClaims(encoded, &signedPayloadClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadSignature
		}
		return s.signingKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrBadSignature
	}

	claims, ok := token.Claims.(*signedPayloadClaims)
	if !ok || claims.IssuedAt == nil {
		return nil, ErrBadSignature
	}

	if s.now().Sub(claims.IssuedAt.Time) > maxAge {
		return nil, ErrSignatureExpired
	}

	if claims.Action != string(expected) {
		return nil, ErrTokenScope
	}

	return claims.Payload, nil
}
