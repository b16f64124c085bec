package gqlauth

import (
	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// AccessTokenCodec is the pluggable encoding behind AccessTokenService.
// Implementations must produce tamper evident strings that round trip the
// user key plus issued-at and expires-at timestamps. Expiry is re-checked by
// the service, so a codec cannot weaken it, only tighten it.
type AccessTokenCodec interface {
	Encode(token AccessToken) (string, error)
	Decode(encoded string) (AccessToken, error)
}

// DecodeOnlyCodec wraps a decoder that cannot mint tokens, e.g. a JWKS backed
// verifier for externally issued credentials.
type DecodeOnlyCodec struct {
	decoder interface {
		Decode(encoded string) (AccessToken, error)
	}
}

// NewDecodeOnlyCodec wraps a decoder into a codec usable by AccessTokenService.
func NewDecodeOnlyCodec(decoder interface {
	Decode(encoded string) (AccessToken, error)
}) DecodeOnlyCodec {
	return DecodeOnlyCodec{decoder: decoder}
}

// Encode always fails; issuance belongs to the external identity provider.
func (c DecodeOnlyCodec) Encode(AccessToken) (string, error) {
	return "", goerrors.New("codec is decode only", goerrors.CategoryOperation)
}

// Decode delegates to the wrapped decoder.
func (c DecodeOnlyCodec) Decode(encoded string) (AccessToken, error) {
	if c.decoder == nil {
		return AccessToken{}, ErrInvalidToken
	}
	return c.decoder.Decode(encoded)
}

// JWKSDecoder validates asymmetric tokens against one or more JWK Set URLs.
// Wrap it in DecodeOnlyCodec to plug it into AccessTokenService.
type JWKSDecoder struct {
	keyFunc jwt.Keyfunc
	issuer  string
	logger  Logger
}

// NewJWKSDecoder fetches and caches the key sets behind the given URLs.
func NewJWKSDecoder(urls []string, issuer string, logger Logger) (*JWKSDecoder, error) {
	if len(urls) == 0 {
		return nil, goerrors.New("at least one JWK Set URL is required", goerrors.CategoryBadInput)
	}

	opts := make(map[string]keyfunc.Options, len(urls))
	for _, url := range urls {
		opts[url] = keyfunc.Options{}
	}

	multi, err := keyfunc.GetMultiple(opts, keyfunc.MultipleOptions{
		KeySelector: keyfunc.KeySelectorFirst,
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to fetch JWK Sets")
	}

	return &JWKSDecoder{
		keyFunc: multi.Keyfunc,
		issuer:  issuer,
		logger:  normalizeLogger(logger),
	}, nil
}

// NewJWKSDecoderFromKeys builds a decoder from statically provisioned keys,
// useful when the key material is distributed out of band.
func NewJWKSDecoderFromKeys(keys map[string]keyfunc.GivenKey, issuer string, logger Logger) *JWKSDecoder {
	return &JWKSDecoder{
		keyFunc: keyfunc.NewGiven(keys).Keyfunc,
		issuer:  issuer,
		logger:  normalizeLogger(logger),
	}
}

// Decode verifies the token against the key set and maps it into an AccessToken.
func (d *JWKSDecoder) Decode(encoded string) (AccessToken, error) {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if d.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(d.issuer))
	}

	token, err := jwt.ParseWithClaims(encoded, &AccessClaims{}, d.keyFunc, parserOptions...)
	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return AccessToken{}, ErrTokenExpired
		}
		return AccessToken{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		d.logger.Error("JWKS decoder could not map claims")
		return AccessToken{}, ErrInvalidToken
	}

	return accessTokenFromClaims(claims)
}

// MultiCodec tries codecs in order until one decodes the token. Encoding
// always uses the first codec. Invalid-token failures mean "try next";
// expired tokens stop the chain since the token verified against a key.
type MultiCodec struct {
	codecs []AccessTokenCodec
}

// NewMultiCodec filters nil codecs and returns a composite codec.
func NewMultiCodec(codecs ...AccessTokenCodec) *MultiCodec {
	filtered := make([]AccessTokenCodec, 0, len(codecs))
	for _, c := range codecs {
		if c != nil {
			filtered = append(filtered, c)
		}
	}
	return &MultiCodec{codecs: filtered}
}

// Encode implements AccessTokenCodec.
func (m *MultiCodec) Encode(token AccessToken) (string, error) {
	if len(m.codecs) == 0 {
		return "", goerrors.New("no codecs configured", goerrors.CategoryOperation)
	}
	return m.codecs[0].Encode(token)
}

// Decode implements AccessTokenCodec.
func (m *MultiCodec) Decode(encoded string) (AccessToken, error) {
	var lastErr error
	for _, c := range m.codecs {
		token, err := c.Decode(encoded)
		if err == nil {
			return token, nil
		}
		if IsInvalidTokenError(err) {
			lastErr = err
			continue
		}
		return AccessToken{}, err
	}
	if lastErr != nil {
		return AccessToken{}, lastErr
	}
	return AccessToken{}, ErrInvalidToken
}
