package gqlauth

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// ErrTokenMissingOrMalformed is returned by extractors when no credential is
// present in the configured location.
var ErrTokenMissingOrMalformed = goerrors.New(
	"missing or malformed token",
	goerrors.CategoryAuth,
).WithTextCode(TextCodeUnauthenticated).WithCode(goerrors.CodeUnauthorized)

// TokenExtractor pulls a raw bearer credential out of an inbound request.
type TokenExtractor func(c router.Context) (string, error)

// TokenExtractors parses a token lookup definition into a chain of
// extractors. The syntax is a comma separated list of source:name pairs:
//
//	header:Authorization,cookie:jwt,query:auth_token,param:token
func TokenExtractors(tokenLookup string, authSchemes ...string) []TokenExtractor {
	extractors := make([]TokenExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 {
		authScheme = authSchemes[0]
	}

	rootParts := strings.Split(tokenLookup, ",")
	for _, rootPart := range rootParts {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")
		if len(parts) < 2 {
			continue
		}

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, tokenFromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, tokenFromQuery(parts[1]))
		case "param":
			extractors = append(extractors, tokenFromParam(parts[1]))
		case "cookie":
			extractors = append(extractors, tokenFromCookie(parts[1]))
		}
	}

	return extractors
}

// TokenFromRequest locates the bearer credential per cfg.TokenLookup. The
// first extractor that yields a token wins.
func TokenFromRequest(c router.Context, cfg Config) (string, error) {
	cfg = cfg.withDefaults()

	for _, extractor := range TokenExtractors(cfg.TokenLookup, cfg.AuthScheme) {
		if token, err := extractor(c); err == nil && token != "" {
			return token, nil
		}
	}

	return "", ErrTokenMissingOrMalformed
}

// TokenFromFiberRequest is the fiber flavored twin of TokenFromRequest, for
// GraphQL servers mounted directly on a fiber app.
func TokenFromFiberRequest(c *fiber.Ctx, cfg Config) (string, error) {
	cfg = cfg.withDefaults()

	rootParts := strings.Split(cfg.TokenLookup, ",")
	for _, rootPart := range rootParts {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")
		if len(parts) < 2 {
			continue
		}

		source := strings.TrimSpace(parts[0])
		name := strings.TrimSpace(parts[1])

		var raw string
		switch source {
		case "header":
			raw = stripAuthScheme(c.Get(name), cfg.AuthScheme)
		case "query":
			raw = c.Query(name)
		case "param":
			raw = c.Params(name)
		case "cookie":
			raw = c.Cookies(name)
		}

		if raw != "" {
			return raw, nil
		}
	}

	return "", ErrTokenMissingOrMalformed
}

// AuthenticateRequest decodes the request's bearer token and loads the user
// it names into the returned context. Resolvers pick both up through
// FromContext and TokenFromContext. Requests without a credential pass
// through untouched; individual mutations decide whether that matters.
func AuthenticateRequest(ctx context.Context, c router.Context, m *Mutator, backend CredentialBackend) (context.Context, error) {
	raw, err := TokenFromRequest(c, m.deps.cfg)
	if err != nil {
		return ctx, nil
	}

	token, err := m.AccessTokens().Decode(raw)
	if err != nil {
		return ctx, err
	}

	ref, err := backend.LookupByKey(ctx, token.UserKey)
	if err != nil {
		return ctx, ErrUnauthenticated
	}

	ctx = WithContext(ctx, ref)
	ctx = WithTokenContext(ctx, token)
	return ctx, nil
}

func tokenFromHeader(header string, authScheme string) TokenExtractor {
	return func(c router.Context) (string, error) {
		a := c.GetString(header, "")
		l := len(authScheme)
		if l == 0 {
			fmt.Println("[WARNING] Missing auth scheme in config definition")
			return "", ErrTokenMissingOrMalformed
		}
		authScheme = strings.TrimSpace(authScheme)
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrTokenMissingOrMalformed
	}
}

func tokenFromQuery(param string) TokenExtractor {
	return func(c router.Context) (string, error) {
		token := c.Query(param, "")
		if token == "" {
			return "", ErrTokenMissingOrMalformed
		}
		return token, nil
	}
}

func tokenFromParam(param string) TokenExtractor {
	return func(c router.Context) (string, error) {
		token := c.Param(param)
		if token == "" {
			return "", ErrTokenMissingOrMalformed
		}
		return token, nil
	}
}

func tokenFromCookie(name string) TokenExtractor {
	return func(c router.Context) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrTokenMissingOrMalformed
		}
		return token, nil
	}
}

func stripAuthScheme(value, authScheme string) string {
	if value == "" {
		return ""
	}

	authScheme = strings.TrimSpace(authScheme)
	if authScheme == "" {
		return strings.TrimSpace(value)
	}

	l := len(authScheme)
	if len(value) > l+1 && strings.EqualFold(value[:l], authScheme) {
		return strings.TrimSpace(value[l:])
	}

	return ""
}
