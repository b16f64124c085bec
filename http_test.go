package gqlauth_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-gqlauth"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func httpTestConfig() gqlauth.Config {
	cfg := gqlauth.DefaultConfig()
	cfg.SigningKey = "http-test-signing-key"
	return cfg
}

func TestTokenFromRequest_Header(t *testing.T) {
	cfg := httpTestConfig()

	t.Run("bearer header", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer abc.def.ghi")

		token, err := gqlauth.TokenFromRequest(ctx, cfg)
		require.NoError(t, err)
		assert.Equal(t, "abc.def.ghi", token)
	})

	t.Run("missing header", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("")

		_, err := gqlauth.TokenFromRequest(ctx, cfg)
		assert.ErrorIs(t, err, gqlauth.ErrTokenMissingOrMalformed)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Basic dXNlcjpwYXNz")

		_, err := gqlauth.TokenFromRequest(ctx, cfg)
		assert.ErrorIs(t, err, gqlauth.ErrTokenMissingOrMalformed)
	})
}

func TestTokenFromRequest_LookupChain(t *testing.T) {
	cfg := httpTestConfig()
	cfg.TokenLookup = "header:Authorization,cookie:jwt,query:auth_token"

	t.Run("cookie fallback", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("")
		ctx.On("Cookies", "jwt").Return("cookie-token")

		token, err := gqlauth.TokenFromRequest(ctx, cfg)
		require.NoError(t, err)
		assert.Equal(t, "cookie-token", token)
	})

	t.Run("query fallback", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("")
		ctx.On("Cookies", "jwt").Return("")
		ctx.On("Query", "auth_token", "").Return("query-token")

		token, err := gqlauth.TokenFromRequest(ctx, cfg)
		require.NoError(t, err)
		assert.Equal(t, "query-token", token)
	})

	t.Run("nothing present", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("")
		ctx.On("Cookies", "jwt").Return("")
		ctx.On("Query", "auth_token", "").Return("")

		_, err := gqlauth.TokenFromRequest(ctx, cfg)
		assert.ErrorIs(t, err, gqlauth.ErrTokenMissingOrMalformed)
	})
}

func TestTokenExtractors_SkipsMalformedEntries(t *testing.T) {
	extractors := gqlauth.TokenExtractors("header:Authorization,badentry,query:token")
	assert.Len(t, extractors, 2)
}

func TestAuthenticateRequest(t *testing.T) {
	cfg := httpTestConfig()
	repo := newTestRepo(t)
	backend := &MockBackend{}
	m := gqlauth.NewMutator(cfg, backend, repo)

	user := testUser{key: "11111111-2222-3333-4444-555555555555", email: "ctx@example.com"}
	issued, err := m.AccessTokens().Issue(user.key)
	require.NoError(t, err)

	t.Run("valid bearer loads user and token", func(t *testing.T) {
		backend.On("LookupByKey", mock.Anything, user.key).Return(user, nil).Once()

		rc := router.NewMockContext()
		rc.On("GetString", "Authorization", "").Return("Bearer " + issued.Encoded)

		ctx, err := gqlauth.AuthenticateRequest(context.Background(), rc, m, backend)
		require.NoError(t, err)

		got, ok := gqlauth.FromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, user.key, got.Key())

		token, ok := gqlauth.TokenFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, user.key, token.UserKey)
	})

	t.Run("no credential passes through", func(t *testing.T) {
		rc := router.NewMockContext()
		rc.On("GetString", "Authorization", "").Return("")

		ctx, err := gqlauth.AuthenticateRequest(context.Background(), rc, m, backend)
		require.NoError(t, err)

		_, ok := gqlauth.FromContext(ctx)
		assert.False(t, ok)
	})

	t.Run("garbage token errors", func(t *testing.T) {
		rc := router.NewMockContext()
		rc.On("GetString", "Authorization", "").Return("Bearer not-a-jwt")

		_, err := gqlauth.AuthenticateRequest(context.Background(), rc, m, backend)
		assert.Error(t, err)
	})
}
