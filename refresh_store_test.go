package gqlauth_test

import (
	"context"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-gqlauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRefreshFixture(t *testing.T, ttl time.Duration, clock gqlauth.Clock) (*gqlauth.RefreshTokenStore, *gqlauth.AccessTokenService) {
	t.Helper()

	repo := newTestRepo(t)
	access := newAccessService(5*time.Minute, clock)
	store := gqlauth.NewRefreshTokenStore(repo, access, ttl, 32, clock, nil)
	return store, access
}

func TestRefreshTokenStore_IssueFor(t *testing.T) {
	ctx := context.Background()
	store, _ := newRefreshFixture(t, 7*24*time.Hour, nil)

	token, err := store.IssueFor(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, "user-1", token.UserKey)
	// 32 random bytes, hex encoded
	assert.Len(t, token.Token, 64)
	assert.Nil(t, token.RevokedAt)
	assert.False(t, token.Revoked())

	other, err := store.IssueFor(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEqual(t, token.Token, other.Token)
}

func TestRefreshTokenStore_FindActive(t *testing.T) {
	ctx := context.Background()
	store, _ := newRefreshFixture(t, 7*24*time.Hour, nil)

	issued, err := store.IssueFor(ctx, "user-1")
	require.NoError(t, err)

	found, err := store.FindActive(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, issued.ID, found.ID)

	_, err = store.FindActive(ctx, "no-such-token")
	assert.True(t, goerrors.Is(err, gqlauth.ErrInvalidToken))
}

func TestRefreshTokenStore_RevokeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, _ := newRefreshFixture(t, 7*24*time.Hour, nil)

	issued, err := store.IssueFor(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, store.Revoke(ctx, issued))

	_, err = store.FindActive(ctx, issued.Token)
	assert.True(t, goerrors.Is(err, gqlauth.ErrInvalidToken))

	// second revocation is a no-op, not an error
	require.NoError(t, store.Revoke(ctx, issued))
}

func TestRefreshTokenStore_Rotate(t *testing.T) {
	ctx := context.Background()
	store, _ := newRefreshFixture(t, 7*24*time.Hour, nil)

	issued, err := store.IssueFor(ctx, "user-1")
	require.NoError(t, err)

	access, next, err := store.Rotate(ctx, issued.Token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", access.UserKey)
	assert.NotEmpty(t, access.Encoded)
	assert.Equal(t, "user-1", next.UserKey)
	assert.NotEqual(t, issued.Token, next.Token)

	t.Run("consumed token cannot rotate again", func(t *testing.T) {
		_, _, err := store.Rotate(ctx, issued.Token)
		assert.True(t, goerrors.Is(err, gqlauth.ErrInvalidToken))
	})

	t.Run("replacement token still rotates", func(t *testing.T) {
		_, _, err := store.Rotate(ctx, next.Token)
		assert.NoError(t, err)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, _, err := store.Rotate(ctx, "no-such-token")
		assert.True(t, goerrors.Is(err, gqlauth.ErrInvalidToken))
	})
}

func TestRefreshTokenStore_RotateExpired(t *testing.T) {
	ctx := context.Background()

	current := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	store, _ := newRefreshFixture(t, time.Hour, clock)

	issued, err := store.IssueFor(ctx, "user-1")
	require.NoError(t, err)

	current = current.Add(time.Hour + time.Minute)

	_, _, err = store.Rotate(ctx, issued.Token)
	assert.True(t, goerrors.Is(err, gqlauth.ErrTokenExpired))
}

func TestRefreshTokenStore_RevokeAllForUser(t *testing.T) {
	ctx := context.Background()
	store, _ := newRefreshFixture(t, 7*24*time.Hour, nil)

	first, err := store.IssueFor(ctx, "user-1")
	require.NoError(t, err)
	second, err := store.IssueFor(ctx, "user-1")
	require.NoError(t, err)
	other, err := store.IssueFor(ctx, "user-2")
	require.NoError(t, err)

	store.RevokeAllForUser(ctx, "user-1")

	_, err = store.FindActive(ctx, first.Token)
	assert.True(t, goerrors.Is(err, gqlauth.ErrInvalidToken))
	_, err = store.FindActive(ctx, second.Token)
	assert.True(t, goerrors.Is(err, gqlauth.ErrInvalidToken))

	// unrelated users keep their sessions
	_, err = store.FindActive(ctx, other.Token)
	assert.NoError(t, err)
}
