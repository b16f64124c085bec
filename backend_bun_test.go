package gqlauth_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-gqlauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackendFixture(t *testing.T) (*gqlauth.BunBackend, gqlauth.RepositoryManager) {
	t.Helper()

	repo := gqlauth.NewRepositoryManager(newTestDB(t))
	backend := gqlauth.NewBunBackend(repo.Users(), nil, nil)
	return backend, repo
}

func registerUser(t *testing.T, backend *gqlauth.BunBackend, input gqlauth.RegisterInput) gqlauth.UserRef {
	t.Helper()

	ref, err := backend.Register(context.Background(), input)
	require.NoError(t, err)
	return ref
}

func TestBunBackend_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	backend, _ := newBackendFixture(t)

	ref := registerUser(t, backend, gqlauth.RegisterInput{
		Email:    "Pepe@Example.com",
		Password: "super-secret-pass",
		Verified: true,
	})

	assert.NotEmpty(t, ref.Key())
	// emails are normalized on the way in
	assert.Equal(t, "pepe@example.com", ref.Email())

	t.Run("login with email", func(t *testing.T) {
		got, err := backend.Login(ctx, "pepe@example.com", "super-secret-pass")
		require.NoError(t, err)
		assert.Equal(t, ref.Key(), got.Key())
	})

	t.Run("login with username", func(t *testing.T) {
		got, err := backend.Login(ctx, "pepe", "super-secret-pass")
		require.NoError(t, err)
		assert.Equal(t, ref.Key(), got.Key())
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := backend.Login(ctx, "pepe@example.com", "nope")
		assert.True(t, goerrors.Is(err, gqlauth.ErrInvalidCredentials))
	})

	t.Run("unknown identifier", func(t *testing.T) {
		_, err := backend.Login(ctx, "ghost@example.com", "super-secret-pass")
		assert.True(t, goerrors.Is(err, gqlauth.ErrInvalidCredentials))
	})
}

func TestBunBackend_RegisterWithoutPassword(t *testing.T) {
	ctx := context.Background()
	backend, _ := newBackendFixture(t)

	ref := registerUser(t, backend, gqlauth.RegisterInput{
		Email:    "imported@example.com",
		Verified: true,
	})

	usable, err := backend.HasUsablePassword(ctx, ref)
	require.NoError(t, err)
	assert.False(t, usable)

	// login must fail until the password-set flow completes
	_, err = backend.Login(ctx, "imported@example.com", "")
	assert.True(t, goerrors.Is(err, gqlauth.ErrInvalidCredentials))

	require.NoError(t, backend.SetPassword(ctx, ref, "first-real-password"))

	usable, err = backend.HasUsablePassword(ctx, ref)
	require.NoError(t, err)
	assert.True(t, usable)

	_, err = backend.Login(ctx, "imported@example.com", "first-real-password")
	assert.NoError(t, err)
}

func TestBunBackend_RegisterDeterministicKey(t *testing.T) {
	backend, _ := newBackendFixture(t)

	ref := registerUser(t, backend, gqlauth.RegisterInput{
		Key:      "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		Email:    "keyed@example.com",
		Password: "super-secret-pass",
	})

	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", ref.Key())
}

func TestBunBackend_VerificationState(t *testing.T) {
	ctx := context.Background()
	backend, _ := newBackendFixture(t)

	ref := registerUser(t, backend, gqlauth.RegisterInput{
		Email:    "fresh@example.com",
		Password: "super-secret-pass",
	})

	verified, err := backend.IsVerified(ctx, ref)
	require.NoError(t, err)
	assert.False(t, verified)

	require.NoError(t, backend.SetVerified(ctx, ref, true))

	verified, err = backend.IsVerified(ctx, ref)
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestBunBackend_ArchiveRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend, _ := newBackendFixture(t)

	ref := registerUser(t, backend, gqlauth.RegisterInput{
		Email:    "arch@example.com",
		Password: "super-secret-pass",
		Verified: true,
	})

	archived, err := backend.IsArchived(ctx, ref)
	require.NoError(t, err)
	assert.False(t, archived)

	require.NoError(t, backend.SetArchived(ctx, ref, true))

	archived, err = backend.IsArchived(ctx, ref)
	require.NoError(t, err)
	assert.True(t, archived)

	require.NoError(t, backend.SetArchived(ctx, ref, false))

	archived, err = backend.IsArchived(ctx, ref)
	require.NoError(t, err)
	assert.False(t, archived)
}

func TestBunBackend_CheckAndSetPassword(t *testing.T) {
	ctx := context.Background()
	backend, _ := newBackendFixture(t)

	ref := registerUser(t, backend, gqlauth.RegisterInput{
		Email:    "pw@example.com",
		Password: "original-password",
		Verified: true,
	})

	assert.NoError(t, backend.CheckPassword(ctx, ref, "original-password"))
	assert.True(t, goerrors.Is(backend.CheckPassword(ctx, ref, "wrong"), gqlauth.ErrInvalidPassword))

	require.NoError(t, backend.SetPassword(ctx, ref, "replacement-password"))

	assert.NoError(t, backend.CheckPassword(ctx, ref, "replacement-password"))
	assert.Error(t, backend.CheckPassword(ctx, ref, "original-password"))
}

func TestBunBackend_SecondaryEmail(t *testing.T) {
	ctx := context.Background()
	backend, _ := newBackendFixture(t)

	ref := registerUser(t, backend, gqlauth.RegisterInput{
		Email:    "primary@example.com",
		Password: "super-secret-pass",
		Verified: true,
	})

	require.NoError(t, backend.SetSecondaryEmail(ctx, ref, "secondary@example.com"))

	fresh, err := backend.LookupByKey(ctx, ref.Key())
	require.NoError(t, err)
	assert.Equal(t, "secondary@example.com", fresh.SecondaryEmail())

	t.Run("lookup matches secondary", func(t *testing.T) {
		got, err := backend.LookupByEmail(ctx, "secondary@example.com")
		require.NoError(t, err)
		assert.Equal(t, ref.Key(), got.Key())
	})

	t.Run("swap", func(t *testing.T) {
		require.NoError(t, backend.SwapEmails(ctx, ref))

		fresh, err := backend.LookupByKey(ctx, ref.Key())
		require.NoError(t, err)
		assert.Equal(t, "secondary@example.com", fresh.Email())
		assert.Equal(t, "primary@example.com", fresh.SecondaryEmail())
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, backend.RemoveSecondaryEmail(ctx, ref))

		fresh, err := backend.LookupByKey(ctx, ref.Key())
		require.NoError(t, err)
		assert.Empty(t, fresh.SecondaryEmail())
	})
}

func TestBunBackend_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("soft delete keeps the row hidden", func(t *testing.T) {
		backend, _ := newBackendFixture(t)
		ref := registerUser(t, backend, gqlauth.RegisterInput{
			Email:    "soft@example.com",
			Password: "super-secret-pass",
			Verified: true,
		})

		require.NoError(t, backend.Delete(ctx, ref, false))

		_, err := backend.LookupByKey(ctx, ref.Key())
		assert.Error(t, err)
	})

	t.Run("hard delete drops the row", func(t *testing.T) {
		backend, _ := newBackendFixture(t)
		ref := registerUser(t, backend, gqlauth.RegisterInput{
			Email:    "hard@example.com",
			Password: "super-secret-pass",
			Verified: true,
		})

		require.NoError(t, backend.Delete(ctx, ref, true))

		_, err := backend.LookupByKey(ctx, ref.Key())
		assert.Error(t, err)
	})
}

func TestBunBackend_SendEmailWithoutSender(t *testing.T) {
	ctx := context.Background()
	backend, _ := newBackendFixture(t)

	ref := registerUser(t, backend, gqlauth.RegisterInput{
		Email:    "mail@example.com",
		Password: "super-secret-pass",
	})

	// nil sender drops the message instead of failing the mutation
	assert.NoError(t, backend.SendEmail(ctx, gqlauth.EmailActivation, ref, map[string]string{"token": "t"}))
}
