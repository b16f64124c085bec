package gqlauth_test

import (
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-gqlauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadSigner_RoundTrip(t *testing.T) {
	signer := gqlauth.NewPayloadSigner([]byte("test-signing-key"), nil)

	payload := map[string]string{"user": "user-1", "email": "pepe@example.com"}

	encoded, err := signer.Sign(payload, gqlauth.ActionActivation)
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	decoded, err := signer.Unsign(encoded, gqlauth.ActionActivation, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestPayloadSigner_RequiresAction(t *testing.T) {
	signer := gqlauth.NewPayloadSigner([]byte("test-signing-key"), nil)

	_, err := signer.Sign(map[string]string{"user": "u"}, "")
	assert.Error(t, err)
}

func TestPayloadSigner_RejectsTampering(t *testing.T) {
	signer := gqlauth.NewPayloadSigner([]byte("test-signing-key"), nil)

	encoded, err := signer.Sign(map[string]string{"user": "user-1"}, gqlauth.ActionActivation)
	require.NoError(t, err)

	t.Run("flipped payload byte", func(t *testing.T) {
		parts := strings.Split(encoded, ".")
		require.Len(t, parts, 3)
		tampered := parts[0] + "." + parts[1] + "xx." + parts[2]

		_, err := signer.Unsign(tampered, gqlauth.ActionActivation, time.Hour)
		assert.True(t, goerrors.Is(err, gqlauth.ErrBadSignature))
	})

	t.Run("different key", func(t *testing.T) {
		other := gqlauth.NewPayloadSigner([]byte("another-key"), nil)
		_, err := other.Unsign(encoded, gqlauth.ActionActivation, time.Hour)
		assert.True(t, goerrors.Is(err, gqlauth.ErrBadSignature))
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := signer.Unsign("not-a-token", gqlauth.ActionActivation, time.Hour)
		assert.True(t, goerrors.Is(err, gqlauth.ErrBadSignature))
	})
}

func TestPayloadSigner_ScopeIsolation(t *testing.T) {
	signer := gqlauth.NewPayloadSigner([]byte("test-signing-key"), nil)

	encoded, err := signer.Sign(map[string]string{"user": "user-1"}, gqlauth.ActionPasswordReset)
	require.NoError(t, err)

	// a token minted for one workflow is never accepted by another
	for _, action := range []gqlauth.ActionTag{
		gqlauth.ActionActivation,
		gqlauth.ActionPasswordSet,
		gqlauth.ActionActivationSecondaryEmail,
	} {
		_, err := signer.Unsign(encoded, action, time.Hour)
		assert.True(t, goerrors.Is(err, gqlauth.ErrTokenScope), "action %s should be rejected", action)
	}

	_, err = signer.Unsign(encoded, gqlauth.ActionPasswordReset, time.Hour)
	assert.NoError(t, err)
}

func TestPayloadSigner_MaxAge(t *testing.T) {
	current := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	signer := gqlauth.NewPayloadSigner([]byte("test-signing-key"), clock)

	encoded, err := signer.Sign(map[string]string{"user": "user-1"}, gqlauth.ActionActivation)
	require.NoError(t, err)

	t.Run("valid within max age", func(t *testing.T) {
		current = current.Add(30 * time.Minute)
		_, err := signer.Unsign(encoded, gqlauth.ActionActivation, time.Hour)
		assert.NoError(t, err)
	})

	t.Run("expired past max age", func(t *testing.T) {
		current = current.Add(45 * time.Minute)
		_, err := signer.Unsign(encoded, gqlauth.ActionActivation, time.Hour)
		assert.True(t, goerrors.Is(err, gqlauth.ErrSignatureExpired))
	})

	t.Run("signature checked before age", func(t *testing.T) {
		other := gqlauth.NewPayloadSigner([]byte("another-key"), clock)
		_, err := other.Unsign(encoded, gqlauth.ActionActivation, time.Minute)
		assert.True(t, goerrors.Is(err, gqlauth.ErrBadSignature))
	})
}
