package gqlauth_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-gqlauth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCaptchaFixture(t *testing.T, cfg gqlauth.Config) *gqlauth.CaptchaStore {
	t.Helper()

	if cfg.TextFactory == nil {
		cfg.TextFactory = func() string { return "SECRET" }
	}
	if cfg.Renderer == nil {
		// skip PNG rendering in unit tests
		cfg.Renderer = func(text string) ([]byte, error) { return []byte("img"), nil }
	}

	return gqlauth.NewCaptchaStore(newTestRepo(t), cfg, nil)
}

func TestCaptchaStore_Create(t *testing.T) {
	ctx := context.Background()
	store := newCaptchaFixture(t, gqlauth.Config{})

	challenge, err := store.Create(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, challenge.UUID)
	assert.Equal(t, "secret", challenge.Text)
	assert.Equal(t, 0, challenge.Tries)
	assert.NotEmpty(t, challenge.ImageBase64())
}

func TestCaptchaStore_ValidateCorrectAnswer(t *testing.T) {
	ctx := context.Background()
	store := newCaptchaFixture(t, gqlauth.Config{})

	challenge, err := store.Create(ctx)
	require.NoError(t, err)

	status, err := store.Validate(ctx, challenge.UUID, "SECRET")
	require.NoError(t, err)
	assert.Equal(t, gqlauth.CaptchaValid, status)

	// challenges are single use: a solved one is gone
	status, err = store.Validate(ctx, challenge.UUID, "SECRET")
	require.NoError(t, err)
	assert.Equal(t, gqlauth.CaptchaExpired, status)
}

func TestCaptchaStore_NormalizesEntry(t *testing.T) {
	ctx := context.Background()
	store := newCaptchaFixture(t, gqlauth.Config{})

	challenge, err := store.Create(ctx)
	require.NoError(t, err)

	status, err := store.Validate(ctx, challenge.UUID, "  sEc R Et\t")
	require.NoError(t, err)
	assert.Equal(t, gqlauth.CaptchaValid, status)
}

func TestCaptchaStore_RetryCeiling(t *testing.T) {
	ctx := context.Background()
	maxRetries := 3
	store := newCaptchaFixture(t, gqlauth.Config{CaptchaMaxRetries: maxRetries})

	challenge, err := store.Create(ctx)
	require.NoError(t, err)

	// the first maxRetries wrong answers report invalid and keep the record
	for i := 0; i < maxRetries; i++ {
		status, err := store.Validate(ctx, challenge.UUID, "wrong")
		require.NoError(t, err)
		assert.Equal(t, gqlauth.CaptchaInvalid, status, "attempt %d", i+1)
	}

	// the next attempt crosses the ceiling, even with the right answer
	status, err := store.Validate(ctx, challenge.UUID, "SECRET")
	require.NoError(t, err)
	assert.Equal(t, gqlauth.CaptchaMaxRetries, status)

	// and the record is gone
	status, err = store.Validate(ctx, challenge.UUID, "SECRET")
	require.NoError(t, err)
	assert.Equal(t, gqlauth.CaptchaExpired, status)
}

func TestCaptchaStore_Expiry(t *testing.T) {
	ctx := context.Background()

	current := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	store := newCaptchaFixture(t, gqlauth.Config{
		CaptchaTTL: 5 * time.Minute,
		Clock:      clock,
	})

	challenge, err := store.Create(ctx)
	require.NoError(t, err)

	current = current.Add(6 * time.Minute)

	status, err := store.Validate(ctx, challenge.UUID, "SECRET")
	require.NoError(t, err)
	assert.Equal(t, gqlauth.CaptchaExpired, status)

	// expiry consumes the record too
	status, err = store.Validate(ctx, challenge.UUID, "SECRET")
	require.NoError(t, err)
	assert.Equal(t, gqlauth.CaptchaExpired, status)
}

func TestCaptchaStore_UnknownUUID(t *testing.T) {
	ctx := context.Background()
	store := newCaptchaFixture(t, gqlauth.Config{})

	status, err := store.Validate(ctx, uuid.New(), "whatever")
	require.NoError(t, err)
	assert.Equal(t, gqlauth.CaptchaExpired, status)
}

func TestCaptchaStatus_Err(t *testing.T) {
	assert.NoError(t, gqlauth.CaptchaValid.Err())
	assert.ErrorIs(t, gqlauth.CaptchaInvalid.Err(), gqlauth.ErrInvalidCaptcha)
	assert.ErrorIs(t, gqlauth.CaptchaExpired.Err(), gqlauth.ErrExpiredCaptcha)
	assert.ErrorIs(t, gqlauth.CaptchaMaxRetries.Err(), gqlauth.ErrCaptchaMaxRetries)
}

func TestDefaultCaptchaText(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		text := gqlauth.DefaultCaptchaText()
		assert.Len(t, text, 6)
		seen[text] = true
	}
	// random text should not repeat in a tiny sample
	assert.Greater(t, len(seen), 1)
}

func TestRenderCaptchaPNG(t *testing.T) {
	img, err := gqlauth.RenderCaptchaPNG("abc123")
	require.NoError(t, err)
	assert.NotEmpty(t, img)
	// PNG magic header
	assert.Equal(t, byte(0x89), img[0])
}
