package gqlauth

import (
	"context"
	"strings"
	"time"
	"unicode"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// CaptchaStatus is the terminal or non-terminal result of a validation attempt.
type CaptchaStatus string

const (
	CaptchaValid      CaptchaStatus = "valid"
	CaptchaInvalid    CaptchaStatus = "invalid"
	CaptchaExpired    CaptchaStatus = "expired"
	CaptchaMaxRetries CaptchaStatus = "max_retries"
)

// Err maps terminal failure statuses to their boundary errors, nil for valid.
func (s CaptchaStatus) Err() error {
	switch s {
	case CaptchaValid:
		return nil
	case CaptchaInvalid:
		return ErrInvalidCaptcha
	case CaptchaMaxRetries:
		return ErrCaptchaMaxRetries
	default:
		return ErrExpiredCaptcha
	}
}

// CaptchaTextFactory produces the display text of a new challenge.
type CaptchaTextFactory func() string

// CaptchaTextMatcher compares the normalized stored text with the normalized
// user entry.
type CaptchaTextMatcher func(stored, entry string) bool

// CaptchaRenderer draws the text into image bytes (PNG by default).
type CaptchaRenderer func(text string) ([]byte, error)

// CaptchaStore creates and validates single-use image challenges. Challenges
// live in the database with a retry counter; every terminal outcome deletes
// the record so a challenge can never be reused.
type CaptchaStore struct {
	repo       RepositoryManager
	maxRetries int
	ttl        time.Duration
	factory    CaptchaTextFactory
	matcher    CaptchaTextMatcher
	renderer   CaptchaRenderer
	now        Clock
	logger     Logger
}

// NewCaptchaStore wires the store; nil hooks fall back to the defaults in
// captcha_render.go.
func NewCaptchaStore(repo RepositoryManager, cfg Config, logger Logger) *CaptchaStore {
	cfg = cfg.withDefaults()

	factory := cfg.TextFactory
	if factory == nil {
		factory = DefaultCaptchaText
	}
	matcher := cfg.TextMatcher
	if matcher == nil {
		matcher = func(stored, entry string) bool { return stored == entry }
	}
	renderer := cfg.Renderer
	if renderer == nil {
		renderer = RenderCaptchaPNG
	}

	return &CaptchaStore{
		repo:       repo,
		maxRetries: cfg.CaptchaMaxRetries,
		ttl:        cfg.CaptchaTTL,
		factory:    factory,
		matcher:    matcher,
		renderer:   renderer,
		now:        normalizeClock(cfg.Clock),
		logger:     normalizeLogger(logger),
	}
}

// WithLogger replaces the store logger.
func (s *CaptchaStore) WithLogger(logger Logger) *CaptchaStore {
	s.logger = normalizeLogger(logger)
	return s
}

// Create generates, renders, and persists a fresh challenge.
func (s *CaptchaStore) Create(ctx context.Context) (*CaptchaChallenge, error) {
	text := s.factory()
	if text == "" {
		return nil, goerrors.New("captcha text factory returned empty text", goerrors.CategoryInternal)
	}

	image, err := s.renderer(text)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to render captcha image")
	}

	record := &CaptchaChallenge{
		UUID:       uuid.New(),
		Text:       normalizeCaptchaText(text),
		InsertedAt: s.now(),
		Tries:      0,
		Image:      image,
	}

	record, err = s.repo.CaptchaChallenges().Create(ctx, record)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist captcha challenge")
	}

	return record, nil
}

// Validate runs one attempt against a challenge. The order matters: the try
// is counted and persisted first, then checked against the ceiling, so with
// MaxRetries = k the k-th wrong answer still reports invalid (record survives
// with tries == k) and the (k+1)-th attempt is the one that deletes the
// challenge and reports max retries. Unknown uuids report expired; callers
// cannot distinguish "never existed" from "expired or consumed".
func (s *CaptchaStore) Validate(ctx context.Context, id uuid.UUID, entry string) (CaptchaStatus, error) {
	record, err := s.repo.CaptchaChallenges().GetByUUID(ctx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return CaptchaExpired, nil
		}
		return CaptchaExpired, err
	}

	record.Tries++
	if err := s.repo.CaptchaChallenges().SetTries(ctx, record.UUID, record.Tries); err != nil {
		return CaptchaInvalid, err
	}

	if record.Tries > s.maxRetries {
		if err := s.delete(ctx, record.UUID); err != nil {
			return CaptchaMaxRetries, err
		}
		return CaptchaMaxRetries, nil
	}

	if s.now().After(record.InsertedAt.Add(s.ttl)) {
		if err := s.delete(ctx, record.UUID); err != nil {
			return CaptchaExpired, err
		}
		return CaptchaExpired, nil
	}

	if s.matcher(record.Text, normalizeCaptchaText(entry)) {
		if err := s.delete(ctx, record.UUID); err != nil {
			return CaptchaValid, err
		}
		return CaptchaValid, nil
	}

	return CaptchaInvalid, nil
}

func (s *CaptchaStore) delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.CaptchaChallenges().DeleteByUUID(ctx, id); err != nil {
		s.logger.Error("failed to delete captcha challenge", "uuid", id, "error", err)
		return err
	}
	return nil
}

// normalizeCaptchaText lowercases and strips all whitespace, including
// internal runs, so "H e LLO" matches "hello".
func normalizeCaptchaText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
