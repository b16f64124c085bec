package gqlauth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RefreshTokenStore owns the lifecycle of refresh tokens: random issuance,
// computed expiry, idempotent revocation, and single-use rotation into a new
// access/refresh token pair.
type RefreshTokenStore struct {
	repo       RepositoryManager
	accessSvc  *AccessTokenService
	ttl        time.Duration
	tokenBytes int
	now        Clock
	logger     Logger
}

// NewRefreshTokenStore wires the store. accessSvc is only needed for Rotate;
// pass nil when rotation happens elsewhere.
func NewRefreshTokenStore(repo RepositoryManager, accessSvc *AccessTokenService, ttl time.Duration, tokenBytes int, clock Clock, logger Logger) *RefreshTokenStore {
	if tokenBytes <= 0 {
		tokenBytes = DefaultConfig().RefreshTokenBytes
	}

	return &RefreshTokenStore{
		repo:       repo,
		accessSvc:  accessSvc,
		ttl:        ttl,
		tokenBytes: tokenBytes,
		now:        normalizeClock(clock),
		logger:     normalizeLogger(logger),
	}
}

// WithLogger replaces the store logger.
func (s *RefreshTokenStore) WithLogger(logger Logger) *RefreshTokenStore {
	s.logger = normalizeLogger(logger)
	return s
}

// IssueFor persists a fresh active token bound to the given user key.
func (s *RefreshTokenStore) IssueFor(ctx context.Context, userKey string) (*RefreshToken, error) {
	return s.issueForTx(ctx, nil, userKey)
}

func (s *RefreshTokenStore) issueForTx(ctx context.Context, tx bun.IDB, userKey string) (*RefreshToken, error) {
	if userKey == "" {
		return nil, goerrors.New("user key is required", goerrors.CategoryBadInput)
	}

	raw := make([]byte, s.tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate refresh token")
	}

	record := &RefreshToken{
		ID:        uuid.New(),
		UserKey:   userKey,
		Token:     hex.EncodeToString(raw),
		CreatedAt: s.now(),
	}

	var err error
	if tx != nil {
		record, err = s.repo.RefreshTokens().CreateTx(ctx, tx, record)
	} else {
		record, err = s.repo.RefreshTokens().Create(ctx, record)
	}
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist refresh token")
	}

	return record, nil
}

// IsExpired reports whether a token can no longer mint successors, either
// because it was revoked or because its computed lifetime ran out.
func (s *RefreshTokenStore) IsExpired(token *RefreshToken) bool {
	if token == nil || token.Revoked() {
		return true
	}
	return s.now().After(token.CreatedAt.Add(s.ttl))
}

// FindActive looks up a not-revoked token by raw value. Revoked or unknown
// values both report ErrInvalidToken.
func (s *RefreshTokenStore) FindActive(ctx context.Context, raw string) (*RefreshToken, error) {
	record, err := s.repo.RefreshTokens().FindByToken(ctx, raw)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if record.Revoked() {
		return nil, ErrInvalidToken
	}

	return record, nil
}

// Revoke flags a token. Revoking an already revoked token is a no-op.
func (s *RefreshTokenStore) Revoke(ctx context.Context, token *RefreshToken) error {
	if token == nil || token.Revoked() {
		return nil
	}
	return s.repo.RefreshTokens().MarkRevoked(ctx, token.ID, s.now())
}

// RevokeAllForUser flags every active token a user owns. It runs best effort:
// failures on individual tokens are logged and swallowed so the primary
// operation (password change, archive, delete) is never blocked.
func (s *RefreshTokenStore) RevokeAllForUser(ctx context.Context, userKey string) {
	records, err := s.repo.RefreshTokens().ActiveForUser(ctx, userKey)
	if err != nil {
		s.logger.Error("failed to list refresh tokens for revocation", "user", userKey, "error", err)
		return
	}

	at := s.now()
	for _, record := range records {
		if err := s.repo.RefreshTokens().MarkRevoked(ctx, record.ID, at); err != nil {
			s.logger.Error("failed to revoke refresh token", "token", record.ID, "error", err)
		}
	}
}

// Rotate consumes a raw refresh token and mints a new access/refresh pair.
// The old token is revoked and the new one issued inside one transaction, so
// concurrent rotations of the same value cannot both succeed: the loser
// observes the token revoked and fails with ErrInvalidToken.
func (s *RefreshTokenStore) Rotate(ctx context.Context, raw string) (AccessToken, *RefreshToken, error) {
	if s.accessSvc == nil {
		return AccessToken{}, nil, goerrors.New("access token service is required for rotation", goerrors.CategoryOperation)
	}

	var access AccessToken
	var next *RefreshToken

	err := s.repo.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(ctx context.Context, tx bun.Tx) error {
		current, err := s.repo.RefreshTokens().FindByTokenTx(ctx, tx, raw)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrInvalidToken
			}
			return err
		}

		if current.Revoked() {
			return ErrInvalidToken
		}

		if s.now().After(current.CreatedAt.Add(s.ttl)) {
			return ErrTokenExpired
		}

		if err := s.repo.RefreshTokens().MarkRevokedTx(ctx, tx, current.ID, s.now()); err != nil {
			return err
		}

		if access, err = s.accessSvc.Issue(current.UserKey); err != nil {
			return err
		}

		if next, err = s.issueForTx(ctx, tx, current.UserKey); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return AccessToken{}, nil, err
	}

	return access, next, nil
}
