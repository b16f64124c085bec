package gqlauth

import (
	"context"
	"database/sql"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RefreshTokens is the persistence surface for refresh token records.
// Records are append-then-flag: revocation sets RevokedAt, nothing deletes.
type RefreshTokens interface {
	repository.Repository[*RefreshToken]

	FindByToken(ctx context.Context, raw string) (*RefreshToken, error)
	FindByTokenTx(ctx context.Context, tx bun.IDB, raw string) (*RefreshToken, error)

	MarkRevoked(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkRevokedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error

	// ActiveForUser lists the not-yet-revoked tokens owned by a user. Expiry
	// is computed by the caller; the store only knows about the revoked flag.
	ActiveForUser(ctx context.Context, userKey string) ([]*RefreshToken, error)
}

type refreshTokens struct {
	repository.Repository[*RefreshToken]
	db *bun.DB
}

var _ RefreshTokens = (*refreshTokens)(nil)

func NewRefreshTokensRepository(db *bun.DB) RefreshTokens {
	repo := repository.NewRepository[*RefreshToken](db, repository.ModelHandlers[*RefreshToken]{
		NewRecord: func() *RefreshToken { return &RefreshToken{} },
		GetID: func(t *RefreshToken) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *RefreshToken, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	return &refreshTokens{
		Repository: repo,
		db:         db,
	}
}

func (r *refreshTokens) FindByToken(ctx context.Context, raw string) (*RefreshToken, error) {
	return r.findByToken(ctx, r.db, raw)
}

func (r *refreshTokens) FindByTokenTx(ctx context.Context, tx bun.IDB, raw string) (*RefreshToken, error) {
	return r.findByToken(ctx, tx, raw)
}

func (r *refreshTokens) findByToken(ctx context.Context, db bun.IDB, raw string) (*RefreshToken, error) {
	record := &RefreshToken{}
	err := db.NewSelect().
		Model(record).
		Where("token = ?", raw).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up refresh token")
	}
	return record, nil
}

func (r *refreshTokens) MarkRevoked(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.markRevoked(ctx, r.db, id, at)
}

func (r *refreshTokens) MarkRevokedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error {
	return r.markRevoked(ctx, tx, id, at)
}

// markRevoked only touches rows that are still active, which keeps revocation
// idempotent and keeps the first revocation timestamp.
func (r *refreshTokens) markRevoked(ctx context.Context, db bun.IDB, id uuid.UUID, at time.Time) error {
	_, err := db.NewUpdate().
		Model((*RefreshToken)(nil)).
		Set("revoked_at = ?", at).
		Where("id = ?", id).
		Where("revoked_at IS NULL").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to revoke refresh token")
	}
	return nil
}

func (r *refreshTokens) ActiveForUser(ctx context.Context, userKey string) ([]*RefreshToken, error) {
	var records []*RefreshToken
	err := r.db.NewSelect().
		Model(&records).
		Where("user_key = ?", userKey).
		Where("revoked_at IS NULL").
		Scan(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list refresh tokens")
	}
	return records, nil
}
