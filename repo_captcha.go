package gqlauth

import (
	"context"
	"database/sql"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CaptchaChallenges is the persistence surface for captcha records. Unlike
// refresh tokens these are deleted eagerly on any terminal outcome.
type CaptchaChallenges interface {
	repository.Repository[*CaptchaChallenge]

	GetByUUID(ctx context.Context, id uuid.UUID) (*CaptchaChallenge, error)
	SetTries(ctx context.Context, id uuid.UUID, tries int) error
	DeleteByUUID(ctx context.Context, id uuid.UUID) error
}

type captchaChallenges struct {
	repository.Repository[*CaptchaChallenge]
	db *bun.DB
}

var _ CaptchaChallenges = (*captchaChallenges)(nil)

func NewCaptchaChallengesRepository(db *bun.DB) CaptchaChallenges {
	repo := repository.NewRepository[*CaptchaChallenge](db, repository.ModelHandlers[*CaptchaChallenge]{
		NewRecord: func() *CaptchaChallenge { return &CaptchaChallenge{} },
		GetID: func(c *CaptchaChallenge) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.UUID
		},
		SetID: func(c *CaptchaChallenge, id uuid.UUID) {
			if c != nil {
				c.UUID = id
			}
		},
		GetIdentifier: func() string {
			return "uuid"
		},
	})

	return &captchaChallenges{
		Repository: repo,
		db:         db,
	}
}

func (r *captchaChallenges) GetByUUID(ctx context.Context, id uuid.UUID) (*CaptchaChallenge, error) {
	record := &CaptchaChallenge{}
	err := r.db.NewSelect().
		Model(record).
		Where("uuid = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up captcha challenge")
	}
	return record, nil
}

func (r *captchaChallenges) SetTries(ctx context.Context, id uuid.UUID, tries int) error {
	_, err := r.db.NewUpdate().
		Model((*CaptchaChallenge)(nil)).
		Set("tries = ?", tries).
		Where("uuid = ?", id).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update captcha tries")
	}
	return nil
}

func (r *captchaChallenges) DeleteByUUID(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*CaptchaChallenge)(nil)).
		Where("uuid = ?", id).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete captcha challenge")
	}
	return nil
}
