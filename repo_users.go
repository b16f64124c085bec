package gqlauth

import (
	"context"
	"database/sql"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var resetUserPasswordSQL = `UPDATE "users" AS "usr"
SET
	"is_email_verified" = TRUE,
	"password_hash" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

var swapUserEmailsSQL = `UPDATE "users" AS "usr"
SET
	"email" = "usr"."secondary_email",
	"secondary_email" = "usr"."email"
WHERE
	"usr"."deleted_at" IS NULL
AND "usr"."secondary_email" IS NOT NULL
AND "usr"."secondary_email" <> ''
AND (
	"usr"."id" = ?
) RETURNING *;`

// Users is the persistence surface consumed by the bundled bun backend.
type Users interface {
	repository.Repository[*User]

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)

	// GetByEmail matches either the primary or the secondary address.
	GetByEmail(ctx context.Context, email string) (*User, error)

	TrackSucccessfulLogin(ctx context.Context, user *User) error

	UpdateStatus(ctx context.Context, id uuid.UUID, status UserStatus) (*User, error)
	SetVerified(ctx context.Context, id uuid.UUID, verified bool) error
	SetSecondaryEmail(ctx context.Context, id uuid.UUID, email string) error
	SwapEmails(ctx context.Context, id uuid.UUID) error

	// ResetPassword swaps the password hash and flips the verified flag: a
	// completed reset proves mailbox ownership.
	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	// SoftDelete marks the row deleted via the bun soft-delete column.
	SoftDelete(ctx context.Context, id uuid.UUID) error
	HardDelete(ctx context.Context, id uuid.UUID) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, newUsersHandlers())

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)
	return a.Repository.CreateTx(ctx, tx, user)
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("?TableAlias.email = ?", email).
				WhereOr("?TableAlias.secondary_email = ?", email)
		}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": email,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) TrackSucccessfulLogin(ctx context.Context, user *User) error {
	loggedInAt := time.Now()
	_, err := a.db.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"loggedin_at" = ?
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, loggedInAt, user.ID).Exec(ctx)

	return err
}

func (a *users) UpdateStatus(ctx context.Context, id uuid.UUID, status UserStatus) (*User, error) {
	record := &User{
		ID:     id,
		Status: status,
	}

	return a.Repository.Update(ctx, record, repository.UpdateByID(id.String()))
}

func (a *users) SetVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	_, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("is_email_verified = ?", verified).
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Exec(ctx)
	return err
}

func (a *users) SetSecondaryEmail(ctx context.Context, id uuid.UUID, email string) error {
	_, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("secondary_email = ?", email).
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Exec(ctx)
	return err
}

func (a *users) SwapEmails(ctx context.Context, id uuid.UUID) error {
	res, err := a.Repository.Raw(ctx, swapUserEmailsSQL, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *users) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res, err := a.Repository.Raw(ctx, resetUserPasswordSQL, passwordHash, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *users) SoftDelete(ctx context.Context, id uuid.UUID) error {
	_, err := a.db.NewDelete().
		Model((*User)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (a *users) HardDelete(ctx context.Context, id uuid.UUID) error {
	_, err := a.db.NewDelete().
		Model((*User)(nil)).
		Where("id = ?", id).
		ForceDelete().
		Exec(ctx)
	return err
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Status == "" {
		record.Status = UserStatusPending
	}

	record.EmailAddr = strings.TrimSpace(strings.ToLower(record.EmailAddr))
}
