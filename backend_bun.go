package gqlauth

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// unusablePasswordPrefix marks hashes that can never match a login attempt,
// used for accounts registered without a password (password-set flow).
const unusablePasswordPrefix = "!"

// EmailSender delivers rendered notifications. Implementations belong to the
// embedding application; the backend only forwards kind, recipient and
// template context.
type EmailSender interface {
	Send(ctx context.Context, kind EmailKind, ref UserRef, tplCtx map[string]string) error
}

// EmailSenderFunc adapts a function into an EmailSender.
type EmailSenderFunc func(ctx context.Context, kind EmailKind, ref UserRef, tplCtx map[string]string) error

// Send satisfies the EmailSender interface.
func (f EmailSenderFunc) Send(ctx context.Context, kind EmailKind, ref UserRef, tplCtx map[string]string) error {
	if f == nil {
		return nil
	}
	return f(ctx, kind, ref, tplCtx)
}

// BunBackend is the bundled CredentialBackend for applications that let this
// module own user storage. Applications with existing user records implement
// CredentialBackend themselves and never construct this type.
type BunBackend struct {
	users  Users
	sender EmailSender
	logger Logger
}

var _ CredentialBackend = (*BunBackend)(nil)

// NewBunBackend wires the backend. sender may be nil, in which case email
// sends are logged and dropped, useful during development.
func NewBunBackend(users Users, sender EmailSender, logger Logger) *BunBackend {
	return &BunBackend{
		users:  users,
		sender: sender,
		logger: normalizeLogger(logger),
	}
}

// Login verifies an identifier/password pair. Unknown identifiers and wrong
// passwords are indistinguishable to the caller.
func (b *BunBackend) Login(ctx context.Context, identifier, password string) (UserRef, error) {
	user, err := b.users.GetByEmail(ctx, identifier)
	if err != nil {
		if !repository.IsRecordNotFound(err) {
			return nil, err
		}
		if user, err = b.users.GetByIdentifier(ctx, identifier); err != nil {
			if repository.IsRecordNotFound(err) {
				return nil, ErrInvalidCredentials
			}
			return nil, err
		}
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if goerrors.Is(err, ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		// corrupt or unusable hash also reads as bad credentials
		return nil, ErrInvalidCredentials
	}

	if err := b.users.TrackSucccessfulLogin(ctx, user); err != nil {
		b.logger.Error("failed to track login", "user", user.ID, "error", err)
	}

	return user, nil
}

// LookupByPayload resolves the user referenced by an unsigned workflow token.
func (b *BunBackend) LookupByPayload(ctx context.Context, payload map[string]string) (UserRef, error) {
	if key := payload["user"]; key != "" {
		return b.LookupByKey(ctx, key)
	}
	if email := payload["email"]; email != "" {
		return b.LookupByEmail(ctx, email)
	}
	return nil, ErrInvalidToken
}

func (b *BunBackend) LookupByKey(ctx context.Context, key string) (UserRef, error) {
	id, err := uuid.Parse(key)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := b.users.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return user, nil
}

func (b *BunBackend) LookupByEmail(ctx context.Context, email string) (UserRef, error) {
	user, err := b.users.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return user, nil
}

// Register creates a user row. An empty password produces an account that
// must complete the password-set flow before logging in.
func (b *BunBackend) Register(ctx context.Context, input RegisterInput) (UserRef, error) {
	hash := unusablePasswordPrefix + RandomPasswordHash()
	if input.Password != "" {
		var err error
		if hash, err = HashPassword(input.Password); err != nil {
			return nil, err
		}
	}

	user := &User{
		EmailAddr:      strings.TrimSpace(strings.ToLower(input.Email)),
		Username:       getUsername(input.Username, input.Email),
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Phone:          input.Phone,
		PasswordHash:   hash,
		EmailValidated: input.Verified,
	}

	if input.Verified {
		user.Status = UserStatusActive
	}

	if input.Key != "" {
		id, err := uuid.Parse(input.Key)
		if err != nil {
			return nil, goerrors.New("register key must be a UUID", goerrors.CategoryBadInput)
		}
		user.ID = id
	}

	user, err := b.users.Register(ctx, user)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
	}

	return user, nil
}

func (b *BunBackend) IsVerified(ctx context.Context, ref UserRef) (bool, error) {
	user, err := b.user(ctx, ref)
	if err != nil {
		return false, err
	}
	return user.EmailValidated, nil
}

func (b *BunBackend) SetVerified(ctx context.Context, ref UserRef, verified bool) error {
	user, err := b.user(ctx, ref)
	if err != nil {
		return err
	}

	if err := b.users.SetVerified(ctx, user.ID, verified); err != nil {
		return err
	}

	if verified && user.Status == UserStatusPending {
		_, err = b.users.UpdateStatus(ctx, user.ID, UserStatusActive)
	}
	return err
}

func (b *BunBackend) IsArchived(ctx context.Context, ref UserRef) (bool, error) {
	user, err := b.user(ctx, ref)
	if err != nil {
		return false, err
	}
	return user.Status == UserStatusArchived, nil
}

func (b *BunBackend) SetArchived(ctx context.Context, ref UserRef, archived bool) error {
	user, err := b.user(ctx, ref)
	if err != nil {
		return err
	}

	status := UserStatusActive
	if archived {
		status = UserStatusArchived
	}

	_, err = b.users.UpdateStatus(ctx, user.ID, status)
	return err
}

func (b *BunBackend) HasUsablePassword(ctx context.Context, ref UserRef) (bool, error) {
	user, err := b.user(ctx, ref)
	if err != nil {
		return false, err
	}
	return user.PasswordHash != "" && !strings.HasPrefix(user.PasswordHash, unusablePasswordPrefix), nil
}

func (b *BunBackend) CheckPassword(ctx context.Context, ref UserRef, password string) error {
	user, err := b.user(ctx, ref)
	if err != nil {
		return err
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return ErrInvalidPassword
	}
	return nil
}

// SetPassword stores a new hash. It also flips the verified flag: every flow
// that reaches it (change, reset, set) has already proven account or mailbox
// ownership.
func (b *BunBackend) SetPassword(ctx context.Context, ref UserRef, password string) error {
	user, err := b.user(ctx, ref)
	if err != nil {
		return err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	return b.users.ResetPassword(ctx, user.ID, hash)
}

func (b *BunBackend) Delete(ctx context.Context, ref UserRef, hard bool) error {
	user, err := b.user(ctx, ref)
	if err != nil {
		return err
	}

	if hard {
		return b.users.HardDelete(ctx, user.ID)
	}
	return b.users.SoftDelete(ctx, user.ID)
}

func (b *BunBackend) SetSecondaryEmail(ctx context.Context, ref UserRef, email string) error {
	user, err := b.user(ctx, ref)
	if err != nil {
		return err
	}
	return b.users.SetSecondaryEmail(ctx, user.ID, strings.TrimSpace(strings.ToLower(email)))
}

func (b *BunBackend) SwapEmails(ctx context.Context, ref UserRef) error {
	user, err := b.user(ctx, ref)
	if err != nil {
		return err
	}
	return b.users.SwapEmails(ctx, user.ID)
}

func (b *BunBackend) RemoveSecondaryEmail(ctx context.Context, ref UserRef) error {
	user, err := b.user(ctx, ref)
	if err != nil {
		return err
	}
	return b.users.SetSecondaryEmail(ctx, user.ID, "")
}

func (b *BunBackend) SendEmail(ctx context.Context, kind EmailKind, ref UserRef, tplCtx map[string]string) error {
	if b.sender == nil {
		b.logger.Info("email sender not configured, dropping notification", "kind", kind, "user", ref.Key())
		return nil
	}
	return b.sender.Send(ctx, kind, ref, tplCtx)
}

// user re-reads the backing row so stale refs cannot leak outdated state.
func (b *BunBackend) user(ctx context.Context, ref UserRef) (*User, error) {
	if ref == nil {
		return nil, ErrUnauthenticated
	}

	if user, ok := ref.(*User); ok && user.ID != uuid.Nil {
		fresh, err := b.users.GetByID(ctx, user.ID.String())
		if err == nil {
			return fresh, nil
		}
	}

	id, err := uuid.Parse(ref.Key())
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := b.users.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return user, nil
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
