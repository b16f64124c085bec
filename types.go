package gqlauth

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// ActionTag restricts a signed payload to a single workflow. Tokens carrying
// one tag are never accepted by workflows expecting another.
type ActionTag string

const (
	ActionActivation               ActionTag = "activation"
	ActionPasswordReset            ActionTag = "password_reset"
	ActionPasswordSet              ActionTag = "password_set"
	ActionActivationSecondaryEmail ActionTag = "activation_secondary_email"
)

// EmailKind names the notification templates the embedding application is
// expected to render and deliver.
type EmailKind string

const (
	EmailActivation               EmailKind = "activation"
	EmailActivationSecondaryEmail EmailKind = "activation_secondary_email"
	EmailPasswordReset            EmailKind = "password_reset"
	EmailPasswordSet              EmailKind = "password_set"
	EmailPasswordChanged          EmailKind = "password_changed"
)

// UserRef is the opaque handle to a user record owned by the embedding
// application. The core never dereferences it beyond these accessors.
type UserRef interface {
	Key() string
	Email() string
	SecondaryEmail() string
}

// CredentialBackend is the capability boundary the embedding application
// implements. All user state lives behind it; the core owns only refresh
// tokens and captcha challenges.
type CredentialBackend interface {
	// Login authenticates an identifier/password pair. Unknown users and bad
	// passwords both return ErrInvalidCredentials.
	Login(ctx context.Context, identifier, password string) (UserRef, error)

	// LookupByPayload resolves the user referenced by an unsigned token payload.
	LookupByPayload(ctx context.Context, payload map[string]string) (UserRef, error)

	// LookupByKey resolves the user referenced by an access token subject.
	LookupByKey(ctx context.Context, key string) (UserRef, error)

	// LookupByEmail resolves a user by primary or secondary email address.
	LookupByEmail(ctx context.Context, email string) (UserRef, error)

	Register(ctx context.Context, input RegisterInput) (UserRef, error)

	IsVerified(ctx context.Context, ref UserRef) (bool, error)
	SetVerified(ctx context.Context, ref UserRef, verified bool) error

	IsArchived(ctx context.Context, ref UserRef) (bool, error)
	SetArchived(ctx context.Context, ref UserRef, archived bool) error

	// HasUsablePassword reports whether the account already carries a
	// password the user can log in with.
	HasUsablePassword(ctx context.Context, ref UserRef) (bool, error)
	CheckPassword(ctx context.Context, ref UserRef, password string) error
	SetPassword(ctx context.Context, ref UserRef, password string) error

	// Delete removes the account. Implementations honor Config.HardDelete:
	// soft deactivation keeps the row, hard delete drops it.
	Delete(ctx context.Context, ref UserRef, hard bool) error

	SetSecondaryEmail(ctx context.Context, ref UserRef, email string) error
	SwapEmails(ctx context.Context, ref UserRef) error
	RemoveSecondaryEmail(ctx context.Context, ref UserRef) error

	// SendEmail renders and delivers a notification. Failures are reported to
	// clients as email_fail and never roll back committed domain changes.
	SendEmail(ctx context.Context, kind EmailKind, ref UserRef, tplCtx map[string]string) error
}

// RegisterInput is the payload handed to CredentialBackend.Register.
type RegisterInput struct {
	Key       string
	Email     string
	Username  string
	FirstName string
	LastName  string
	Phone     string
	Password  string
	Verified  bool
}

// Clock abstracts time.Now for deterministic tests.
type Clock func() time.Time

func normalizeClock(clock Clock) Clock {
	if clock == nil {
		return time.Now
	}
	return clock
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] GQLAUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] GQLAUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] GQLAUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}
