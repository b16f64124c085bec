package gqlauth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess       ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure       ActivityEventType = "auth.login.failure"
	ActivityEventTokenRefreshed     ActivityEventType = "auth.token.refreshed"
	ActivityEventTokenRevoked       ActivityEventType = "auth.token.revoked"
	ActivityEventAccountVerified    ActivityEventType = "auth.account.verified"
	ActivityEventAccountArchived    ActivityEventType = "auth.account.archived"
	ActivityEventAccountDeleted     ActivityEventType = "auth.account.deleted"
	ActivityEventPasswordChanged    ActivityEventType = "auth.password.changed"
	ActivityEventPasswordReset      ActivityEventType = "auth.password.reset"
	ActivityEventPasswordSet        ActivityEventType = "auth.password.set"
	ActivityEventSecondaryEmailSet  ActivityEventType = "auth.secondary_email.set"
	ActivityEventEmailsSwapped      ActivityEventType = "auth.emails.swapped"
	ActivityEventRegistered         ActivityEventType = "auth.account.registered"
)

// ActorRef identifies who or what triggered an event.
type ActorRef struct {
	ID   string
	Type string
}

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Actor      ActorRef
	UserKey    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
// Sinks run best-effort: errors are logged and never block the operation.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
