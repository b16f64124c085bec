package gqlauth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// CaptchaAnswer carries a solved challenge alongside a gated mutation.
type CaptchaAnswer struct {
	UUID  string `json:"uuid"`
	Entry string `json:"entry"`
}

// mutationDeps is the dependency bundle shared by every mutation handler.
// Handlers receive it by value; none of the fields are mutated after
// construction.
type mutationDeps struct {
	cfg      Config
	backend  CredentialBackend
	signer   *PayloadSigner
	access   *AccessTokenService
	refresh  *RefreshTokenStore
	captcha  *CaptchaStore
	activity ActivitySink
	logger   Logger
	now      Clock
}

// guardCaptcha runs the captcha phase. When required is false the answer is
// ignored entirely. Storage errors during validation are logged but the
// status still decides the outcome, failing closed.
func (d mutationDeps) guardCaptcha(ctx context.Context, required bool, answer *CaptchaAnswer) error {
	if !required {
		return nil
	}

	if d.captcha == nil {
		return goerrors.New("captcha required but no captcha store configured", goerrors.CategoryOperation)
	}

	if answer == nil {
		return ErrInvalidCaptcha
	}

	id, err := uuid.Parse(answer.UUID)
	if err != nil {
		return ErrExpiredCaptcha
	}

	status, err := d.captcha.Validate(ctx, id, answer.Entry)
	if err != nil {
		d.logger.Error("captcha validation storage error", "uuid", answer.UUID, "error", err)
	}

	return status.Err()
}

// authenticate runs the token phase for operations that require a logged in
// caller. An empty bearer reports unauthenticated; decode failures keep their
// invalid/expired distinction.
func (d mutationDeps) authenticate(ctx context.Context, bearer string) (UserRef, error) {
	if bearer == "" {
		return nil, ErrUnauthenticated
	}

	token, err := d.access.Decode(bearer)
	if err != nil {
		return nil, err
	}

	ref, err := d.backend.LookupByKey(ctx, token.UserKey)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	return ref, nil
}

// unsignFor verifies a workflow token and resolves the user it references.
// Internal unsign failures are collapsed to the two client-visible kinds.
func (d mutationDeps) unsignFor(ctx context.Context, encoded string, action ActionTag) (UserRef, map[string]string, error) {
	maxAge := d.cfg.ActivationTTL
	switch action {
	case ActionPasswordReset:
		maxAge = d.cfg.PasswordResetTTL
	case ActionPasswordSet:
		maxAge = d.cfg.PasswordSetTTL
	case ActionActivationSecondaryEmail:
		maxAge = d.cfg.ActivationSecondaryEmailTTL
	}

	payload, err := d.signer.Unsign(encoded, action, maxAge)
	if err != nil {
		if IsTokenExpiredError(err) {
			return nil, nil, ErrTokenExpired
		}
		return nil, nil, ErrInvalidToken
	}

	ref, err := d.backend.LookupByPayload(ctx, payload)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}

	return ref, payload, nil
}

// sendWorkflowEmail signs a fresh payload token and hands it to the backend
// for rendering/delivery. Failures come back as ErrEmailFail: the caller
// reports them without rolling back whatever domain change already happened.
func (d mutationDeps) sendWorkflowEmail(ctx context.Context, kind EmailKind, action ActionTag, ref UserRef, extra map[string]string) error {
	payload := map[string]string{"user": ref.Key()}
	for k, v := range extra {
		payload[k] = v
	}

	token, err := d.signer.Sign(payload, action)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign workflow token")
	}

	tplCtx := map[string]string{"token": token}
	for k, v := range extra {
		tplCtx[k] = v
	}

	if err := d.backend.SendEmail(ctx, kind, ref, tplCtx); err != nil {
		d.logger.Error("email delivery failed", "kind", kind, "user", ref.Key(), "error", err)
		return ErrEmailFail
	}

	return nil
}

// emit records an activity event best-effort.
func (d mutationDeps) emit(ctx context.Context, eventType ActivityEventType, userKey string, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      ActorRef{ID: userKey, Type: "user"},
		UserKey:    userKey,
		Metadata:   metadata,
		OccurredAt: d.now(),
	}

	if err := d.activity.Record(ctx, event); err != nil {
		d.logger.Error("activity sink record failed", "event", eventType, "error", err)
	}
}

// cancelled wraps early context termination the way every handler reports it.
func cancelled(ctx context.Context, during string) error {
	return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during "+during)
}
