package gqlauth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

type SendPasswordResetEmailMessage struct {
	Email      string `json:"email"`
	OnResponse func(*SendPasswordResetEmailResponse)
}

func (e SendPasswordResetEmailMessage) Type() string { return "auth.send_password_reset_email" }

// Validate will run validation rules
func (e SendPasswordResetEmailMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

type SendPasswordResetEmailResponse struct {
	Outcome
}

// SendPasswordResetEmailHandler mails a signed reset link. Unknown addresses
// report success so the endpoint cannot enumerate accounts; unverified
// accounts get a fresh activation email instead and report not_verified.
type SendPasswordResetEmailHandler struct {
	deps mutationDeps
}

func (h *SendPasswordResetEmailHandler) Execute(ctx context.Context, event SendPasswordResetEmailMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "password reset email")
	default:
		return h.execute(ctx, event)
	}
}

func (h *SendPasswordResetEmailHandler) execute(ctx context.Context, event SendPasswordResetEmailMessage) error {
	resp := &SendPasswordResetEmailResponse{}
	respond := func() error {
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		resp.Outcome = validationFailure(err)
		return respond()
	}

	ref, err := h.deps.backend.LookupByEmail(ctx, event.Email)
	if err != nil {
		resp.Outcome = successOutcome()
		return respond()
	}

	verified, err := h.deps.backend.IsVerified(ctx, ref)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read verification state")
	}
	usable, err := h.deps.backend.HasUsablePassword(ctx, ref)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read password state")
	}

	if !usable {
		// accounts created without a credential (imports, social signups) get
		// the first-password flow instead of a reset
		extra := map[string]string{"email": ref.Email()}
		if err := h.deps.sendWorkflowEmail(ctx, EmailPasswordSet, ActionPasswordSet, ref, extra); err != nil {
			resp.Outcome = failureOutcome("email", ErrEmailFail)
			return respond()
		}
		resp.Outcome = successOutcome()
		return respond()
	}

	if !verified {
		if err := h.deps.sendWorkflowEmail(ctx, EmailActivation, ActionActivation, ref, nil); err != nil {
			resp.Outcome = failureOutcome("email", ErrEmailFail)
			return respond()
		}
		resp.Outcome = failureOutcome("email", ErrNotVerified)
		return respond()
	}

	extra := map[string]string{"email": ref.Email()}
	if err := h.deps.sendWorkflowEmail(ctx, EmailPasswordReset, ActionPasswordReset, ref, extra); err != nil {
		resp.Outcome = failureOutcome("email", ErrEmailFail)
		return respond()
	}

	resp.Outcome = successOutcome()
	return respond()
}

type PasswordResetMessage struct {
	Token              string `json:"token"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`

	OnResponse func(*PasswordResetResponse)
}

func (e PasswordResetMessage) Type() string { return "auth.password_reset" }

// Validate will run validation rules
func (e PasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Token, validation.Required),
		validation.Field(&e.NewPassword, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&e.NewPasswordConfirm,
			validation.Required,
			validation.By(ValidateStringEquals(e.NewPassword)),
		),
	)
}

type PasswordResetResponse struct {
	Outcome
}

// PasswordResetHandler finalizes a reset started by SendPasswordResetEmail.
// Completing a reset proves control of the mailbox, so the account is marked
// verified as a side effect, and every refresh token is revoked.
type PasswordResetHandler struct {
	deps mutationDeps
}

func (h *PasswordResetHandler) Execute(ctx context.Context, event PasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "password reset")
	default:
		return h.execute(ctx, event)
	}
}

func (h *PasswordResetHandler) execute(ctx context.Context, event PasswordResetMessage) error {
	resp := &PasswordResetResponse{}
	respond := func() error {
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		resp.Outcome = validationFailure(err)
		return respond()
	}

	ref, _, err := h.deps.unsignFor(ctx, event.Token, ActionPasswordReset)
	if err != nil {
		resp.Outcome = failureOutcome(NonFieldErrorsKey, err)
		return respond()
	}

	if err := h.deps.backend.SetPassword(ctx, ref, event.NewPassword); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to reset password")
	}

	if err := h.deps.backend.SetVerified(ctx, ref, true); err != nil {
		h.deps.logger.Error("failed to mark account verified after reset", "user", ref.Key(), "error", err)
	}

	h.deps.refresh.RevokeAllForUser(ctx, ref.Key())
	h.deps.emit(ctx, ActivityEventPasswordReset, ref.Key(), nil)

	resp.Outcome = successOutcome()
	return respond()
}
