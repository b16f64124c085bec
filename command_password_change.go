package gqlauth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

type PasswordChangeMessage struct {
	// Token is the caller's bearer access token.
	Token              string `json:"token"`
	OldPassword        string `json:"old_password"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`

	OnResponse func(*PasswordChangeResponse)
}

func (e PasswordChangeMessage) Type() string { return "auth.password_change" }

// Validate will run validation rules
func (e PasswordChangeMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.OldPassword, validation.Required),
		validation.Field(&e.NewPassword, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&e.NewPasswordConfirm,
			validation.Required,
			validation.By(ValidateStringEquals(e.NewPassword)),
		),
	)
}

type PasswordChangeResponse struct {
	Outcome
}

// PasswordChangeHandler changes the password of an authenticated caller and
// revokes every outstanding refresh token so stolen sessions die with the
// old credential.
type PasswordChangeHandler struct {
	deps mutationDeps
}

func (h *PasswordChangeHandler) Execute(ctx context.Context, event PasswordChangeMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "password change")
	default:
		return h.execute(ctx, event)
	}
}

func (h *PasswordChangeHandler) execute(ctx context.Context, event PasswordChangeMessage) error {
	resp := &PasswordChangeResponse{}
	respond := func() error {
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	ref, err := h.deps.authenticate(ctx, event.Token)
	if err != nil {
		resp.Outcome = failureOutcome(NonFieldErrorsKey, err)
		return respond()
	}

	if err := event.Validate(); err != nil {
		resp.Outcome = validationFailure(err)
		return respond()
	}

	if err := h.deps.backend.CheckPassword(ctx, ref, event.OldPassword); err != nil {
		resp.Outcome = failureOutcome("old_password", ErrInvalidPassword)
		return respond()
	}

	if err := h.deps.backend.SetPassword(ctx, ref, event.NewPassword); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to set new password")
	}

	h.deps.refresh.RevokeAllForUser(ctx, ref.Key())

	// notification only, the change already committed
	if err := h.deps.backend.SendEmail(ctx, EmailPasswordChanged, ref, nil); err != nil {
		h.deps.logger.Error("failed to send password changed email", "user", ref.Key(), "error", err)
	}

	h.deps.emit(ctx, ActivityEventPasswordChanged, ref.Key(), nil)

	resp.Outcome = successOutcome()
	return respond()
}
