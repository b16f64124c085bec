package gqlauth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

type PasswordSetMessage struct {
	Token              string `json:"token"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`

	OnResponse func(*PasswordSetResponse)
}

func (e PasswordSetMessage) Type() string { return "auth.password_set" }

// Validate will run validation rules
func (e PasswordSetMessage) Validate() error {
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

type PasswordSetResponse struct {
	Outcome
}

// PasswordSetHandler gives a first password to accounts created without one,
// typically imported or provisioned users. Accounts that already hold a
// usable password must go through change or reset instead.
type PasswordSetHandler struct {
	deps mutationDeps
}

func (h *PasswordSetHandler) Execute(ctx context.Context, event PasswordSetMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "password set")
	default:
		return h.execute(ctx, event)
	}
}

func (h *PasswordSetHandler) execute(ctx context.Context, event PasswordSetMessage) error {
	resp := &PasswordSetResponse{}
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

	ref, _, err := h.deps.unsignFor(ctx, event.Token, ActionPasswordSet)
	if err != nil {
		resp.Outcome = failureOutcome(NonFieldErrorsKey, err)
		return respond()
	}

	usable, err := h.deps.backend.HasUsablePassword(ctx, ref)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read password state")
	}
	if usable {
		resp.Outcome = failureOutcome(NonFieldErrorsKey, ErrPasswordAlreadySet)
		return respond()
	}

	if err := h.deps.backend.SetPassword(ctx, ref, event.NewPassword); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to set password")
	}

	h.deps.refresh.RevokeAllForUser(ctx, ref.Key())
	h.deps.emit(ctx, ActivityEventPasswordSet, ref.Key(), nil)

	resp.Outcome = successOutcome()
	return respond()
}
