package gqlauth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

type VerifyAccountMessage struct {
	Token      string `json:"token"`
	OnResponse func(*VerifyAccountResponse)
}

func (e VerifyAccountMessage) Type() string { return "auth.verify_account" }

type VerifyAccountResponse struct {
	Outcome
}

type VerifyAccountHandler struct {
	deps mutationDeps
}

func (h *VerifyAccountHandler) Execute(ctx context.Context, event VerifyAccountMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "account verification")
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyAccountHandler) execute(ctx context.Context, event VerifyAccountMessage) error {
	resp := &VerifyAccountResponse{}
	respond := func() error {
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	ref, _, err := h.deps.unsignFor(ctx, event.Token, ActionActivation)
	if err != nil {
		resp.Outcome = failureOutcome(NonFieldErrorsKey, err)
		return respond()
	}

	verified, err := h.deps.backend.IsVerified(ctx, ref)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read verification state")
	}
	if verified {
		resp.Outcome = failureOutcome(NonFieldErrorsKey, ErrAlreadyVerified)
		return respond()
	}

	if err := h.deps.backend.SetVerified(ctx, ref, true); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark account verified")
	}

	h.deps.emit(ctx, ActivityEventAccountVerified, ref.Key(), nil)

	resp.Outcome = successOutcome()
	return respond()
}

type ResendActivationEmailMessage struct {
	Email      string `json:"email"`
	OnResponse func(*ResendActivationEmailResponse)
}

func (e ResendActivationEmailMessage) Type() string { return "auth.resend_activation_email" }

// Validate will run validation rules
func (e ResendActivationEmailMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

type ResendActivationEmailResponse struct {
	Outcome
}

type ResendActivationEmailHandler struct {
	deps mutationDeps
}

func (h *ResendActivationEmailHandler) Execute(ctx context.Context, event ResendActivationEmailMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "activation email resend")
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendActivationEmailHandler) execute(ctx context.Context, event ResendActivationEmailMessage) error {
	resp := &ResendActivationEmailResponse{}
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
		// unknown addresses report success so the endpoint cannot be used
		// to probe which emails have accounts
		resp.Outcome = successOutcome()
		return respond()
	}

	verified, err := h.deps.backend.IsVerified(ctx, ref)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read verification state")
	}
	if verified {
		resp.Outcome = failureOutcome("email", ErrAlreadyVerified)
		return respond()
	}

	if err := h.deps.sendWorkflowEmail(ctx, EmailActivation, ActionActivation, ref, nil); err != nil {
		resp.Outcome = failureOutcome("email", ErrEmailFail)
		return respond()
	}

	resp.Outcome = successOutcome()
	return respond()
}
