package gqlauth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

type SendSecondaryEmailActivationMessage struct {
	// Token is the caller's bearer access token.
	Token      string `json:"token"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	OnResponse func(*SendSecondaryEmailActivationResponse)
}

func (e SendSecondaryEmailActivationMessage) Type() string {
	return "auth.send_secondary_email_activation"
}

// Validate will run validation rules
func (e SendSecondaryEmailActivationMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, validation.Required),
	)
}

type SendSecondaryEmailActivationResponse struct {
	Outcome
}

// SendSecondaryEmailActivationHandler mails a signed activation link to a
// candidate secondary address. The address is not stored until the link is
// verified; the signed payload carries it instead.
type SendSecondaryEmailActivationHandler struct {
	deps mutationDeps
}

func (h *SendSecondaryEmailActivationHandler) Execute(ctx context.Context, event SendSecondaryEmailActivationMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "secondary email activation send")
	default:
		return h.execute(ctx, event)
	}
}

func (h *SendSecondaryEmailActivationHandler) execute(ctx context.Context, event SendSecondaryEmailActivationMessage) error {
	resp := &SendSecondaryEmailActivationResponse{}
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

	if err := h.deps.backend.CheckPassword(ctx, ref, event.Password); err != nil {
		resp.Outcome = failureOutcome("password", ErrInvalidPassword)
		return respond()
	}

	extra := map[string]string{"email": event.Email}
	if err := h.deps.sendWorkflowEmail(ctx, EmailActivationSecondaryEmail, ActionActivationSecondaryEmail, ref, extra); err != nil {
		resp.Outcome = failureOutcome("email", ErrEmailFail)
		return respond()
	}

	resp.Outcome = successOutcome()
	return respond()
}

type VerifySecondaryEmailMessage struct {
	Token      string `json:"token"`
	OnResponse func(*VerifySecondaryEmailResponse)
}

func (e VerifySecondaryEmailMessage) Type() string { return "auth.verify_secondary_email" }

type VerifySecondaryEmailResponse struct {
	Outcome
}

type VerifySecondaryEmailHandler struct {
	deps mutationDeps
}

func (h *VerifySecondaryEmailHandler) Execute(ctx context.Context, event VerifySecondaryEmailMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "secondary email verification")
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifySecondaryEmailHandler) execute(ctx context.Context, event VerifySecondaryEmailMessage) error {
	resp := &VerifySecondaryEmailResponse{}
	respond := func() error {
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	ref, payload, err := h.deps.unsignFor(ctx, event.Token, ActionActivationSecondaryEmail)
	if err != nil {
		resp.Outcome = failureOutcome(NonFieldErrorsKey, err)
		return respond()
	}

	email := payload["email"]
	if email == "" {
		resp.Outcome = failureOutcome(NonFieldErrorsKey, ErrInvalidToken)
		return respond()
	}

	if err := h.deps.backend.SetSecondaryEmail(ctx, ref, email); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to set secondary email")
	}

	h.deps.emit(ctx, ActivityEventSecondaryEmailSet, ref.Key(), map[string]any{"email": email})

	resp.Outcome = successOutcome()
	return respond()
}

type SwapEmailsMessage struct {
	Token      string `json:"token"`
	Password   string `json:"password"`
	OnResponse func(*SwapEmailsResponse)
}

func (e SwapEmailsMessage) Type() string { return "auth.swap_emails" }

// Validate will run validation rules
func (e SwapEmailsMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Password, validation.Required),
	)
}

type SwapEmailsResponse struct {
	Outcome
}

// SwapEmailsHandler promotes the verified secondary address to primary and
// demotes the old primary to secondary in one step.
type SwapEmailsHandler struct {
	deps mutationDeps
}

func (h *SwapEmailsHandler) Execute(ctx context.Context, event SwapEmailsMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "email swap")
	default:
		return h.execute(ctx, event)
	}
}

func (h *SwapEmailsHandler) execute(ctx context.Context, event SwapEmailsMessage) error {
	resp := &SwapEmailsResponse{}
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

	if err := h.deps.backend.CheckPassword(ctx, ref, event.Password); err != nil {
		resp.Outcome = failureOutcome("password", ErrInvalidPassword)
		return respond()
	}

	if ref.SecondaryEmail() == "" {
		resp.Outcome = failureOutcome(NonFieldErrorsKey, ErrSecondaryEmailRequired)
		return respond()
	}

	if err := h.deps.backend.SwapEmails(ctx, ref); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to swap emails")
	}

	h.deps.emit(ctx, ActivityEventEmailsSwapped, ref.Key(), nil)

	resp.Outcome = successOutcome()
	return respond()
}

type RemoveSecondaryEmailMessage struct {
	Token      string `json:"token"`
	Password   string `json:"password"`
	OnResponse func(*RemoveSecondaryEmailResponse)
}

func (e RemoveSecondaryEmailMessage) Type() string { return "auth.remove_secondary_email" }

// Validate will run validation rules
func (e RemoveSecondaryEmailMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Password, validation.Required),
	)
}

type RemoveSecondaryEmailResponse struct {
	Outcome
}

type RemoveSecondaryEmailHandler struct {
	deps mutationDeps
}

func (h *RemoveSecondaryEmailHandler) Execute(ctx context.Context, event RemoveSecondaryEmailMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "secondary email removal")
	default:
		return h.execute(ctx, event)
	}
}

func (h *RemoveSecondaryEmailHandler) execute(ctx context.Context, event RemoveSecondaryEmailMessage) error {
	resp := &RemoveSecondaryEmailResponse{}
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

	if err := h.deps.backend.CheckPassword(ctx, ref, event.Password); err != nil {
		resp.Outcome = failureOutcome("password", ErrInvalidPassword)
		return respond()
	}

	if ref.SecondaryEmail() == "" {
		resp.Outcome = failureOutcome(NonFieldErrorsKey, ErrSecondaryEmailRequired)
		return respond()
	}

	if err := h.deps.backend.RemoveSecondaryEmail(ctx, ref); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove secondary email")
	}

	resp.Outcome = successOutcome()
	return respond()
}
