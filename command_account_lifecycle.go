package gqlauth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

type ArchiveAccountMessage struct {
	// Token is the caller's bearer access token.
	Token      string `json:"token"`
	Password   string `json:"password"`
	OnResponse func(*ArchiveAccountResponse)
}

func (e ArchiveAccountMessage) Type() string { return "auth.archive_account" }

// Validate will run validation rules
func (e ArchiveAccountMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Password, validation.Required),
	)
}

type ArchiveAccountResponse struct {
	Outcome
}

// ArchiveAccountHandler deactivates the caller's account and revokes every
// refresh token. Logging back in reactivates the account.
type ArchiveAccountHandler struct {
	deps mutationDeps
}

func (h *ArchiveAccountHandler) Execute(ctx context.Context, event ArchiveAccountMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "account archival")
	default:
		return h.execute(ctx, event)
	}
}

func (h *ArchiveAccountHandler) execute(ctx context.Context, event ArchiveAccountMessage) error {
	resp := &ArchiveAccountResponse{}
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

	if err := h.deps.backend.SetArchived(ctx, ref, true); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to archive account")
	}

	h.deps.refresh.RevokeAllForUser(ctx, ref.Key())
	h.deps.emit(ctx, ActivityEventAccountArchived, ref.Key(), nil)

	resp.Outcome = successOutcome()
	return respond()
}

type DeleteAccountMessage struct {
	Token      string `json:"token"`
	Password   string `json:"password"`
	OnResponse func(*DeleteAccountResponse)
}

func (e DeleteAccountMessage) Type() string { return "auth.delete_account" }

// Validate will run validation rules
func (e DeleteAccountMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Password, validation.Required),
	)
}

type DeleteAccountResponse struct {
	Outcome
}

// DeleteAccountHandler removes the caller's account, honoring
// Config.HardDelete. Refresh tokens are revoked before the row goes away so
// a failed delete never leaves live sessions behind.
type DeleteAccountHandler struct {
	deps mutationDeps
}

func (h *DeleteAccountHandler) Execute(ctx context.Context, event DeleteAccountMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "account deletion")
	default:
		return h.execute(ctx, event)
	}
}

func (h *DeleteAccountHandler) execute(ctx context.Context, event DeleteAccountMessage) error {
	resp := &DeleteAccountResponse{}
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

	h.deps.refresh.RevokeAllForUser(ctx, ref.Key())

	if err := h.deps.backend.Delete(ctx, ref, h.deps.cfg.HardDelete); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete account")
	}

	h.deps.emit(ctx, ActivityEventAccountDeleted, ref.Key(), map[string]any{"hard": h.deps.cfg.HardDelete})

	resp.Outcome = successOutcome()
	return respond()
}
