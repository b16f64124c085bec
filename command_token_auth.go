package gqlauth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

type TokenAuthMessage struct {
	// Identifier is a primary email, secondary email, or username.
	Identifier string         `json:"identifier"`
	Password   string         `json:"password"`
	Captcha    *CaptchaAnswer `json:"captcha,omitempty"`

	OnResponse func(*TokenAuthResponse)
}

func (e TokenAuthMessage) Type() string { return "auth.token_auth" }

// Validate will run validation rules
func (e TokenAuthMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Identifier, validation.Required),
		validation.Field(&e.Password, validation.Required),
	)
}

type TokenAuthResponse struct {
	Outcome
	Token        *AccessToken  `json:"token,omitempty"`
	RefreshToken *RefreshToken `json:"refresh_token,omitempty"`
	UserKey      string        `json:"user_key,omitempty"`
}

type TokenAuthHandler struct {
	deps mutationDeps
}

func (h *TokenAuthHandler) Execute(ctx context.Context, event TokenAuthMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "token authentication")
	default:
		return h.execute(ctx, event)
	}
}

func (h *TokenAuthHandler) execute(ctx context.Context, event TokenAuthMessage) error {
	resp := &TokenAuthResponse{}
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

	if err := h.deps.guardCaptcha(ctx, h.deps.cfg.LoginRequireCaptcha, event.Captcha); err != nil {
		resp.Outcome = captchaFailure(err)
		return respond()
	}

	ref, err := h.deps.backend.Login(ctx, event.Identifier, event.Password)
	if err != nil {
		if goerrors.Is(err, ErrInvalidCredentials) {
			h.deps.emit(ctx, ActivityEventLoginFailure, "", map[string]any{"identifier": event.Identifier})
			resp.Outcome = failureOutcome(NonFieldErrorsKey, ErrInvalidCredentials)
			return respond()
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "login failed")
	}

	if !h.deps.cfg.AllowLoginNotVerified {
		verified, err := h.deps.backend.IsVerified(ctx, ref)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read verification state")
		}
		if !verified {
			resp.Outcome = failureOutcome(NonFieldErrorsKey, ErrNotVerified)
			return respond()
		}
	}

	// a successful login reactivates an archived account; outstanding
	// refresh tokens were revoked at archive time so none come back alive
	archived, err := h.deps.backend.IsArchived(ctx, ref)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read archive state")
	}
	if archived {
		if err := h.deps.backend.SetArchived(ctx, ref, false); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to reactivate account")
		}
	}

	access, err := h.deps.access.Issue(ref.Key())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue access token")
	}

	refresh, err := h.deps.refresh.IssueFor(ctx, ref.Key())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue refresh token")
	}

	h.deps.emit(ctx, ActivityEventLoginSuccess, ref.Key(), nil)

	resp.Outcome = successOutcome()
	resp.Token = &access
	resp.RefreshToken = refresh
	resp.UserKey = ref.Key()
	return respond()
}
