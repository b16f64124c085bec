package gqlauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type RefreshTokenMessage struct {
	RefreshToken string `json:"refresh_token"`
	OnResponse   func(*RefreshTokenResponse)
}

func (e RefreshTokenMessage) Type() string { return "auth.refresh_token" }

type RefreshTokenResponse struct {
	Outcome
	Token        *AccessToken  `json:"token,omitempty"`
	RefreshToken *RefreshToken `json:"refresh_token,omitempty"`
}

// RefreshTokenHandler rotates a refresh token: the presented token is
// consumed and a fresh access/refresh pair comes back. A token can only be
// rotated once; concurrent attempts race on a serializable transaction and
// the loser reports invalid_token.
type RefreshTokenHandler struct {
	deps mutationDeps
}

func (h *RefreshTokenHandler) Execute(ctx context.Context, event RefreshTokenMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "token refresh")
	default:
		return h.execute(ctx, event)
	}
}

func (h *RefreshTokenHandler) execute(ctx context.Context, event RefreshTokenMessage) error {
	resp := &RefreshTokenResponse{}
	respond := func() error {
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	access, refresh, err := h.deps.refresh.Rotate(ctx, event.RefreshToken)
	if err != nil {
		if goerrors.Is(err, ErrInvalidToken) || goerrors.Is(err, ErrTokenExpired) {
			resp.Outcome = failureOutcome(NonFieldErrorsKey, err)
			return respond()
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "token rotation failed")
	}

	h.deps.emit(ctx, ActivityEventTokenRefreshed, refresh.UserKey, nil)

	resp.Outcome = successOutcome()
	resp.Token = &access
	resp.RefreshToken = refresh
	return respond()
}

type RevokeTokenMessage struct {
	RefreshToken string `json:"refresh_token"`
	OnResponse   func(*RevokeTokenResponse)
}

func (e RevokeTokenMessage) Type() string { return "auth.revoke_token" }

type RevokeTokenResponse struct {
	Outcome
	RevokedAt time.Time `json:"revoked_at,omitempty"`
}

type RevokeTokenHandler struct {
	deps mutationDeps
}

func (h *RevokeTokenHandler) Execute(ctx context.Context, event RevokeTokenMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "token revocation")
	default:
		return h.execute(ctx, event)
	}
}

func (h *RevokeTokenHandler) execute(ctx context.Context, event RevokeTokenMessage) error {
	resp := &RevokeTokenResponse{}
	respond := func() error {
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	token, err := h.deps.refresh.FindActive(ctx, event.RefreshToken)
	if err != nil {
		resp.Outcome = failureOutcome(NonFieldErrorsKey, ErrInvalidToken)
		return respond()
	}

	if err := h.deps.refresh.Revoke(ctx, token); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "token revocation failed")
	}

	h.deps.emit(ctx, ActivityEventTokenRevoked, token.UserKey, nil)

	resp.Outcome = successOutcome()
	resp.RevokedAt = h.deps.now()
	return respond()
}
