package gqlauth

import (
	"context"
	"time"
)

type VerifyTokenMessage struct {
	Token      string `json:"token"`
	OnResponse func(*VerifyTokenResponse)
}

func (e VerifyTokenMessage) Type() string { return "auth.verify_token" }

type VerifyTokenResponse struct {
	Outcome
	Token *AccessToken `json:"token,omitempty"`
}

// VerifyTokenHandler decodes an access token and confirms the subject still
// resolves to a live account. It never refreshes or extends anything.
type VerifyTokenHandler struct {
	deps mutationDeps
}

func (h *VerifyTokenHandler) Execute(ctx context.Context, event VerifyTokenMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "token verification")
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyTokenHandler) execute(ctx context.Context, event VerifyTokenMessage) error {
	resp := &VerifyTokenResponse{}
	respond := func() error {
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	token, err := h.deps.access.Decode(event.Token)
	if err != nil {
		resp.Outcome = failureOutcome(NonFieldErrorsKey, err)
		return respond()
	}

	if _, err := h.deps.backend.LookupByKey(ctx, token.UserKey); err != nil {
		resp.Outcome = failureOutcome(NonFieldErrorsKey, ErrInvalidToken)
		return respond()
	}

	resp.Outcome = successOutcome()
	resp.Token = &token
	return respond()
}
