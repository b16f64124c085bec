package gqlauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type CaptchaCreateMessage struct {
	OnResponse func(*CaptchaCreateResponse)
}

func (e CaptchaCreateMessage) Type() string { return "auth.captcha_create" }

// CaptchaCreateResponse carries the challenge handle the client echoes back
// on gated mutations, plus the rendered image. The expected text never leaves
// the server.
type CaptchaCreateResponse struct {
	Outcome
	UUID  string `json:"uuid"`
	Image string `json:"image"`
}

type CaptchaCreateHandler struct {
	deps mutationDeps
}

func (h *CaptchaCreateHandler) Execute(ctx context.Context, event CaptchaCreateMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "captcha creation")
	default:
		return h.execute(ctx, event)
	}
}

func (h *CaptchaCreateHandler) execute(ctx context.Context, event CaptchaCreateMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	challenge, err := h.deps.captcha.Create(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create captcha challenge")
	}

	if event.OnResponse != nil {
		event.OnResponse(&CaptchaCreateResponse{
			Outcome: successOutcome(),
			UUID:    challenge.UUID.String(),
			Image:   challenge.ImageBase64(),
		})
	}

	return nil
}
