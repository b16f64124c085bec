package gqlauth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
)

type RegisterMessage struct {
	Email           string         `json:"email"`
	Username        string         `json:"username"`
	FirstName       string         `json:"first_name"`
	LastName        string         `json:"last_name"`
	Phone           string         `json:"phone"`
	Password        string         `json:"password"`
	PasswordConfirm string         `json:"password_confirm"`
	Captcha         *CaptchaAnswer `json:"captcha,omitempty"`

	// UseHashid derives the account key deterministically from the email so
	// re-registrations of the same address map to the same identifier.
	UseHashid bool

	OnResponse func(*RegisterResponse)
}

func (e RegisterMessage) Type() string { return "auth.register" }

// Validate will run validation rules
func (e RegisterMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&e.Username, validation.Length(0, 100)),
		validation.Field(&e.Phone, validation.By(ValidatePhoneNumber)),
		validation.Field(&e.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&e.PasswordConfirm,
			validation.Required,
			validation.By(ValidateStringEquals(e.Password)),
		),
	)
}

type RegisterResponse struct {
	Outcome
	UserKey string `json:"user_key,omitempty"`
}

type RegisterHandler struct {
	deps mutationDeps
}

func (h *RegisterHandler) Execute(ctx context.Context, event RegisterMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "user registration")
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterHandler) execute(ctx context.Context, event RegisterMessage) error {
	resp := &RegisterResponse{}
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

	if err := h.deps.guardCaptcha(ctx, h.deps.cfg.RegisterRequireCaptcha, event.Captcha); err != nil {
		resp.Outcome = captchaFailure(err)
		return respond()
	}

	input := RegisterInput{
		Email:     event.Email,
		Username:  event.Username,
		FirstName: event.FirstName,
		LastName:  event.LastName,
		Phone:     event.Phone,
		Password:  event.Password,
		Verified:  !h.deps.cfg.SendActivationEmail,
	}

	if event.UseHashid {
		if id, err := hashid.NewUUID(event.Email); err == nil {
			input.Key = id.String()
		}
	}

	ref, err := h.deps.backend.Register(ctx, input)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryConflict {
			resp.Outcome = Outcome{
				Success: false,
				Errors: ErrorSet{
					"email": {{Message: "email address already registered", Code: "unique"}},
				},
			}
			return respond()
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration failed")
	}

	resp.UserKey = ref.Key()
	h.deps.emit(ctx, ActivityEventRegistered, ref.Key(), map[string]any{"email": ref.Email()})

	if h.deps.cfg.SendActivationEmail {
		if err := h.deps.sendWorkflowEmail(ctx, EmailActivation, ActionActivation, ref, nil); err != nil {
			// the account is committed; report delivery failure only
			resp.Outcome = failureOutcome(NonFieldErrorsKey, ErrEmailFail)
			return respond()
		}
	}

	resp.Outcome = successOutcome()
	return respond()
}
