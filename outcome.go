package gqlauth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// NonFieldErrorsKey collects errors that do not belong to a specific input field.
const NonFieldErrorsKey = "nonFieldErrors"

// CaptchaErrorsKey is the dedicated slot for captcha failures so clients can
// re-render the challenge without disturbing other field errors.
const CaptchaErrorsKey = "captcha"

// FieldError is a single structured error entry inside an Outcome.
type FieldError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ErrorSet groups FieldErrors by input field or category key.
type ErrorSet map[string][]FieldError

// Outcome is the uniform envelope every mutation returns. Anticipated
// failures are encoded here, never raised across the API boundary.
// Invariant: Success is true exactly when Errors is nil.
type Outcome struct {
	Success bool     `json:"success"`
	Errors  ErrorSet `json:"errors,omitempty"`
}

// Ok reports whether the outcome carries no errors.
func (o Outcome) Ok() bool {
	return o.Success && o.Errors == nil
}

// String renders the outcome as pretty JSON for debug logging.
func (o Outcome) String() string {
	return print.MaybePrettyJSON(o)
}

func successOutcome() Outcome {
	return Outcome{Success: true}
}

// failureOutcome builds an Outcome from an error, keying it under the given
// slot. Rich errors contribute their text code and message; anything else is
// reported as a generic internal failure.
func failureOutcome(key string, err error) Outcome {
	if key == "" {
		key = NonFieldErrorsKey
	}

	message := "unexpected error"
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Message != "" {
		message = richErr.Message
	}

	return Outcome{
		Success: false,
		Errors: ErrorSet{
			key: {{Message: message, Code: textCode(err)}},
		},
	}
}

// captchaFailure reports a captcha guard error under the dedicated slot.
func captchaFailure(err error) Outcome {
	return failureOutcome(CaptchaErrorsKey, err)
}

// validationFailure converts ozzo-validation errors into a field keyed
// ErrorSet. Non validation errors degrade to a nonFieldErrors entry.
func validationFailure(err error) Outcome {
	verrs, ok := err.(validation.Errors)
	if !ok {
		return failureOutcome(NonFieldErrorsKey, err)
	}

	set := ErrorSet{}
	for field, ferr := range verrs {
		set[field] = append(set[field], FieldError{
			Message: ferr.Error(),
			Code:    "invalid",
		})
	}

	return Outcome{Success: false, Errors: set}
}
