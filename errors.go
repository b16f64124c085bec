package gqlauth

import (
	goerrors "github.com/goliatone/go-errors"
)

// Text codes exposed to API clients. Every anticipated failure maps to one of
// these before it crosses the mutation boundary.
const (
	TextCodeInvalidToken           = "invalid_token"
	TextCodeExpiredToken           = "expired_token"
	TextCodeInvalidCaptcha         = "invalid_captcha"
	TextCodeExpiredCaptcha         = "expired_captcha"
	TextCodeMaxRetriesExceeded     = "max_retries_exceeded"
	TextCodeAlreadyVerified        = "already_verified"
	TextCodeNotVerified            = "not_verified"
	TextCodeInvalidCredentials     = "invalid_credentials"
	TextCodeUnauthenticated        = "unauthenticated"
	TextCodePasswordAlreadySet     = "password_already_set"
	TextCodeEmailFail              = "email_fail"
	TextCodeSecondaryEmailRequired = "secondary_email_required"
	TextCodeInvalidPassword        = "invalid_password"
)

// ErrInvalidToken covers malformed, tampered, or wrong-scope tokens. Scope
// mismatches deliberately share this code so clients cannot tell a replayed
// token from a forged one.
var ErrInvalidToken = goerrors.New("invalid token", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned for well formed tokens past their max age. Kept
// distinct from ErrInvalidToken so clients can react differently (silent
// refresh vs forced re-login).
var ErrTokenExpired = goerrors.New("token expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeExpiredToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrBadSignature is the internal unsign failure for signature mismatches.
// It surfaces as ErrInvalidToken at the API boundary.
var ErrBadSignature = goerrors.New("signature does not verify", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrSignatureExpired is the internal unsign failure for payloads older than
// the caller supplied max age. It surfaces as ErrTokenExpired at the API boundary.
var ErrSignatureExpired = goerrors.New("signature expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeExpiredToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenScope is the internal unsign failure when the embedded action tag
// does not match the expected workflow, e.g. a password-reset token replayed
// against account activation. Reported to clients as a plain invalid token.
var ErrTokenScope = goerrors.New("token issued for a different workflow", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeUnauthorized)

var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

var ErrUnauthenticated = goerrors.New("authentication required", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(goerrors.CodeUnauthorized)

var ErrAlreadyVerified = goerrors.New("account already verified", goerrors.CategoryConflict).
	WithTextCode(TextCodeAlreadyVerified).
	WithCode(goerrors.CodeConflict)

var ErrNotVerified = goerrors.New("account not verified", goerrors.CategoryAuth).
	WithTextCode(TextCodeNotVerified).
	WithCode(goerrors.CodeUnauthorized)

var ErrPasswordAlreadySet = goerrors.New("password already set", goerrors.CategoryConflict).
	WithTextCode(TextCodePasswordAlreadySet).
	WithCode(goerrors.CodeConflict)

var ErrSecondaryEmailRequired = goerrors.New("secondary email required", goerrors.CategoryValidation).
	WithTextCode(TextCodeSecondaryEmailRequired).
	WithCode(goerrors.CodeBadRequest)

var ErrInvalidPassword = goerrors.New("invalid password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidPassword).
	WithCode(goerrors.CodeUnauthorized)

// ErrEmailFail reports a notification email that could not be delivered. The
// domain change the email was about is already committed and is not rolled
// back; clients learn about the partial success through this code.
var ErrEmailFail = goerrors.New("failed to send email", goerrors.CategoryOperation).
	WithTextCode(TextCodeEmailFail).
	WithCode(goerrors.CodeInternal)

var ErrInvalidCaptcha = goerrors.New("captcha answer does not match", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCaptcha).
	WithCode(goerrors.CodeUnauthorized)

var ErrExpiredCaptcha = goerrors.New("captcha expired or unknown", goerrors.CategoryAuth).
	WithTextCode(TextCodeExpiredCaptcha).
	WithCode(goerrors.CodeUnauthorized)

var ErrCaptchaMaxRetries = goerrors.New("captcha retry limit exceeded", goerrors.CategoryAuth).
	WithTextCode(TextCodeMaxRetriesExceeded).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString rejects empty values before hashing.
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword signals a failed password comparison.
var ErrMismatchedHashAndPassword = goerrors.New("password does not match", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidPassword).
	WithCode(goerrors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return goerrors.Is(err, ErrTokenExpired) || goerrors.Is(err, ErrSignatureExpired)
}

// IsInvalidTokenError will check for malformed, tampered, or wrong-scope tokens
func IsInvalidTokenError(err error) bool {
	if err == nil {
		return false
	}
	return goerrors.Is(err, ErrInvalidToken) ||
		goerrors.Is(err, ErrBadSignature) ||
		goerrors.Is(err, ErrTokenScope)
}

// textCode extracts the client facing code from an error, defaulting to a
// generic internal marker for unanticipated failures.
func textCode(err error) string {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode != "" {
		return richErr.TextCode
	}
	return "internal_error"
}
