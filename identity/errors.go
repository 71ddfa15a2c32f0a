package identity

import "github.com/goliatone/go-errors"

const (
	TextCodeUserExists        = "identity_user_exists"
	TextCodeInvalidLogin      = "identity_invalid_login"
	TextCodeEmailNotConfirmed = "identity_email_not_confirmed"
	TextCodeInvalidSignUp     = "identity_invalid_signup"
	TextCodeInvalidPhone      = "identity_invalid_phone"
	TextCodeNoSession         = "identity_no_session"
	TextCodeTokenExpired      = "identity_token_expired"
	TextCodeTokenInvalid      = "identity_token_invalid"
	TextCodeProviderNotFound  = "identity_provider_not_found"
	TextCodeInvalidState      = "identity_invalid_state"
	TextCodeStateExpired      = "identity_state_expired"
	TextCodeEmailNotVerified  = "identity_email_not_verified"
	TextCodeInvalidConfig     = "identity_invalid_config"
)

// ErrUserExists is returned when signing up with a registered email.
var ErrUserExists = errors.New("user already registered", errors.CategoryConflict).
	WithTextCode(TextCodeUserExists).
	WithCode(errors.CodeConflict)

// ErrInvalidLogin is returned for unknown accounts and wrong passwords alike.
var ErrInvalidLogin = errors.New("invalid login credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidLogin).
	WithCode(errors.CodeUnauthorized)

// ErrEmailNotConfirmed is returned when confirmation is required and pending.
var ErrEmailNotConfirmed = errors.New("email not confirmed", errors.CategoryAuth).
	WithTextCode(TextCodeEmailNotConfirmed).
	WithCode(errors.CodeForbidden)

// ErrInvalidSignUp wraps sign up input validation failures.
var ErrInvalidSignUp = errors.New("invalid sign up data", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidSignUp).
	WithCode(errors.CodeBadRequest)

// ErrInvalidPhone is returned when the phone metadata is not a valid number.
var ErrInvalidPhone = errors.New("invalid phone number", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidPhone).
	WithCode(errors.CodeBadRequest)

// ErrNoSession is returned by operations that need a current session.
var ErrNoSession = errors.New("no active session", errors.CategoryNotFound).
	WithTextCode(TextCodeNoSession).
	WithCode(errors.CodeNotFound)

// ErrTokenExpired is returned for access tokens past their expiry.
var ErrTokenExpired = errors.New("access token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenInvalid is returned for malformed or badly signed access tokens.
var ErrTokenInvalid = errors.New("invalid access token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrProviderNotFound is returned when a requested provider is not enabled.
var ErrProviderNotFound = errors.New("oauth provider not enabled", errors.CategoryNotFound).
	WithTextCode(TextCodeProviderNotFound).
	WithCode(errors.CodeNotFound)

// ErrInvalidState is returned when the OAuth state is invalid, tampered or
// already used.
var ErrInvalidState = errors.New("invalid oauth state", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidState).
	WithCode(errors.CodeBadRequest)

// ErrStateExpired is returned when the OAuth state has expired.
var ErrStateExpired = errors.New("oauth state expired", errors.CategoryBadInput).
	WithTextCode(TextCodeStateExpired).
	WithCode(errors.CodeBadRequest)

// ErrEmailNotVerified is returned when linking an external identity whose
// email the provider did not verify.
var ErrEmailNotVerified = errors.New("email not verified by provider", errors.CategoryAuth).
	WithTextCode(TextCodeEmailNotVerified).
	WithCode(errors.CodeForbidden)

// ErrInvalidConfig is returned by New for unusable key material.
var ErrInvalidConfig = errors.New("invalid identity backend config", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidConfig).
	WithCode(errors.CodeBadRequest)
