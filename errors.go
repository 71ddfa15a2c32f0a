package auth

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeBackendUnavailable   = "AUTH_BACKEND_UNAVAILABLE"
	TextCodeInvalidCredentials   = "AUTH_INVALID_CREDENTIALS"
	TextCodeSignUpFailed         = "AUTH_SIGNUP_FAILED"
	TextCodeExternalSignIn       = "AUTH_EXTERNAL_SIGNIN_FAILED"
	TextCodePartialSignOut       = "AUTH_PARTIAL_SIGNOUT"
	TextCodeInvalidRole          = "AUTH_INVALID_ROLE"
	TextCodeCorruptRoleFlags     = "AUTH_CORRUPT_ROLE_FLAGS"
	TextCodeRoleFlagsUnavailable = "AUTH_ROLE_FLAGS_UNAVAILABLE"
)

// ErrBackendUnavailable is returned when the identity backend can not be reached
var ErrBackendUnavailable = goerrors.New("identity backend unavailable", goerrors.CategoryOperation).
	WithTextCode(TextCodeBackendUnavailable).
	WithCode(goerrors.CodeInternal)

// ErrInvalidCredentials covers both wrong password and unknown account
var ErrInvalidCredentials = goerrors.New("credentials incorrect or user does not exist", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrSignUpFailed wraps any backend registration failure
var ErrSignUpFailed = goerrors.New("registration failed", goerrors.CategoryOperation).
	WithTextCode(TextCodeSignUpFailed).
	WithCode(goerrors.CodeBadRequest)

// ErrExternalSignInFailed is returned when a federated flow can not start
var ErrExternalSignInFailed = goerrors.New("external sign in failed", goerrors.CategoryAuth).
	WithTextCode(TextCodeExternalSignIn).
	WithCode(goerrors.CodeUnauthorized)

// ErrPartialSignOut means the local state was cleared but the backend
// invalidation failed
var ErrPartialSignOut = goerrors.New("signed out locally, backend invalidation failed", goerrors.CategoryOperation).
	WithTextCode(TextCodePartialSignOut).
	WithCode(goerrors.CodeInternal)

// ErrInvalidRole is returned by SignUp for a role outside the assignable set
var ErrInvalidRole = goerrors.New("invalid account role", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidRole).
	WithCode(goerrors.CodeBadRequest)

// ErrCorruptRoleFlags is returned by flag stores holding more than one active flag
var ErrCorruptRoleFlags = goerrors.New("role flags hold more than one active role", goerrors.CategoryInternal).
	WithTextCode(TextCodeCorruptRoleFlags).
	WithCode(goerrors.CodeInternal)

// ErrRoleFlagsUnavailable wraps storage failures of durable flag stores
var ErrRoleFlagsUnavailable = goerrors.New("role flags storage unavailable", goerrors.CategoryInternal).
	WithTextCode(TextCodeRoleFlagsUnavailable).
	WithCode(goerrors.CodeInternal)

// IsBackendUnavailable reports whether err comes from an unreachable
// backend or an abandoned request.
func IsBackendUnavailable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrBackendUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
