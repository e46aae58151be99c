package service

import (
	"fmt"

	appErrors "github.com/noah-isme/tasktrack-api/pkg/errors"
)

// AuthFailureReason is the internal cause of a rejected authentication.
type AuthFailureReason string

const (
	ReasonMissingHeader     AuthFailureReason = "missing_header"
	ReasonMalformedHeader   AuthFailureReason = "malformed_header"
	ReasonUnsupportedScheme AuthFailureReason = "unsupported_scheme"
	ReasonInvalidSignature  AuthFailureReason = "invalid_signature"
	ReasonExpired           AuthFailureReason = "expired"
	ReasonUnknownSubject    AuthFailureReason = "unknown_subject"
	ReasonInactiveIdentity  AuthFailureReason = "inactive_identity"
	ReasonMissingRole       AuthFailureReason = "missing_role"
)

const invalidTokenMessage = "invalid or expired token"

// AuthFailure keeps the detailed reason for logs and tests. Unwrap yields the
// coarse public error, so response.Error only ever sees that.
type AuthFailure struct {
	Reason AuthFailureReason
	Cause  error
}

func newAuthFailure(reason AuthFailureReason, cause error) *AuthFailure {
	return &AuthFailure{Reason: reason, Cause: cause}
}

// Error implements error.
func (f *AuthFailure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("authentication failed (%s): %v", f.Reason, f.Cause)
	}
	return fmt.Sprintf("authentication failed (%s)", f.Reason)
}

// Unwrap returns the public error.
func (f *AuthFailure) Unwrap() error {
	return f.Public()
}

// Public maps the reason to the error exposed to callers.
func (f *AuthFailure) Public() *appErrors.Error {
	switch f.Reason {
	case ReasonMissingHeader, ReasonMalformedHeader, ReasonUnsupportedScheme:
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing or malformed authorization header")
	case ReasonInactiveIdentity:
		return appErrors.Clone(appErrors.ErrForbidden, "account is inactive")
	case ReasonMissingRole:
		return appErrors.Clone(appErrors.ErrForbidden, "account has no valid role")
	default:
		return appErrors.Clone(appErrors.ErrUnauthorized, invalidTokenMessage)
	}
}
