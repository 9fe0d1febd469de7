// Package authn defines the single error kind the auth core surfaces for
// policy violations. Infrastructure errors (database, redis) pass through
// the services unwrapped.
package authn

import "errors"

// Machine-readable reasons carried by Unauthorized errors. Callers log the
// reason; clients only ever see a generic unauthorized response.
const (
	ReasonAccessTokenExpired  = "access_token_expired"
	ReasonRefreshTokenExpired = "refresh_token_expired"
	ReasonTokenInvalid        = "token_invalid"
	ReasonTokenReuseDetected  = "token_reuse_detected"
	ReasonSessionNotFound     = "session_not_found"
	ReasonSessionMismatch     = "session_mismatch"
	ReasonSessionRevoked      = "session_revoked"
	ReasonSessionExpired      = "session_expired"
	ReasonFingerprintMismatch = "fingerprint_mismatch"
)

// UnauthorizedError is returned for every authentication-policy violation
// decided by this core. Reason is for logging/telemetry only.
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	return "unauthorized: " + e.Reason
}

// Unauthorized returns an UnauthorizedError with the given reason.
func Unauthorized(reason string) error {
	return &UnauthorizedError{Reason: reason}
}

// ReasonOf returns the reason if err is an UnauthorizedError, or "" otherwise.
func ReasonOf(err error) string {
	var ue *UnauthorizedError
	if errors.As(err, &ue) {
		return ue.Reason
	}
	return ""
}

// IsUnauthorized reports whether err is an authentication-policy violation.
func IsUnauthorized(err error) bool {
	var ue *UnauthorizedError
	return errors.As(err, &ue)
}
