package domain

import "time"

// Session represents one authenticated device/browser context. It binds a
// user, optional device signals, and the bcrypt hash of the current valid
// refresh-token secret. Exactly one hash is valid per session at any instant;
// rotation replaces it atomically.
type Session struct {
	ID               string
	UserID           string
	RefreshTokenHash string
	Fingerprint      *string // nil when no device metadata was supplied at creation
	IPAddress        *string
	UserAgent        *string
	ExpiresAt        time.Time
	RevokedAt        *time.Time // nil while active; set once, never cleared
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Revoked reports whether the session has reached its terminal state.
func (s *Session) Revoked() bool {
	return s.RevokedAt != nil
}

// ExpiredAt reports whether the session is expired at the given instant.
func (s *Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// DeviceMetadata carries the request signals a fingerprint is derived from.
// IPAddress and UserAgent are also stored on the session as last-seen info.
type DeviceMetadata struct {
	IPAddress string
	UserAgent string
	Accept    string
}
