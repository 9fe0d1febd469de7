package domain

import "time"

// Event actions recorded for the auth core.
const (
	ActionFingerprintMismatch = "fingerprint_mismatch"
	ActionSessionRevoked      = "session_revoked"
)

// SecurityEvent is one audit row for a security-relevant occurrence.
// Metadata holds action-specific context as JSON.
type SecurityEvent struct {
	ID        string
	UserID    string
	SessionID string
	Action    string
	Reason    string
	IPAddress string
	UserAgent string
	Metadata  string
	CreatedAt time.Time
}
