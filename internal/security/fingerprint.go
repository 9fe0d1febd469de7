package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Fingerprinter derives device fingerprints from request signals keyed with a
// server-side secret, so a stolen session row alone cannot be used to forge a
// matching device.
type Fingerprinter struct {
	secret []byte
}

// NewFingerprinter returns a Fingerprinter keyed with secret.
func NewFingerprinter(secret []byte) *Fingerprinter {
	return &Fingerprinter{secret: secret}
}

// Compute returns the hex HMAC-SHA256 fingerprint of the device signals.
func (f *Fingerprinter) Compute(ipAddress, userAgent, accept string) string {
	mac := hmac.New(sha256.New, f.secret)
	mac.Write([]byte(ipAddress))
	mac.Write([]byte{'|'})
	mac.Write([]byte(userAgent))
	mac.Write([]byte{'|'})
	mac.Write([]byte(accept))
	return hex.EncodeToString(mac.Sum(nil))
}

// Equal performs constant-time comparison of two fingerprints.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
