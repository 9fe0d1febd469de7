package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed or fails verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when a token's exp claim has passed.
	ErrTokenExpired = errors.New("token expired")
)

// AccessClaims holds JWT claims for the access token. RoleIDs and Permissions
// are snapshotted at issue time; the session row stays the source of truth.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email       string   `json:"email"`
	RoleIDs     []string `json:"role_ids"`
	Permissions []string `json:"permissions"`
	SessionID   string   `json:"session_id"`
}

// RefreshClaims holds JWT claims for the refresh token. Secret is the raw
// rotation secret whose bcrypt hash is stored on the session; the token is the
// bearer credential, so carrying the secret inside the signed payload leaks
// nothing beyond the token itself.
type RefreshClaims struct {
	jwt.RegisteredClaims
	Email     string   `json:"email"`
	RoleIDs   []string `json:"role_ids"`
	SessionID string   `json:"session_id"`
	Secret    string   `json:"rts"`
}

// TokenSigner issues and verifies HS256 access and refresh tokens with
// separate per-purpose secrets.
type TokenSigner struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	audience      string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenSigner returns a TokenSigner. issuer and audience are set on claims
// and checked on verification.
func NewTokenSigner(accessSecret, refreshSecret []byte, issuer, audience string, accessTTL, refreshTTL time.Duration) *TokenSigner {
	return &TokenSigner{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		issuer:        issuer,
		audience:      audience,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// SignAccess issues a short-lived access JWT and returns the token string and
// its claims.
func (s *TokenSigner) SignAccess(userID, email string, roleIDs, permissions []string, sessionID string) (string, *AccessClaims, error) {
	jti, err := NewJTI()
	if err != nil {
		return "", nil, err
	}
	now := time.Now().UTC()
	claims := &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
		Email:       email,
		RoleIDs:     roleIDs,
		Permissions: permissions,
		SessionID:   sessionID,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// SignRefresh issues a long-lived refresh JWT bound to sessionID and carrying
// the rotation secret. roleIDs should be the minimal session-scoped set.
func (s *TokenSigner) SignRefresh(userID, email string, roleIDs []string, sessionID, secret string) (string, *RefreshClaims, error) {
	jti, err := NewJTI()
	if err != nil {
		return "", nil, err
	}
	now := time.Now().UTC()
	claims := &RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		},
		Email:     email,
		RoleIDs:   roleIDs,
		SessionID: sessionID,
		Secret:    secret,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// VerifyAccess parses and verifies an access token (signature, exp, iss, aud).
// Returns ErrTokenExpired for expired tokens and ErrInvalidToken for any other
// violation.
func (s *TokenSigner) VerifyAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.parse(tokenString, claims, s.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh parses and verifies a refresh token (signature, exp, iss, aud).
func (s *TokenSigner) VerifyRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.parse(tokenString, claims, s.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *TokenSigner) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

// NewJTI returns a random 128-bit hex token identifier.
func NewJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewRefreshSecret returns a random 256-bit hex rotation secret. Its bcrypt
// hash is stored on the session; the raw value travels only inside the signed
// refresh token.
func NewRefreshSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
