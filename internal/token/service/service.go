// Package service issues and verifies signed access and refresh tokens bound
// to a session, detects refresh-token reuse, and orchestrates rotation.
package service

import (
	"context"
	"time"

	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/authn"
	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/rbac"
	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/security"
	sessiondomain "github.com/EmreUYGUNX/lumi-platform-sub005/internal/session/domain"
	sessionservice "github.com/EmreUYGUNX/lumi-platform-sub005/internal/session/service"
	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/token/blacklist"
	userdomain "github.com/EmreUYGUNX/lumi-platform-sub005/internal/user/domain"
)

// UserRepo is the minimal user lookup the token service needs for rotation.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// TokenPair is the result of a successful rotation or login issuance.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	SessionID        string
}

// Service issues and verifies tokens. The session row, not the token, is the
// source of truth: every verification re-validates the referenced session.
type Service struct {
	sessions  *sessionservice.Service
	rbac      rbac.Provider
	users     UserRepo
	signer    *security.TokenSigner
	blacklist blacklist.Store
}

// New returns a token Service.
func New(sessions *sessionservice.Service, rbacProvider rbac.Provider, users UserRepo, signer *security.TokenSigner, bl blacklist.Store) *Service {
	return &Service{
		sessions:  sessions,
		rbac:      rbacProvider,
		users:     users,
		signer:    signer,
		blacklist: bl,
	}
}

// IssueAccessToken issues an access token for user bound to session,
// embedding the user's current roles and permissions from the RBAC provider.
func (s *Service) IssueAccessToken(ctx context.Context, user *userdomain.User, sess *sessiondomain.Session) (string, *security.AccessClaims, error) {
	roles, err := s.rbac.GetUserRoles(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}
	perms, err := s.rbac.GetUserPermissions(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}
	return s.signer.SignAccess(user.ID, user.Email, rbac.RoleIDs(roles), perms, sess.ID)
}

// IssueRefreshToken issues a refresh token for user bound to session,
// carrying secret for rotation. The caller must have stored the secret's hash
// on the session (via session creation or ReplaceRefreshSecret) first. No
// role or permission reads happen here; refresh tokens carry the minimal
// claim set.
func (s *Service) IssueRefreshToken(user *userdomain.User, sess *sessiondomain.Session, secret string) (string, *security.RefreshClaims, error) {
	return s.signer.SignRefresh(user.ID, user.Email, nil, sess.ID, secret)
}

// VerifyAccessToken verifies the token signature and expiry, then re-validates
// the referenced session. A revoked or expired session rejects the token even
// while the token itself is still time-valid.
func (s *Service) VerifyAccessToken(ctx context.Context, token string) (*security.AccessClaims, error) {
	claims, err := s.signer.VerifyAccess(token)
	if err != nil {
		if err == security.ErrTokenExpired {
			return nil, authn.Unauthorized(authn.ReasonAccessTokenExpired)
		}
		return nil, authn.Unauthorized(authn.ReasonTokenInvalid)
	}
	if _, err := s.sessions.Validate(ctx, sessionservice.ValidateInput{
		SessionID:      claims.SessionID,
		ExpectedUserID: claims.Subject,
	}); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefreshToken verifies the token, consults the blacklist, loads the
// session, and compares the embedded rotation secret against the session's
// current hash.
//
// A blacklisted jti or a hash mismatch means the presented token was already
// rotated away or is attacker-replayed. Either way it is treated as
// compromise: the jti is blacklisted, the owning session is revoked, and
// every other active session for that user is revoked too. device is
// optional; when supplied it is checked against the session fingerprint.
func (s *Service) VerifyRefreshToken(ctx context.Context, token string, device *sessiondomain.DeviceMetadata) (*security.RefreshClaims, *sessiondomain.Session, error) {
	claims, err := s.signer.VerifyRefresh(token)
	if err != nil {
		if err == security.ErrTokenExpired {
			return nil, nil, authn.Unauthorized(authn.ReasonRefreshTokenExpired)
		}
		return nil, nil, authn.Unauthorized(authn.ReasonTokenInvalid)
	}
	listed, err := s.blacklist.Has(ctx, claims.ID)
	if err != nil {
		return nil, nil, err
	}
	if listed {
		// A blacklisted jti was already detected as compromised once; any
		// later presentation gets the same compromise response.
		if err := s.burnUser(ctx, claims.SessionID, claims.Subject); err != nil {
			return nil, nil, err
		}
		return nil, nil, authn.Unauthorized(authn.ReasonTokenReuseDetected)
	}
	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if sess == nil {
		return nil, nil, authn.Unauthorized(authn.ReasonSessionNotFound)
	}
	if !s.sessions.CompareRefreshSecret(sess, claims.Secret) {
		if err := s.blacklist.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			return nil, nil, err
		}
		if err := s.burnUser(ctx, sess.ID, sess.UserID); err != nil {
			return nil, nil, err
		}
		return nil, nil, authn.Unauthorized(authn.ReasonTokenReuseDetected)
	}
	sess, err = s.sessions.Validate(ctx, sessionservice.ValidateInput{
		SessionID:      claims.SessionID,
		ExpectedUserID: claims.Subject,
		Device:         device,
	})
	if err != nil {
		return nil, nil, err
	}
	return claims, sess, nil
}

// burnUser revokes the compromised session and every other active session of
// its owner. Once one refresh token for a user is known-compromised, all of
// the user's sessions are considered suspect.
func (s *Service) burnUser(ctx context.Context, sessionID, userID string) error {
	if err := s.sessions.Revoke(ctx, sessionID, sessionservice.ReasonTokenReuse); err != nil {
		return err
	}
	_, err := s.sessions.RevokeAllForUser(ctx, userID, sessionservice.ReasonTokenReuse)
	return err
}

// RotateRefreshToken retires oldToken and issues a fresh token pair bound to
// the same session. The old jti is blacklisted before the new hash lands, so
// the retiring token cannot be replayed during the rotation window. Any
// failure leaves the session's current hash untouched; callers must treat
// rotation as all-or-nothing.
func (s *Service) RotateRefreshToken(ctx context.Context, oldToken string, device *sessiondomain.DeviceMetadata) (*TokenPair, error) {
	claims, sess, err := s.VerifyRefreshToken(ctx, oldToken, device)
	if err != nil {
		return nil, err
	}
	if err := s.blacklist.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active() {
		return nil, authn.Unauthorized(authn.ReasonTokenInvalid)
	}
	secret, err := security.NewRefreshSecret()
	if err != nil {
		return nil, err
	}
	if err := s.sessions.ReplaceRefreshSecret(ctx, sess.ID, secret); err != nil {
		return nil, err
	}
	accessToken, accessClaims, err := s.IssueAccessToken(ctx, user, sess)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshClaims, err := s.IssueRefreshToken(user, sess, secret)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessClaims.ExpiresAt.Time,
		RefreshExpiresAt: refreshClaims.ExpiresAt.Time,
		SessionID:        sess.ID,
	}, nil
}

// RevokeToken revokes the session a token is bound to. Idempotent.
func (s *Service) RevokeToken(ctx context.Context, sessionID, reason string) error {
	return s.sessions.Revoke(ctx, sessionID, reason)
}
