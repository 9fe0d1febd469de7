// Package service owns the user-session lifecycle: creation, device
// fingerprint validation, revocation, and expiry cleanup. Revocation is
// terminal; no operation ever clears revoked_at.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/authn"
	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/security"
	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/session/domain"
	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/session/repository"
)

// Revocation reasons recorded on security events.
const (
	ReasonLogout              = "logout"
	ReasonLogoutAll           = "logout_all"
	ReasonExpired             = "session_expired"
	ReasonFingerprintMismatch = "fingerprint_mismatch"
	ReasonTokenReuse          = "token_reuse_detected"
	ReasonPasswordReset       = "password_reset"
)

// FingerprintMismatch describes a refresh presented from a device whose
// recomputed fingerprint does not match the one stored on the session.
type FingerprintMismatch struct {
	SessionID  string
	UserID     string
	IPAddress  string
	UserAgent  string
	OccurredAt time.Time
}

// SessionRevoked describes a session reaching its terminal state.
type SessionRevoked struct {
	SessionID string
	UserID    string
	Reason    string
	RevokedAt time.Time
	IPAddress *string
	UserAgent *string
}

// Notifier receives security events for audit/alerting. Calls are
// fire-and-forget; implementations must not fail the caller.
type Notifier interface {
	HandleFingerprintMismatch(ctx context.Context, ev FingerprintMismatch)
	HandleSessionRevoked(ctx context.Context, ev SessionRevoked)
}

// ValidateInput identifies the session to check and the caller context it must
// match. Device is optional; when set and the session stores a fingerprint,
// the fingerprint is recomputed and compared.
type ValidateInput struct {
	SessionID      string
	ExpectedUserID string
	Device         *domain.DeviceMetadata
}

// Service implements the session lifecycle over the repository.
type Service struct {
	repo          repository.Repository
	hasher        *security.Hasher
	fingerprinter *security.Fingerprinter
	notifier      Notifier
	refreshTTL    time.Duration
	nowF          func() time.Time
}

// New returns a session Service. notifier may be nil, in which case security
// events are dropped.
func New(repo repository.Repository, hasher *security.Hasher, fingerprinter *security.Fingerprinter, notifier Notifier, refreshTTL time.Duration) *Service {
	return &Service{
		repo:          repo,
		hasher:        hasher,
		fingerprinter: fingerprinter,
		notifier:      notifier,
		refreshTTL:    refreshTTL,
		nowF:          func() time.Time { return time.Now().UTC() },
	}
}

// Create persists a new session for userID holding the bcrypt hash of
// refreshSecret. The plaintext secret is never stored. device may be nil;
// explicitID may be empty to generate one.
func (s *Service) Create(ctx context.Context, userID, refreshSecret string, device *domain.DeviceMetadata, explicitID string) (*domain.Session, error) {
	hash, err := s.hasher.Hash([]byte(refreshSecret))
	if err != nil {
		return nil, err
	}
	id := explicitID
	if id == "" {
		id = uuid.New().String()
	}
	now := s.nowF()
	sess := &domain.Session{
		ID:               id,
		UserID:           userID,
		RefreshTokenHash: hash,
		ExpiresAt:        now.Add(s.refreshTTL),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if device != nil {
		fp := s.fingerprinter.Compute(device.IPAddress, device.UserAgent, device.Accept)
		sess.Fingerprint = &fp
		ip := device.IPAddress
		ua := device.UserAgent
		sess.IPAddress = &ip
		sess.UserAgent = &ua
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get returns the session for id, or nil if not found.
func (s *Service) Get(ctx context.Context, id string) (*domain.Session, error) {
	return s.repo.GetByID(ctx, id)
}

// Validate checks that the session exists, belongs to the expected user, is
// neither revoked nor expired, and (when device signals are supplied and a
// fingerprint is stored) still matches the device it was created on.
//
// An expired session is revoked as a side effect the first time anything
// touches it, so correctness does not depend on the background sweep. A
// fingerprint mismatch burns the session and notifies the security notifier.
func (s *Service) Validate(ctx context.Context, in ValidateInput) (*domain.Session, error) {
	sess, err := s.repo.GetByID(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, authn.Unauthorized(authn.ReasonSessionNotFound)
	}
	if sess.UserID != in.ExpectedUserID {
		return nil, authn.Unauthorized(authn.ReasonSessionMismatch)
	}
	if sess.Revoked() {
		return nil, authn.Unauthorized(authn.ReasonSessionRevoked)
	}
	now := s.nowF()
	if sess.ExpiredAt(now) {
		if _, err := s.repo.Revoke(ctx, sess.ID, now); err != nil {
			return nil, err
		}
		return nil, authn.Unauthorized(authn.ReasonSessionExpired)
	}
	if in.Device != nil && sess.Fingerprint != nil {
		fp := s.fingerprinter.Compute(in.Device.IPAddress, in.Device.UserAgent, in.Device.Accept)
		if !security.Equal(fp, *sess.Fingerprint) {
			if _, err := s.repo.Revoke(ctx, sess.ID, now); err != nil {
				return nil, err
			}
			if s.notifier != nil {
				s.notifier.HandleFingerprintMismatch(ctx, FingerprintMismatch{
					SessionID:  sess.ID,
					UserID:     sess.UserID,
					IPAddress:  in.Device.IPAddress,
					UserAgent:  in.Device.UserAgent,
					OccurredAt: now,
				})
			}
			return nil, authn.Unauthorized(authn.ReasonFingerprintMismatch)
		}
	}
	return sess, nil
}

// ReplaceRefreshSecret hashes newSecret and persists it as the session's
// current valid refresh-token hash, superseding the previous one.
func (s *Service) ReplaceRefreshSecret(ctx context.Context, sessionID, newSecret string) error {
	hash, err := s.hasher.Hash([]byte(newSecret))
	if err != nil {
		return err
	}
	return s.repo.UpdateRefreshTokenHash(ctx, sessionID, hash, s.nowF())
}

// CompareRefreshSecret reports whether secret matches the session's current
// refresh-token hash.
func (s *Service) CompareRefreshSecret(sess *domain.Session, secret string) bool {
	return s.hasher.Compare(sess.RefreshTokenHash, []byte(secret)) == nil
}

// Revoke marks the session revoked and notifies the security notifier.
// Missing or already-revoked sessions are a successful no-op, so cleanup code
// can call this defensively from any failure path.
func (s *Service) Revoke(ctx context.Context, sessionID, reason string) error {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess == nil || sess.Revoked() {
		return nil
	}
	now := s.nowF()
	revoked, err := s.repo.Revoke(ctx, sessionID, now)
	if err != nil {
		return err
	}
	if revoked && s.notifier != nil {
		s.notifier.HandleSessionRevoked(ctx, SessionRevoked{
			SessionID: sess.ID,
			UserID:    sess.UserID,
			Reason:    reason,
			RevokedAt: now,
			IPAddress: sess.IPAddress,
			UserAgent: sess.UserAgent,
		})
	}
	return nil
}

// RevokeAllForUser revokes every active session for userID and returns the
// number of sessions revoked. Used for password-reset and compromise flows.
func (s *Service) RevokeAllForUser(ctx context.Context, userID, reason string) (int64, error) {
	n, err := s.repo.RevokeAllByUser(ctx, userID, s.nowF())
	if err != nil {
		return 0, err
	}
	if n > 0 && s.notifier != nil {
		s.notifier.HandleSessionRevoked(ctx, SessionRevoked{
			UserID:    userID,
			Reason:    reason,
			RevokedAt: s.nowF(),
		})
	}
	return n, nil
}

// CleanupExpired revokes every active session past its expiry and returns the
// number of rows affected. Safe to run concurrently with Validate's lazy
// revocation; both converge on the same terminal state.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	return s.repo.RevokeExpired(ctx, s.nowF())
}
