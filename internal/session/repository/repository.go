package repository

import (
	"context"
	"time"

	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/session/domain"
)

// Repository defines persistence for user sessions. Revocation updates are
// conditional on revoked_at still being null, so concurrent revocations
// converge without clobbering an earlier one.
type Repository interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	UpdateRefreshTokenHash(ctx context.Context, id, hash string, at time.Time) error
	// Revoke marks the session revoked at the given time. Returns true if the
	// row was still active and this call revoked it.
	Revoke(ctx context.Context, id string, at time.Time) (bool, error)
	// RevokeAllByUser revokes every active session for userID and returns the
	// number of rows affected.
	RevokeAllByUser(ctx context.Context, userID string, at time.Time) (int64, error)
	// RevokeExpired revokes every active session whose expires_at has passed
	// and returns the number of rows affected.
	RevokeExpired(ctx context.Context, now time.Time) (int64, error)
}
