package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/session/domain"
)

// PostgresRepository persists sessions in the user_sessions table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the session. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	const q = `
INSERT INTO user_sessions (id, user_id, refresh_token_hash, fingerprint, ip_address, user_agent, expires_at, revoked_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`
	_, err := r.db.ExecContext(ctx, q,
		s.ID,
		s.UserID,
		s.RefreshTokenHash,
		strPtrToNull(s.Fingerprint),
		strPtrToNull(s.IPAddress),
		strPtrToNull(s.UserAgent),
		s.ExpiresAt,
		timePtrToNull(s.RevokedAt),
		s.CreatedAt,
		s.UpdatedAt,
	)
	return err
}

// GetByID returns the session for id, or nil if not found. It returns an
// error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	const q = `
SELECT id, user_id, refresh_token_hash, fingerprint, ip_address, user_agent, expires_at, revoked_at, created_at, updated_at
FROM user_sessions
WHERE id = $1;
`
	var (
		s           domain.Session
		fingerprint sql.NullString
		ipAddress   sql.NullString
		userAgent   sql.NullString
		revokedAt   sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.UserID, &s.RefreshTokenHash,
		&fingerprint, &ipAddress, &userAgent,
		&s.ExpiresAt, &revokedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.Fingerprint = nullToStrPtr(fingerprint)
	s.IPAddress = nullToStrPtr(ipAddress)
	s.UserAgent = nullToStrPtr(userAgent)
	s.RevokedAt = nullToTimePtr(revokedAt)
	return &s, nil
}

// UpdateRefreshTokenHash replaces the session's current refresh-token hash.
func (r *PostgresRepository) UpdateRefreshTokenHash(ctx context.Context, id, hash string, at time.Time) error {
	const q = `
UPDATE user_sessions SET refresh_token_hash = $2, updated_at = $3
WHERE id = $1;
`
	_, err := r.db.ExecContext(ctx, q, id, hash, at)
	return err
}

// Revoke marks the session revoked if it is still active. Returns true when
// this call performed the revocation.
func (r *PostgresRepository) Revoke(ctx context.Context, id string, at time.Time) (bool, error) {
	const q = `
UPDATE user_sessions SET revoked_at = $2, updated_at = $2
WHERE id = $1 AND revoked_at IS NULL;
`
	res, err := r.db.ExecContext(ctx, q, id, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RevokeAllByUser revokes every active session for userID.
func (r *PostgresRepository) RevokeAllByUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	const q = `
UPDATE user_sessions SET revoked_at = $2, updated_at = $2
WHERE user_id = $1 AND revoked_at IS NULL;
`
	res, err := r.db.ExecContext(ctx, q, userID, at)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RevokeExpired revokes every active session past its expiry.
func (r *PostgresRepository) RevokeExpired(ctx context.Context, now time.Time) (int64, error) {
	const q = `
UPDATE user_sessions SET revoked_at = $1, updated_at = $1
WHERE revoked_at IS NULL AND expires_at < $1;
`
	res, err := r.db.ExecContext(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func strPtrToNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullToStrPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	return &n.String
}

func timePtrToNull(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullToTimePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}
