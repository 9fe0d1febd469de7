package repository

import (
	"context"
	"database/sql"

	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/audit/domain"
)

// PostgresRepository persists security events in the security_events table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a security-event repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the event.
func (r *PostgresRepository) Create(ctx context.Context, ev *domain.SecurityEvent) error {
	const q = `
INSERT INTO security_events (id, user_id, session_id, action, reason, ip_address, user_agent, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`
	_, err := r.db.ExecContext(ctx, q,
		ev.ID, ev.UserID, ev.SessionID, ev.Action, ev.Reason,
		ev.IPAddress, ev.UserAgent, ev.Metadata, ev.CreatedAt,
	)
	return err
}
