package repository

import (
	"context"

	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/audit/domain"
)

// Repository defines persistence for security events.
type Repository interface {
	Create(ctx context.Context, ev *domain.SecurityEvent) error
}
