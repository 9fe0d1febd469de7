package repository

import (
	"context"

	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/user/domain"
)

// Repository defines persistence for user accounts. Lookups return nil, nil
// for missing rows; errors are database failures only.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}
