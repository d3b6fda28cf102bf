package repository

import (
	"context"

	"sdr-juridico/backend/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// SetPlatformOperator grants or revokes the global operator flag.
	SetPlatformOperator(ctx context.Context, userID string, operator bool) error
}
