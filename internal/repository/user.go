package repository

import (
	"context"

	"blog-api/internal/domain"
)

// UserRepository defines persistence operations for admin credentials.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}
