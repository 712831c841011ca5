package repository

import (
	"context"

	"blog-api/internal/domain"
)

// PostRepository exposes persistence operations for Post entities.
type PostRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, post *domain.Post) error
	Update(ctx context.Context, post *domain.Post) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Post, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Post, error)
	List(ctx context.Context) ([]domain.Post, error)
}

// CommentRepository manages comments attached to posts by id.
type CommentRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, comment *domain.Comment) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]domain.Comment, error)
	DeleteByPost(ctx context.Context, postID string) (int64, error)
	DeleteOrphans(ctx context.Context) (int64, error)
}
