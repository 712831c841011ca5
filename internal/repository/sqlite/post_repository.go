package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"blog-api/internal/domain"
	"blog-api/internal/repository"
)

const createPostsTable = `
CREATE TABLE IF NOT EXISTS posts (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	text TEXT NOT NULL,
	image TEXT NOT NULL DEFAULT '',
	slug TEXT NOT NULL UNIQUE,
	timestamp TEXT NOT NULL,
	last_update TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) repository.PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createPostsTable); err != nil {
		return fmt.Errorf("create posts table: %w", err)
	}
	return nil
}

func (r *PostRepository) Create(ctx context.Context, post *domain.Post) error {
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO posts (id, title, text, image, slug, timestamp, last_update, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID,
		post.Title,
		post.Text,
		post.Image,
		post.Slug,
		post.Timestamp,
		post.LastUpdate,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return fmt.Errorf("post slug %q: %w", post.Slug, repository.ErrDuplicate)
		}
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *PostRepository) Update(ctx context.Context, post *domain.Post) error {
	post.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE posts
SET title=?, text=?, image=?, slug=?, timestamp=?, last_update=?, updated_at=?
WHERE id=?`,
		post.Title,
		post.Text,
		post.Image,
		post.Slug,
		post.Timestamp,
		post.LastUpdate,
		post.UpdatedAt,
		post.ID,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return fmt.Errorf("post slug %q: %w", post.Slug, repository.ErrDuplicate)
		}
		return fmt.Errorf("update post: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("post update rows affected: %w", err)
	}
	if aff == 0 {
		return fmt.Errorf("post %s: %w", post.ID, repository.ErrNotFound)
	}
	return nil
}

func (r *PostRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("post delete rows affected: %w", err)
	}
	if aff == 0 {
		return fmt.Errorf("post %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (r *PostRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, text, image, slug, timestamp, last_update, created_at, updated_at
FROM posts
WHERE id=?`,
		id,
	)
	return scanPost(row)
}

func (r *PostRepository) GetBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, text, image, slug, timestamp, last_update, created_at, updated_at
FROM posts
WHERE slug=?`,
		slug,
	)
	return scanPost(row)
}

func (r *PostRepository) List(ctx context.Context) ([]domain.Post, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, text, image, slug, timestamp, last_update, created_at, updated_at
FROM posts
ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}

	return posts, rows.Err()
}

func scanPost(scanner interface {
	Scan(dest ...any) error
}) (*domain.Post, error) {
	var post domain.Post
	if err := scanner.Scan(
		&post.ID,
		&post.Title,
		&post.Text,
		&post.Image,
		&post.Slug,
		&post.Timestamp,
		&post.LastUpdate,
		&post.CreatedAt,
		&post.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("post: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}
	return &post, nil
}
