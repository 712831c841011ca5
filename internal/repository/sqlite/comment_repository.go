package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"blog-api/internal/domain"
	"blog-api/internal/repository"
)

const createCommentsTable = `
CREATE TABLE IF NOT EXISTS comments (
	id TEXT PRIMARY KEY,
	post_id TEXT NOT NULL,
	username TEXT NOT NULL DEFAULT '',
	text TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`

const createCommentsPostIndex = `
CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);
`

type CommentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) repository.CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createCommentsTable); err != nil {
		return fmt.Errorf("create comments table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createCommentsPostIndex); err != nil {
		return fmt.Errorf("index comments table: %w", err)
	}
	return nil
}

func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	comment.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
INSERT INTO comments (id, post_id, username, text, timestamp, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		comment.ID,
		comment.PostID,
		comment.Username,
		comment.Text,
		comment.Timestamp,
		comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("comment delete rows affected: %w", err)
	}
	if aff == 0 {
		return fmt.Errorf("comment %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (r *CommentRepository) Get(ctx context.Context, id string) (*domain.Comment, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, post_id, username, text, timestamp, created_at
FROM comments
WHERE id=?`,
		id,
	)
	return scanComment(row)
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID string) ([]domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, post_id, username, text, timestamp, created_at
FROM comments
WHERE post_id=?
ORDER BY created_at ASC, id ASC`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *comment)
	}

	return comments, rows.Err()
}

func (r *CommentRepository) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE post_id=?`, postID)
	if err != nil {
		return 0, fmt.Errorf("delete comments by post: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("comment cascade rows affected: %w", err)
	}
	return aff, nil
}

func (r *CommentRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM comments
WHERE post_id NOT IN (SELECT id FROM posts)`)
	if err != nil {
		return 0, fmt.Errorf("delete orphaned comments: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("orphan sweep rows affected: %w", err)
	}
	return aff, nil
}

func scanComment(scanner interface {
	Scan(dest ...any) error
}) (*domain.Comment, error) {
	var comment domain.Comment
	if err := scanner.Scan(
		&comment.ID,
		&comment.PostID,
		&comment.Username,
		&comment.Text,
		&comment.Timestamp,
		&comment.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("comment: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan comment: %w", err)
	}
	return &comment, nil
}
