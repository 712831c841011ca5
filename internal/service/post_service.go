package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"blog-api/internal/domain"
	"blog-api/internal/repository"
	"blog-api/internal/sanitize"
)

const (
	postDateLayout    = "January 2, 2006"
	commentDateLayout = "02-01-2006 at 15:04"

	maxCommentLength = 200
)

// CommentCleaner schedules the asynchronous comment cascade after a
// post deletion.
type CommentCleaner interface {
	Enqueue(postID string) error
}

// PostService orchestrates the post and comment lifecycle: field
// validation, slug and timestamp rules, and the comment cascade on post
// deletion.
type PostService interface {
	ListPosts(ctx context.Context) ([]domain.Post, error)
	GetPost(ctx context.Context, slug string) (*domain.Post, error)
	CreatePost(ctx context.Context, title, text string) (*domain.Post, error)
	UpdatePost(ctx context.Context, slug, title, text string) (*domain.Post, error)
	DeletePost(ctx context.Context, id string) error
	ListComments(ctx context.Context, postID string) ([]domain.Comment, error)
	CreateComment(ctx context.Context, postID, username, text string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

type postService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	cleaner  CommentCleaner
	logger   *logrus.Logger
}

func NewPostService(posts repository.PostRepository, comments repository.CommentRepository, cleaner CommentCleaner, logger *logrus.Logger) PostService {
	return &postService{
		posts:    posts,
		comments: comments,
		cleaner:  cleaner,
		logger:   logger,
	}
}

func (s *postService) ListPosts(ctx context.Context) ([]domain.Post, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, err
	}

	for i := range posts {
		comments, err := s.comments.ListByPost(ctx, posts[i].ID)
		if err != nil {
			return nil, err
		}
		posts[i].Comments = comments
	}

	return posts, nil
}

func (s *postService) GetPost(ctx context.Context, slug string) (*domain.Post, error) {
	post, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	comments, err := s.comments.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	post.Comments = comments

	return post, nil
}

// CreatePost escapes and validates the fields, derives the slug from
// the stored title and stamps the creation date. Slug uniqueness is
// enforced by the store.
func (s *postService) CreatePost(ctx context.Context, title, text string) (*domain.Post, error) {
	title = sanitize.Escape(title)
	text = sanitize.Escape(text)
	if err := validatePostFields(title, text); err != nil {
		return nil, err
	}

	post := &domain.Post{
		ID:        uuid.NewString(),
		Title:     title,
		Text:      text,
		Slug:      sanitize.Slug(title),
		Timestamp: time.Now().Format(postDateLayout),
	}

	if err := s.posts.Create(ctx, post); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}

	return post, nil
}

// UpdatePost looks the post up by its current slug, then recomputes the
// slug from the new title and stamps lastUpdate.
func (s *postService) UpdatePost(ctx context.Context, slug, title, text string) (*domain.Post, error) {
	title = sanitize.Escape(title)
	text = sanitize.Escape(text)
	if err := validatePostFields(title, text); err != nil {
		return nil, err
	}

	post, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	post.Title = title
	post.Text = text
	post.Slug = sanitize.Slug(title)
	post.LastUpdate = time.Now().Format(postDateLayout)

	if err := s.posts.Update(ctx, post); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrSlugTaken
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	return post, nil
}

// DeletePost removes the post and schedules the comment cleanup on the
// background queue. The caller gets its response before the cascade
// runs; cascade failures are logged, never surfaced. A reader may
// briefly observe comments for a deleted post.
func (s *postService) DeletePost(ctx context.Context, id string) error {
	if err := s.posts.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPostNotFound
		}
		return err
	}

	if err := s.cleaner.Enqueue(id); err != nil {
		s.logger.WithField("post_id", id).Warnf("schedule comment cascade: %v", err)
	}

	return nil
}

func (s *postService) ListComments(ctx context.Context, postID string) ([]domain.Comment, error) {
	return s.comments.ListByPost(ctx, postID)
}

// CreateComment stores a comment against the given post id. The post's
// existence is deliberately not checked; comments are only weakly
// associated with posts.
func (s *postService) CreateComment(ctx context.Context, postID, username, text string) (*domain.Comment, error) {
	// the length bound applies to what the commenter typed, before
	// escaping inflates entities
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, &ValidationError{Messages: []string{"Comment text is required"}}
	}
	if utf8.RuneCountInString(trimmed) > maxCommentLength {
		return nil, &ValidationError{Messages: []string{"Comment text must be at most 200 characters"}}
	}
	text = sanitize.Escape(trimmed)

	comment := &domain.Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		Username:  sanitize.Escape(username),
		Text:      text,
		Timestamp: time.Now().Format(commentDateLayout),
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}

func (s *postService) DeleteComment(ctx context.Context, id string) error {
	if err := s.comments.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	return nil
}

func validatePostFields(title, text string) error {
	var missing []string
	if title == "" {
		missing = append(missing, "Title is required")
	}
	if text == "" {
		missing = append(missing, "Content is required")
	}
	if len(missing) > 0 {
		return &ValidationError{Messages: missing}
	}
	return nil
}
