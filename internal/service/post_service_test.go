package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-api/internal/domain"
	"blog-api/internal/repository"
)

type mockPostRepo struct {
	mu    sync.Mutex
	posts map[string]*domain.Post
}

func newMockPostRepo() *mockPostRepo {
	return &mockPostRepo{posts: make(map[string]*domain.Post)}
}

func (m *mockPostRepo) Init(ctx context.Context) error { return nil }

func (m *mockPostRepo) Create(ctx context.Context, post *domain.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.posts {
		if existing.Slug == post.Slug {
			return fmt.Errorf("post slug %q: %w", post.Slug, repository.ErrDuplicate)
		}
	}
	copied := *post
	m.posts[post.ID] = &copied
	return nil
}

func (m *mockPostRepo) Update(ctx context.Context, post *domain.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[post.ID]; !ok {
		return fmt.Errorf("post %s: %w", post.ID, repository.ErrNotFound)
	}
	for id, existing := range m.posts {
		if id != post.ID && existing.Slug == post.Slug {
			return fmt.Errorf("post slug %q: %w", post.Slug, repository.ErrDuplicate)
		}
	}
	copied := *post
	m.posts[post.ID] = &copied
	return nil
}

func (m *mockPostRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return fmt.Errorf("post %s: %w", id, repository.ErrNotFound)
	}
	delete(m.posts, id)
	return nil
}

func (m *mockPostRepo) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	post, ok := m.posts[id]
	if !ok {
		return nil, fmt.Errorf("post: %w", repository.ErrNotFound)
	}
	copied := *post
	return &copied, nil
}

func (m *mockPostRepo) GetBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, post := range m.posts {
		if post.Slug == slug {
			copied := *post
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("post: %w", repository.ErrNotFound)
}

func (m *mockPostRepo) List(ctx context.Context) ([]domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var posts []domain.Post
	for _, post := range m.posts {
		posts = append(posts, *post)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	return posts, nil
}

type mockCommentRepo struct {
	mu       sync.Mutex
	comments map[string]*domain.Comment
}

func newMockCommentRepo() *mockCommentRepo {
	return &mockCommentRepo{comments: make(map[string]*domain.Comment)}
}

func (m *mockCommentRepo) Init(ctx context.Context) error { return nil }

func (m *mockCommentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *comment
	m.comments[comment.ID] = &copied
	return nil
}

func (m *mockCommentRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[id]; !ok {
		return fmt.Errorf("comment %s: %w", id, repository.ErrNotFound)
	}
	delete(m.comments, id)
	return nil
}

func (m *mockCommentRepo) Get(ctx context.Context, id string) (*domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	comment, ok := m.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment: %w", repository.ErrNotFound)
	}
	copied := *comment
	return &copied, nil
}

func (m *mockCommentRepo) ListByPost(ctx context.Context, postID string) ([]domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	comments := []domain.Comment{}
	for _, comment := range m.comments {
		if comment.PostID == postID {
			comments = append(comments, *comment)
		}
	}
	return comments, nil
}

func (m *mockCommentRepo) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for id, comment := range m.comments {
		if comment.PostID == postID {
			delete(m.comments, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *mockCommentRepo) DeleteOrphans(ctx context.Context) (int64, error) {
	return 0, nil
}

type recordingCleaner struct {
	mu       sync.Mutex
	enqueued []string
}

func (c *recordingCleaner) Enqueue(postID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enqueued = append(c.enqueued, postID)
	return nil
}

func (c *recordingCleaner) ids() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.enqueued...)
}

func newTestPostService() (PostService, *mockPostRepo, *mockCommentRepo, *recordingCleaner) {
	posts := newMockPostRepo()
	comments := newMockCommentRepo()
	cleaner := &recordingCleaner{}
	logger := logrus.New()
	logger.SetOutput(&strings.Builder{})
	return NewPostService(posts, comments, cleaner, logger), posts, comments, cleaner
}

func TestCreatePost(t *testing.T) {
	svc, _, _, _ := newTestPostService()
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, "Hello World!", "some content")
	require.NoError(t, err)
	assert.NotEmpty(t, post.ID)
	assert.Equal(t, "hello-world", post.Slug)
	assert.NotEmpty(t, post.Timestamp)
	assert.Empty(t, post.LastUpdate)

	fetched, err := svc.GetPost(ctx, "hello-world")
	require.NoError(t, err)
	assert.Equal(t, post.Title, fetched.Title)
	assert.Equal(t, post.Text, fetched.Text)
}

func TestCreatePostEscapesMarkup(t *testing.T) {
	svc, _, _, _ := newTestPostService()

	post, err := svc.CreatePost(context.Background(), "Safe Title", `<b>bold</b>`)
	require.NoError(t, err)
	assert.NotContains(t, post.Text, "<b>")
	assert.Contains(t, post.Text, "&lt;b&gt;")
}

func TestCreatePostValidation(t *testing.T) {
	svc, _, _, _ := newTestPostService()

	_, err := svc.CreatePost(context.Background(), "  ", "")
	verr, ok := AsValidation(err)
	require.True(t, ok)
	assert.Len(t, verr.Messages, 2)
}

func TestCreatePostSlugConflict(t *testing.T) {
	svc, _, _, _ := newTestPostService()
	ctx := context.Background()

	_, err := svc.CreatePost(ctx, "Hello World!", "first")
	require.NoError(t, err)

	// distinct title, identical normalization
	_, err = svc.CreatePost(ctx, "hello world", "second")
	assert.ErrorIs(t, err, ErrSlugTaken)
}

func TestGetPostNotFoundIsIdempotent(t *testing.T) {
	svc, _, _, _ := newTestPostService()
	ctx := context.Background()

	_, err := svc.GetPost(ctx, "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
	_, err = svc.GetPost(ctx, "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestUpdatePost(t *testing.T) {
	svc, _, _, _ := newTestPostService()
	ctx := context.Background()

	created, err := svc.CreatePost(ctx, "Original Title", "text")
	require.NoError(t, err)

	updated, err := svc.UpdatePost(ctx, created.Slug, "Brand New Title", "new text")
	require.NoError(t, err)
	assert.Equal(t, "brand-new-title", updated.Slug)
	assert.NotEmpty(t, updated.LastUpdate)

	_, err = svc.GetPost(ctx, "original-title")
	assert.ErrorIs(t, err, ErrPostNotFound)

	fetched, err := svc.GetPost(ctx, "brand-new-title")
	require.NoError(t, err)
	assert.Equal(t, "new text", fetched.Text)
}

func TestUpdatePostNotFound(t *testing.T) {
	svc, _, _, _ := newTestPostService()

	_, err := svc.UpdatePost(context.Background(), "missing", "Title", "text")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestDeletePostSchedulesCascade(t *testing.T) {
	svc, _, comments, cleaner := newTestPostService()
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, "Doomed Post", "text")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.CreateComment(ctx, post.ID, "alice", fmt.Sprintf("comment %d", i))
		require.NoError(t, err)
	}

	require.NoError(t, svc.DeletePost(ctx, post.ID))
	assert.Equal(t, []string{post.ID}, cleaner.ids())

	// the cascade runs out of band; the comments are still there until
	// the cleanup manager picks the job up
	remaining, err := comments.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 3)
}

func TestDeletePostNotFound(t *testing.T) {
	svc, _, _, cleaner := newTestPostService()

	err := svc.DeletePost(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.Empty(t, cleaner.ids())
}

func TestCreateCommentLengthBoundary(t *testing.T) {
	svc, _, _, _ := newTestPostService()
	ctx := context.Background()

	atLimit := strings.Repeat("a", 200)
	comment, err := svc.CreateComment(ctx, "post-1", "bob", atLimit)
	require.NoError(t, err)
	assert.Equal(t, atLimit, comment.Text)

	_, err = svc.CreateComment(ctx, "post-1", "bob", strings.Repeat("a", 201))
	_, ok := AsValidation(err)
	assert.True(t, ok)
}

func TestCreateCommentRequiresText(t *testing.T) {
	svc, _, _, _ := newTestPostService()

	_, err := svc.CreateComment(context.Background(), "post-1", "bob", "   ")
	_, ok := AsValidation(err)
	assert.True(t, ok)
}

func TestCreateCommentDoesNotCheckPost(t *testing.T) {
	svc, _, _, _ := newTestPostService()
	ctx := context.Background()

	// comments are only weakly associated with posts
	comment, err := svc.CreateComment(ctx, "no-such-post", "", "orphan comment")
	require.NoError(t, err)
	assert.Equal(t, "no-such-post", comment.PostID)
	assert.NotEmpty(t, comment.Timestamp)

	comments, err := svc.ListComments(ctx, "no-such-post")
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

func TestDeleteComment(t *testing.T) {
	svc, _, _, _ := newTestPostService()
	ctx := context.Background()

	comment, err := svc.CreateComment(ctx, "post-1", "bob", "bye")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteComment(ctx, comment.ID))
	assert.ErrorIs(t, svc.DeleteComment(ctx, comment.ID), ErrCommentNotFound)
}
