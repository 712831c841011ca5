package cleanup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"blog-api/internal/repository"
)

// Manager runs comment cascade deletions in the background. Deleting a
// post enqueues its id and returns immediately; the cleanup happens
// after the response is written and failures are logged, not surfaced.
// A reader may briefly observe comments for a post that is already gone.
type Manager interface {
	Start(ctx context.Context) error
	Shutdown()
	Enqueue(postID string) error
	Sweep(ctx context.Context) error
}

type Config struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
	Logger     *logrus.Logger
}

type manager struct {
	cfg      Config
	comments repository.CommentRepository

	jobs   chan string
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewManager(cfg Config, comments repository.CommentRepository) Manager {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.JobTimeout == 0 {
		cfg.JobTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &manager{
		cfg:      cfg,
		comments: comments,
		jobs:     make(chan string, cfg.QueueSize),
	}
}

func (m *manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	for i := 0; i < m.cfg.Workers; i++ {
		m.wg.Add(1)
		go m.worker()
	}

	m.cfg.Logger.Infof("cleanup manager started with %d workers", m.cfg.Workers)
	return nil
}

func (m *manager) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.cfg.Logger.Info("cleanup manager stopped")
}

// Enqueue schedules the comment cascade for a deleted post. It never
// blocks the caller; when the queue is full the job is dropped and the
// error is the caller's to log.
func (m *manager) Enqueue(postID string) error {
	select {
	case m.jobs <- postID:
		return nil
	default:
		return fmt.Errorf("cleanup queue full, dropping cascade for post %s", postID)
	}
}

// Sweep removes comments whose post no longer exists. Run at startup to
// pick up cascades lost to a crash or a full queue.
func (m *manager) Sweep(ctx context.Context) error {
	deleted, err := m.comments.DeleteOrphans(ctx)
	if err != nil {
		return fmt.Errorf("sweep orphaned comments: %w", err)
	}
	if deleted > 0 {
		m.cfg.Logger.Infof("swept %d orphaned comments", deleted)
	}
	return nil
}

func (m *manager) worker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.ctx.Done():
			return
		case postID := <-m.jobs:
			m.run(postID)
		}
	}
}

func (m *manager) run(postID string) {
	logger := m.cfg.Logger.WithField("post_id", postID)

	jobCtx, cancel := context.WithTimeout(context.Background(), m.cfg.JobTimeout)
	defer cancel()

	deleted, err := m.comments.DeleteByPost(jobCtx, postID)
	if err != nil {
		logger.Warnf("comment cascade: %v", err)
		return
	}
	logger.Debugf("comment cascade removed %d comments", deleted)
}

var _ Manager = (*manager)(nil)
