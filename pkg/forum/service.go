package forum

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/forumlab/agora/pkg/config"
)

// Page bounds a listing request. Zero values fall back to the configured
// defaults.
type Page struct {
	Offset int
	Limit  int
}

// Service applies validation and ownership rules on top of a Store.
type Service struct {
	store       Store
	pageSize    int
	maxPageSize int
	now         func() time.Time
}

// NewService creates a forum service.
func NewService(store Store, cfg *config.ForumConfig) *Service {
	return &Service{
		store:       store,
		pageSize:    cfg.PageSize,
		maxPageSize: cfg.MaxPageSize,
		now:         time.Now,
	}
}

// NewStoreFromConfig builds the configured storage backend.
func NewStoreFromConfig(cfg *config.ForumConfig, root *config.Config, pool *config.DBPool) (Store, error) {
	switch cfg.Backend {
	case "sql":
		dbCfg, ok := root.GetDatabase(cfg.Database)
		if !ok {
			return nil, fmt.Errorf("database %q not found", cfg.Database)
		}
		db, err := pool.Get(dbCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open forum database: %w", err)
		}
		return NewSQLStore(db, dbCfg.Dialect())
	default:
		return NewMemoryStore(), nil
	}
}

func (s *Service) clamp(p Page) (offset, limit int) {
	offset = p.Offset
	if offset < 0 {
		offset = 0
	}
	limit = p.Limit
	if limit <= 0 {
		limit = s.pageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}
	return offset, limit
}

// CreateThread creates a thread owned by authorID.
func (s *Service) CreateThread(ctx context.Context, authorID, title, content string) (*Thread, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	t := &Thread{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateThread(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// GetThread returns a thread by ID.
func (s *Service) GetThread(ctx context.Context, id string) (*Thread, error) {
	return s.store.GetThread(ctx, id)
}

// ListThreads returns a page of threads, newest first.
func (s *Service) ListThreads(ctx context.Context, p Page) ([]*Thread, error) {
	offset, limit := s.clamp(p)
	return s.store.ListThreads(ctx, offset, limit)
}

// UpdateThread applies a partial update. Only the owner may update.
func (s *Service) UpdateThread(ctx context.Context, callerID, id string, upd ThreadUpdate) (*Thread, error) {
	t, err := s.store.GetThread(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.AuthorID != callerID {
		return nil, ErrNotOwner
	}

	if upd.Title != nil {
		if err := validateTitle(*upd.Title); err != nil {
			return nil, err
		}
		t.Title = *upd.Title
	}
	if upd.Content != nil {
		if err := validateContent(*upd.Content); err != nil {
			return nil, err
		}
		t.Content = *upd.Content
	}
	t.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateThread(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteThread removes a thread and its comments. Only the owner may delete.
func (s *Service) DeleteThread(ctx context.Context, callerID, id string) error {
	t, err := s.store.GetThread(ctx, id)
	if err != nil {
		return err
	}
	if t.AuthorID != callerID {
		return ErrNotOwner
	}
	return s.store.DeleteThread(ctx, id)
}

// CreateComment attaches a comment to an existing thread.
func (s *Service) CreateComment(ctx context.Context, authorID, threadID, content string) (*Comment, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c := &Comment{
		ID:        uuid.NewString(),
		ThreadID:  threadID,
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetComment returns a comment by ID.
func (s *Service) GetComment(ctx context.Context, id string) (*Comment, error) {
	return s.store.GetComment(ctx, id)
}

// ListComments returns a page of a thread's comments, oldest first.
func (s *Service) ListComments(ctx context.Context, threadID string, p Page) ([]*Comment, error) {
	if _, err := s.store.GetThread(ctx, threadID); err != nil {
		return nil, err
	}
	offset, limit := s.clamp(p)
	return s.store.ListComments(ctx, threadID, offset, limit)
}

// UpdateComment rewrites a comment's content. Only the owner may update.
func (s *Service) UpdateComment(ctx context.Context, callerID, id, content string) (*Comment, error) {
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.AuthorID != callerID {
		return nil, ErrNotOwner
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}

	c.Content = content
	c.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteComment removes a comment. Only the owner may delete.
func (s *Service) DeleteComment(ctx context.Context, callerID, id string) error {
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if c.AuthorID != callerID {
		return ErrNotOwner
	}
	return s.store.DeleteComment(ctx, id)
}
