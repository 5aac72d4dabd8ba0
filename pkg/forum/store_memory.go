package forum

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. Data is lost on restart, which is
// fine for development and single-node deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	threads  map[string]*Thread
	comments map[string]*Comment

	// insertion order, used to serve stable paginated listings
	threadOrder  []string
	commentOrder []string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		threads:  make(map[string]*Thread),
		comments: make(map[string]*Comment),
	}
}

func (s *MemoryStore) CreateThread(ctx context.Context, t *Thread) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *t
	s.threads[t.ID] = &clone
	s.threadOrder = append(s.threadOrder, t.ID)
	return nil
}

func (s *MemoryStore) GetThread(ctx context.Context, id string) (*Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.threads[id]
	if !ok {
		return nil, ErrThreadNotFound
	}
	clone := *t
	return &clone, nil
}

func (s *MemoryStore) ListThreads(ctx context.Context, offset, limit int) ([]*Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// newest-first: walk the insertion order backwards
	result := make([]*Thread, 0, limit)
	skipped := 0
	for i := len(s.threadOrder) - 1; i >= 0 && len(result) < limit; i-- {
		t, ok := s.threads[s.threadOrder[i]]
		if !ok {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		clone := *t
		result = append(result, &clone)
	}
	return result, nil
}

func (s *MemoryStore) UpdateThread(ctx context.Context, t *Thread) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[t.ID]; !ok {
		return ErrThreadNotFound
	}
	clone := *t
	s.threads[t.ID] = &clone
	return nil
}

func (s *MemoryStore) DeleteThread(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[id]; !ok {
		return ErrThreadNotFound
	}
	delete(s.threads, id)
	for cid, c := range s.comments {
		if c.ThreadID == id {
			delete(s.comments, cid)
		}
	}
	return nil
}

func (s *MemoryStore) CreateComment(ctx context.Context, c *Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[c.ThreadID]; !ok {
		return ErrThreadNotFound
	}
	clone := *c
	s.comments[c.ID] = &clone
	s.commentOrder = append(s.commentOrder, c.ID)
	return nil
}

func (s *MemoryStore) GetComment(ctx context.Context, id string) (*Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, ErrCommentNotFound
	}
	clone := *c
	return &clone, nil
}

func (s *MemoryStore) ListComments(ctx context.Context, threadID string, offset, limit int) ([]*Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// oldest-first: walk the insertion order forwards
	result := make([]*Comment, 0, limit)
	skipped := 0
	for _, id := range s.commentOrder {
		if len(result) >= limit {
			break
		}
		c, ok := s.comments[id]
		if !ok || c.ThreadID != threadID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		clone := *c
		result = append(result, &clone)
	}
	return result, nil
}

func (s *MemoryStore) UpdateComment(ctx context.Context, c *Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[c.ID]; !ok {
		return ErrCommentNotFound
	}
	clone := *c
	s.comments[c.ID] = &clone
	return nil
}

func (s *MemoryStore) DeleteComment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return ErrCommentNotFound
	}
	delete(s.comments, id)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
