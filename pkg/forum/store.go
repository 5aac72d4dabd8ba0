package forum

import "context"

// Store persists threads and comments.
//
// ListThreads returns threads newest-first; ListComments returns a thread's
// comments oldest-first. Deleting a thread cascades to its comments. Lookups
// for missing IDs return ErrThreadNotFound or ErrCommentNotFound.
type Store interface {
	CreateThread(ctx context.Context, t *Thread) error
	GetThread(ctx context.Context, id string) (*Thread, error)
	ListThreads(ctx context.Context, offset, limit int) ([]*Thread, error)
	UpdateThread(ctx context.Context, t *Thread) error
	DeleteThread(ctx context.Context, id string) error

	CreateComment(ctx context.Context, c *Comment) error
	GetComment(ctx context.Context, id string) (*Comment, error)
	ListComments(ctx context.Context, threadID string, offset, limit int) ([]*Comment, error)
	UpdateComment(ctx context.Context, c *Comment) error
	DeleteComment(ctx context.Context, id string) error

	Close() error
}

// Both implementations must satisfy the interface.
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLStore)(nil)
)
