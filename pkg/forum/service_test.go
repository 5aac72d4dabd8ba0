package forum

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forumlab/agora/pkg/config"
)

func newTestService() *Service {
	cfg := &config.ForumConfig{}
	cfg.SetDefaults()
	return NewService(NewMemoryStore(), cfg)
}

func TestService_ThreadLifecycle(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateThread(ctx, "alice", "First post", "hello world")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice", created.AuthorID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := svc.GetThread(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)

	newTitle := "First post (edited)"
	updated, err := svc.UpdateThread(ctx, "alice", created.ID, ThreadUpdate{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, newTitle, updated.Title)
	assert.Equal(t, "hello world", updated.Content)

	require.NoError(t, svc.DeleteThread(ctx, "alice", created.ID))

	_, err = svc.GetThread(ctx, created.ID)
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestService_OwnershipEnforced(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	thread, err := svc.CreateThread(ctx, "alice", "Mine", "content")
	require.NoError(t, err)

	title := "hijacked"
	_, err = svc.UpdateThread(ctx, "mallory", thread.ID, ThreadUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrNotOwner)

	err = svc.DeleteThread(ctx, "mallory", thread.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	comment, err := svc.CreateComment(ctx, "bob", thread.ID, "nice post")
	require.NoError(t, err)

	_, err = svc.UpdateComment(ctx, "mallory", comment.ID, "spam")
	assert.ErrorIs(t, err, ErrNotOwner)

	err = svc.DeleteComment(ctx, "mallory", comment.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	// The owner still can.
	_, err = svc.UpdateComment(ctx, "bob", comment.ID, "really nice post")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteComment(ctx, "bob", comment.ID))
}

func TestService_Validation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateThread(ctx, "alice", "", "content")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateThread(ctx, "alice", "   ", "content")
	assert.ErrorIs(t, err, ErrValidation)

	longTitle := make([]byte, MaxTitleLength+1)
	for i := range longTitle {
		longTitle[i] = 'a'
	}
	_, err = svc.CreateThread(ctx, "alice", string(longTitle), "content")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateThread(ctx, "alice", "title", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_ListThreadsPagination(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	// Distinct timestamps so newest-first ordering is well defined.
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	i := 0
	var mu sync.Mutex
	svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		i++
		return base.Add(time.Duration(i) * time.Second)
	}

	for n := 0; n < 5; n++ {
		_, err := svc.CreateThread(ctx, "alice", fmt.Sprintf("thread %d", n), "content")
		require.NoError(t, err)
	}

	page, err := svc.ListThreads(ctx, Page{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "thread 4", page[0].Title)
	assert.Equal(t, "thread 3", page[1].Title)

	page, err = svc.ListThreads(ctx, Page{Offset: 4, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "thread 0", page[0].Title)

	// Zero limit falls back to the default page size.
	page, err = svc.ListThreads(ctx, Page{})
	require.NoError(t, err)
	assert.Len(t, page, 5)

	// Oversized limits are clamped, not rejected.
	_, err = svc.ListThreads(ctx, Page{Limit: 10000})
	require.NoError(t, err)
}

func TestService_CommentsOldestFirst(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	thread, err := svc.CreateThread(ctx, "alice", "t", "c")
	require.NoError(t, err)

	for n := 0; n < 3; n++ {
		_, err := svc.CreateComment(ctx, "bob", thread.ID, fmt.Sprintf("comment %d", n))
		require.NoError(t, err)
	}

	comments, err := svc.ListComments(ctx, thread.ID, Page{})
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "comment 0", comments[0].Content)
	assert.Equal(t, "comment 2", comments[2].Content)
}

func TestService_CommentOnMissingThread(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateComment(ctx, "bob", "no-such-thread", "hello")
	assert.ErrorIs(t, err, ErrThreadNotFound)

	_, err = svc.ListComments(ctx, "no-such-thread", Page{})
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestService_DeleteThreadCascades(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	thread, err := svc.CreateThread(ctx, "alice", "t", "c")
	require.NoError(t, err)
	comment, err := svc.CreateComment(ctx, "bob", thread.ID, "hi")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteThread(ctx, "alice", thread.ID))

	_, err = svc.GetComment(ctx, comment.ID)
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func TestMemoryStore_CopiesOnRead(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	orig := &Thread{ID: "t1", Title: "title", Content: "c", AuthorID: "a"}
	require.NoError(t, store.CreateThread(ctx, orig))

	got, err := store.GetThread(ctx, "t1")
	require.NoError(t, err)
	got.Title = "mutated"

	again, err := store.GetThread(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "title", again.Title)
}
