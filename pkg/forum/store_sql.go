package forum

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const createForumTablesSQL = `
CREATE TABLE IF NOT EXISTS threads (
    id VARCHAR(36) NOT NULL,
    title VARCHAR(200) NOT NULL,
    content TEXT NOT NULL,
    author_id VARCHAR(255) NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id)
);

CREATE TABLE IF NOT EXISTS comments (
    id VARCHAR(36) NOT NULL,
    thread_id VARCHAR(36) NOT NULL,
    content TEXT NOT NULL,
    author_id VARCHAR(255) NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id)
);

CREATE INDEX IF NOT EXISTS idx_comments_thread ON comments(thread_id);
`

// SQLStore is a SQL-backed Store shared across server processes.
// It supports Postgres, MySQL, and SQLite.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

// NewSQLStore creates a SQL-backed store and ensures its schema exists.
// Supported dialects: "postgres", "mysql", "sqlite".
func NewSQLStore(db *sql.DB, dialect string) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	switch dialect {
	case "postgres", "mysql", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported dialect: %s (supported: postgres, mysql, sqlite)", dialect)
	}

	s := &SQLStore{db: db, dialect: dialect}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, createForumTablesSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// bind rewrites ? placeholders to $N for Postgres.
func (s *SQLStore) bind(query string) string {
	if s.dialect != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) CreateThread(ctx context.Context, t *Thread) error {
	query := s.bind(`INSERT INTO threads (id, title, content, author_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query, t.ID, t.Title, t.Content, t.AuthorID, t.CreatedAt, t.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert thread: %w", err)
	}
	return nil
}

func (s *SQLStore) GetThread(ctx context.Context, id string) (*Thread, error) {
	query := s.bind(`SELECT id, title, content, author_id, created_at, updated_at FROM threads WHERE id = ?`)
	var t Thread
	err := s.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Title, &t.Content, &t.AuthorID, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrThreadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query thread: %w", err)
	}
	return &t, nil
}

func (s *SQLStore) ListThreads(ctx context.Context, offset, limit int) ([]*Thread, error) {
	query := s.bind(`SELECT id, title, content, author_id, created_at, updated_at FROM threads ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`)
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	threads := make([]*Thread, 0, limit)
	for rows.Next() {
		var t Thread
		if err := rows.Scan(&t.ID, &t.Title, &t.Content, &t.AuthorID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		threads = append(threads, &t)
	}
	return threads, rows.Err()
}

func (s *SQLStore) UpdateThread(ctx context.Context, t *Thread) error {
	query := s.bind(`UPDATE threads SET title = ?, content = ?, updated_at = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query, t.Title, t.Content, t.UpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update thread: %w", err)
	}
	return checkAffected(res, ErrThreadNotFound)
}

func (s *SQLStore) DeleteThread(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.bind(`DELETE FROM threads WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}
	if err := checkAffected(res, ErrThreadNotFound); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.bind(`DELETE FROM comments WHERE thread_id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete thread comments: %w", err)
	}
	return nil
}

func (s *SQLStore) CreateComment(ctx context.Context, c *Comment) error {
	if _, err := s.GetThread(ctx, c.ThreadID); err != nil {
		return err
	}
	query := s.bind(`INSERT INTO comments (id, thread_id, content, author_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query, c.ID, c.ThreadID, c.Content, c.AuthorID, c.CreatedAt, c.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

func (s *SQLStore) GetComment(ctx context.Context, id string) (*Comment, error) {
	query := s.bind(`SELECT id, thread_id, content, author_id, created_at, updated_at FROM comments WHERE id = ?`)
	var c Comment
	err := s.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.ThreadID, &c.Content, &c.AuthorID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query comment: %w", err)
	}
	return &c, nil
}

func (s *SQLStore) ListComments(ctx context.Context, threadID string, offset, limit int) ([]*Comment, error) {
	query := s.bind(`SELECT id, thread_id, content, author_id, created_at, updated_at FROM comments WHERE thread_id = ? ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?`)
	rows, err := s.db.QueryContext(ctx, query, threadID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]*Comment, 0, limit)
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.ThreadID, &c.Content, &c.AuthorID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

func (s *SQLStore) UpdateComment(ctx context.Context, c *Comment) error {
	query := s.bind(`UPDATE comments SET content = ?, updated_at = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query, c.Content, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return checkAffected(res, ErrCommentNotFound)
}

func (s *SQLStore) DeleteComment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.bind(`DELETE FROM comments WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return checkAffected(res, ErrCommentNotFound)
}

// Close does not close the underlying database connection, which may be
// shared with other components.
func (s *SQLStore) Close() error {
	return nil
}

func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		// Driver does not report affected rows; assume the write landed.
		return nil
	}
	if n == 0 {
		return notFound
	}
	return nil
}
