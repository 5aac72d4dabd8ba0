package quota

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const createUsageTableSQL = `
CREATE TABLE IF NOT EXISTS ai_usage (
    principal VARCHAR(255) NOT NULL,
    day VARCHAR(10) NOT NULL,
    count BIGINT NOT NULL DEFAULT 0,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (principal)
);

CREATE INDEX IF NOT EXISTS idx_ai_usage_day ON ai_usage(day);
`

// SQLStore is a SQL-backed implementation of UsageStore.
// It supports Postgres, MySQL, and SQLite. Unlike MemoryStore, a SQL store
// can be shared by multiple server processes so the daily limit holds
// across the whole deployment.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

// NewSQLStore creates a new SQL-backed store.
// Supported dialects: "postgres", "mysql", "sqlite".
func NewSQLStore(db *sql.DB, dialect string) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	switch dialect {
	case "postgres", "mysql", "sqlite":
		// Valid dialects
	default:
		return nil, fmt.Errorf("unsupported dialect: %s (supported: postgres, mysql, sqlite)", dialect)
	}

	s := &SQLStore{
		db:      db,
		dialect: dialect,
	}

	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// initSchema creates the necessary tables.
func (s *SQLStore) initSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, createUsageTableSQL); err != nil {
		return fmt.Errorf("failed to create ai_usage table: %w", err)
	}

	return nil
}

// Get returns the stored record for a principal, if any.
func (s *SQLStore) Get(ctx context.Context, principal string) (UsageRecord, bool, error) {
	query := `SELECT day, count FROM ai_usage WHERE principal = ?`
	if s.dialect == "postgres" {
		query = `SELECT day, count FROM ai_usage WHERE principal = $1`
	}

	var rec UsageRecord
	err := s.db.QueryRowContext(ctx, query, principal).Scan(&rec.Day, &rec.Count)
	if err == sql.ErrNoRows {
		return UsageRecord{}, false, nil
	}
	if err != nil {
		return UsageRecord{}, false, fmt.Errorf("failed to query usage: %w", err)
	}

	return rec, true, nil
}

// Put replaces the stored record for a principal.
func (s *SQLStore) Put(ctx context.Context, principal string, rec UsageRecord) error {
	now := time.Now().UTC()

	var query string
	switch s.dialect {
	case "postgres":
		query = `
			INSERT INTO ai_usage (principal, day, count, updated_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (principal)
			DO UPDATE SET day = EXCLUDED.day, count = EXCLUDED.count, updated_at = EXCLUDED.updated_at
		`
	case "mysql":
		query = `
			INSERT INTO ai_usage (principal, day, count, updated_at)
			VALUES (?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE day = VALUES(day), count = VALUES(count), updated_at = VALUES(updated_at)
		`
	default:
		// SQLite
		query = `
			INSERT OR REPLACE INTO ai_usage (principal, day, count, updated_at)
			VALUES (?, ?, ?, ?)
		`
	}

	if _, err := s.db.ExecContext(ctx, query, principal, rec.Day, rec.Count, now); err != nil {
		return fmt.Errorf("failed to set usage: %w", err)
	}

	return nil
}

// Sweep deletes records whose day is strictly before the given UTC day.
func (s *SQLStore) Sweep(ctx context.Context, before string) (int, error) {
	query := `DELETE FROM ai_usage WHERE day < ?`
	if s.dialect == "postgres" {
		query = `DELETE FROM ai_usage WHERE day < $1`
	}

	res, err := s.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(n), nil
}

// Close closes the store.
// Note: This does NOT close the underlying database connection,
// as that connection may be shared with other components.
func (s *SQLStore) Close() error {
	return nil
}

// Dialect returns the SQL dialect (for testing).
func (s *SQLStore) Dialect() string {
	return s.dialect
}
