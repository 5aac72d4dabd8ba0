package quota

import (
	"context"
)

// UsageStore is the persistence layer for per-principal usage records.
//
// Implementations must be safe for concurrent use.
type UsageStore interface {
	// Get returns the stored record for a principal and whether one exists.
	// It must not fabricate a default record as a side effect of reading.
	Get(ctx context.Context, principal string) (UsageRecord, bool, error)

	// Put replaces (or creates) the stored record for a principal.
	// Last write wins.
	Put(ctx context.Context, principal string, rec UsageRecord) error

	// Close releases any resources held by the store.
	Close() error
}

// StaleSweeper is implemented by stores that can evict records from past
// days. Sweeping is an optimization, not a correctness requirement: stale
// records are already treated as zero usage on read.
type StaleSweeper interface {
	// Sweep removes records whose day is strictly before the given UTC day
	// and reports how many were removed.
	Sweep(ctx context.Context, before string) (int, error)
}

// Ensure interface compliance at compile time.
var (
	_ UsageStore   = (*MemoryStore)(nil)
	_ UsageStore   = (*SQLStore)(nil)
	_ StaleSweeper = (*MemoryStore)(nil)
	_ StaleSweeper = (*SQLStore)(nil)
)
