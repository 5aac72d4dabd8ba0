package quota

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of UsageStore.
// It is thread-safe and suitable for development, testing, and
// single-instance deployments. Note that with more than one server process
// each process tracks its own counters, effectively multiplying the nominal
// limit by the process count; use SQLStore when the limit must hold
// cluster-wide.
type MemoryStore struct {
	records map[string]UsageRecord
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory usage store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]UsageRecord),
	}
}

// Get returns the stored record for a principal, if any.
func (s *MemoryStore) Get(ctx context.Context, principal string) (UsageRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[principal]
	return rec, ok, nil
}

// Put replaces the stored record for a principal.
func (s *MemoryStore) Put(ctx context.Context, principal string, rec UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[principal] = rec
	return nil
}

// Sweep evicts records whose day is strictly before the given UTC day.
// Every principal ever seen otherwise leaves a permanent entry; a periodic
// sweep bounds memory growth for long-lived processes.
func (s *MemoryStore) Sweep(ctx context.Context, before string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for principal, rec := range s.records {
		if rec.Day < before {
			delete(s.records, principal)
			evicted++
		}
	}
	return evicted, nil
}

// Size returns the number of stored records (for testing).
func (s *MemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close clears the store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]UsageRecord)
	return nil
}
