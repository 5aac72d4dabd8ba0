package quota

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Clock returns the current time. Injectable for testing day rollover
// without sleeping until midnight.
type Clock func() time.Time

// Guard enforces a per-principal daily operation quota.
//
// All day arithmetic is done on UTC calendar dates. A stored record whose
// day differs from the current day in either direction is treated as stale
// and replaced on the next Record or Consume, so backwards clock jumps
// cannot grant a negative count or a crash, only a fresh window.
type Guard struct {
	limit    int64
	store    UsageStore
	clock    Clock
	failOpen bool
	mu       sync.Mutex
}

// GuardOption customizes a Guard.
type GuardOption func(*Guard)

// WithClock overrides the time source (for testing).
func WithClock(clock Clock) GuardOption {
	return func(g *Guard) {
		if clock != nil {
			g.clock = clock
		}
	}
}

// WithFailOpen makes the guard allow requests when the store is
// unreachable instead of rejecting them. The default is fail-closed:
// availability of the backing store gates the protected operations.
func WithFailOpen() GuardOption {
	return func(g *Guard) {
		g.failOpen = true
	}
}

// NewGuard creates a guard enforcing the given daily limit.
// A limit of zero or less disables all protected operations.
func NewGuard(limit int64, store UsageStore, opts ...GuardOption) (*Guard, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}

	g := &Guard{
		limit: limit,
		store: store,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// Limit returns the configured daily limit.
func (g *Guard) Limit() int64 {
	return g.limit
}

// Allowed reports whether the principal may perform one more operation
// today. It is read-only and never mutates the store; pair it with Record
// on the success path, or use Consume for an atomic check-and-increment.
func (g *Guard) Allowed(ctx context.Context, principal string) (bool, error) {
	if principal == "" {
		return false, ErrInvalidPrincipal
	}

	rec, ok, err := g.store.Get(ctx, principal)
	if err != nil {
		if g.failOpen {
			return true, nil
		}
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// No record and a stale record both mean nothing used today, which is
	// allowed only when the limit grants at least one operation.
	if !ok || rec.Day != DayOf(g.clock()) {
		return g.limit > 0, nil
	}

	return rec.Count < g.limit, nil
}

// Record counts one completed operation against today's usage. A record
// from any other day is discarded and replaced with a fresh count of one.
//
// Call Record only after the operation succeeds; failed operations do not
// consume quota.
func (g *Guard) Record(ctx context.Context, principal string) error {
	if principal == "" {
		return ErrInvalidPrincipal
	}

	today := DayOf(g.clock())

	rec, ok, err := g.store.Get(ctx, principal)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if ok && rec.Day == today {
		rec.Count++
	} else {
		rec = UsageRecord{Day: today, Count: 1}
	}

	if err := g.store.Put(ctx, principal, rec); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// Remaining returns how many operations the principal has left today,
// clamped at zero.
func (g *Guard) Remaining(ctx context.Context, principal string) (int64, error) {
	if principal == "" {
		return 0, ErrInvalidPrincipal
	}

	rec, ok, err := g.store.Get(ctx, principal)
	if err != nil {
		if g.failOpen {
			return g.limit, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if !ok || rec.Day != DayOf(g.clock()) {
		return g.limit, nil
	}

	remaining := g.limit - rec.Count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Consume atomically checks the limit and records one operation. Unlike the
// Allowed/Record pair it holds the guard's lock across both steps, so
// concurrent callers within one process cannot overshoot the limit. It
// returns an ExceededError when the quota is spent.
func (g *Guard) Consume(ctx context.Context, principal string) error {
	if principal == "" {
		return ErrInvalidPrincipal
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock()
	today := DayOf(now)

	rec, ok, err := g.store.Get(ctx, principal)
	if err != nil {
		if g.failOpen {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if !ok || rec.Day != today {
		rec = UsageRecord{Day: today, Count: 0}
	}

	if rec.Count >= g.limit {
		return &ExceededError{
			Principal: principal,
			Limit:     g.limit,
			ResetsAt:  NextMidnightUTC(now),
		}
	}

	rec.Count++
	if err := g.store.Put(ctx, principal, rec); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// Snapshot returns the principal's usage state for quota status responses
// and rate limit headers.
func (g *Guard) Snapshot(ctx context.Context, principal string) (Snapshot, error) {
	if principal == "" {
		return Snapshot{}, ErrInvalidPrincipal
	}

	now := g.clock()
	snap := Snapshot{
		Limit:    g.limit,
		ResetsAt: NextMidnightUTC(now),
	}

	rec, ok, err := g.store.Get(ctx, principal)
	if err != nil {
		if g.failOpen {
			snap.Remaining = g.limit
			return snap, nil
		}
		return Snapshot{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if ok && rec.Day == DayOf(now) {
		snap.Used = rec.Count
	}

	snap.Remaining = snap.Limit - snap.Used
	if snap.Remaining < 0 {
		snap.Remaining = 0
	}

	return snap, nil
}

// SweepStale evicts usage records from days before the current UTC day.
// Stores that cannot sweep are left alone; stale records there are still
// harmless, just retained.
func (g *Guard) SweepStale(ctx context.Context) (int, error) {
	sw, ok := g.store.(StaleSweeper)
	if !ok {
		return 0, nil
	}
	return sw.Sweep(ctx, DayOf(g.clock()))
}
