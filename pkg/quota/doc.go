// Package quota enforces a per-user daily ceiling on AI-backed requests.
//
// Two pieces cooperate:
//
//   - UsageStore holds, per principal, the last active UTC day and the number
//     of requests recorded on that day. Memory and SQL implementations are
//     provided.
//   - Guard is the policy layer: it decides admission against a single daily
//     limit, records consumption, and reports remaining quota. Rollover is
//     implicit: a stored record whose day is not "today" counts as no usage,
//     in both directions of clock movement.
//
// # Basic Usage
//
//	store := quota.NewMemoryStore()
//	guard, err := quota.NewGuard(50, store)
//	if err != nil {
//	    // a nil store is the only constructor failure
//	}
//
//	ok, err := guard.Allowed(ctx, principal)
//	if err != nil || !ok {
//	    // reject before calling any provider
//	}
//	// ... provider call succeeds ...
//	_ = guard.Record(ctx, principal)
//
// Allowed followed by Record is deliberately not atomic: two in-flight
// requests can both pass the check at count = limit-1 and push the counter to
// limit+1. The overshoot is bounded by in-flight concurrency and is accepted
// to keep the common path lock-free. Callers that need a hard ceiling use
// Consume, which performs check-and-increment under a single lock.
//
// Store failures deny the request by default (fail-closed): silently granting
// unlimited usage of a cost-bearing integration on an infrastructure fault is
// the worse failure mode. WithFailOpen inverts this for operators who prefer
// availability.
//
// # Configuration
//
//	quota:
//	  enabled: true
//	  daily_limit: 50
//	  backend: memory   # or "sql"
//	  fail_open: false
package quota
