package quota

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// PrincipalFunc extracts the quota principal from an HTTP request,
// typically the authenticated user ID placed in the context by the auth
// middleware. An empty return means the request has no principal and is
// passed through unguarded.
type PrincipalFunc func(r *http.Request) string

// MiddlewareConfig configures the quota middleware.
type MiddlewareConfig struct {
	// Guard enforces the daily limit.
	Guard *Guard

	// PrincipalFunc extracts the principal from requests.
	PrincipalFunc PrincipalFunc

	// OnExceeded is called when a request is over quota.
	// If nil, a default JSON error response is sent.
	OnExceeded func(w http.ResponseWriter, r *http.Request, snap Snapshot)
}

// Middleware creates an HTTP middleware that enforces the daily AI quota.
//
// The check runs before the handler; usage is recorded after the handler
// only when it responded with a success status, so failed generations do
// not burn quota. Between check and record another request for the same
// principal may slip through, which is the documented overshoot of the
// two-step protocol; handlers that need the hard ceiling call
// Guard.Consume directly instead of relying on this middleware.
func Middleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	if cfg.Guard == nil || cfg.PrincipalFunc == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	if cfg.OnExceeded == nil {
		cfg.OnExceeded = func(w http.ResponseWriter, r *http.Request, snap Snapshot) {
			WriteExceeded(w, snap)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := cfg.PrincipalFunc(r)
			if principal == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			allowed, err := cfg.Guard.Allowed(ctx, principal)
			if err != nil {
				slog.Error("Quota check failed", "error", err, "principal", principal)
				writeStoreUnavailable(w)
				return
			}

			snap, err := cfg.Guard.Snapshot(ctx, principal)
			if err != nil {
				slog.Error("Quota snapshot failed", "error", err, "principal", principal)
				writeStoreUnavailable(w)
				return
			}

			if !allowed {
				cfg.OnExceeded(w, r, snap)
				return
			}

			addQuotaHeaders(w, snap)

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			// Only successful operations count against the quota.
			if sw.status < 400 {
				if err := cfg.Guard.Record(ctx, principal); err != nil {
					slog.Error("Quota record failed", "error", err, "principal", principal)
				}
			}
		})
	}
}

// statusWriter captures the response status so the middleware can tell
// whether the handler succeeded.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// WriteExceeded sends the standard 429 response with retry and quota
// headers. Custom OnExceeded callbacks can use it after their own
// bookkeeping.
func WriteExceeded(w http.ResponseWriter, snap Snapshot) {
	retryAfter := int64(time.Until(snap.ResetsAt).Seconds())
	if retryAfter < 0 {
		retryAfter = 0
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
	addQuotaHeaders(w, snap)
	w.WriteHeader(http.StatusTooManyRequests)

	response := map[string]interface{}{
		"error": map[string]interface{}{
			"code":    "quota_exceeded",
			"message": "daily AI quota exceeded",
		},
		"retry_after_seconds": retryAfter,
		"quota":               snap,
	}

	_ = json.NewEncoder(w).Encode(response)
}

func writeStoreUnavailable(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":    "quota_store_unavailable",
			"message": "quota store unavailable",
		},
	})
}

// addQuotaHeaders adds standard rate limit headers to the response.
func addQuotaHeaders(w http.ResponseWriter, snap Snapshot) {
	w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(snap.Limit, 10))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(snap.Remaining, 10))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(snap.ResetsAt.Unix(), 10))
}
