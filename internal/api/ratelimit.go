package api

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SubmitLimiter rate-limits submissions per session ID, a second line of
// defense behind the per-session busy flag. There is no server-side
// idempotency key, so double-clicks can only be mitigated here.
//
// Entries are pruned lazily once idle past maxIdle, so the map stays bounded
// in a long-running process even when sessions expire without an explicit
// destroy.
type SubmitLimiter struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	maxIdle   time.Duration
	lastPrune time.Time

	now func() time.Time
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewSubmitLimiter allows ratePerMinute submissions, with modest burst room.
func NewSubmitLimiter(ratePerMinute int) *SubmitLimiter {
	if ratePerMinute <= 0 {
		ratePerMinute = 6
	}
	return &SubmitLimiter{
		entries: make(map[string]*limiterEntry),
		limit:   rate.Limit(float64(ratePerMinute) / 60.0),
		burst:   2,
		maxIdle: time.Hour,
		now:     time.Now,
	}
}

func (l *SubmitLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPrune) > l.maxIdle {
		for k, e := range l.entries {
			if now.Sub(e.lastSeen) > l.maxIdle {
				delete(l.entries, k)
			}
		}
		l.lastPrune = now
	}

	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e.lim.Allow()
}

// Forget drops the limiter for a finished session.
func (l *SubmitLimiter) Forget(key string) {
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
}

// Middleware applies the limiter keyed by a path-derived session ID.
func (l *SubmitLimiter) Middleware(keyFn func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(keyFn(r)) {
				WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many submission attempts")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
