package middleware

import (
	"net/http"
	"sync/atomic"
	"time"

	"contest_arena/internal/common"
	"contest_arena/internal/platform/logger"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/time/rate"
)

// KeyedRateLimiter keeps one token bucket per caller.
type KeyedRateLimiter struct {
	limiters *xsync.MapOf[string, *limiterEntry]
	r        rate.Limit
	burst    int
	idle     time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// NewKeyedRateLimiter allows perMinute requests per caller with the given burst.
func NewKeyedRateLimiter(perMinute, burst int) *KeyedRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &KeyedRateLimiter{
		limiters: xsync.NewMapOf[string, *limiterEntry](),
		r:        rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		idle:     3 * time.Minute,
	}
}

func (rl *KeyedRateLimiter) Allow(key string) bool {
	entry, _ := rl.limiters.LoadOrCompute(key, func() *limiterEntry {
		return &limiterEntry{limiter: rate.NewLimiter(rl.r, rl.burst)}
	})
	entry.lastSeen.Store(time.Now().UnixNano())
	return entry.limiter.Allow()
}

// Sweep forgets callers idle for longer than the idle window.
func (rl *KeyedRateLimiter) Sweep(now time.Time) int {
	removed := 0
	rl.limiters.Range(func(key string, entry *limiterEntry) bool {
		if now.Sub(time.Unix(0, entry.lastSeen.Load())) > rl.idle {
			rl.limiters.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

func (rl *KeyedRateLimiter) Size() int {
	return rl.limiters.Size()
}

// RateLimit limits requests per authenticated user, falling back to the
// client address for anonymous requests.
func RateLimit(rl *KeyedRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if p, ok := PrincipalFromContext(r.Context()); ok {
				key = "user:" + p.UserID
			}
			if !rl.Allow(key) {
				logger.Warn().
					Str("key", key).
					Str("path", r.URL.Path).
					Str("request_id", middleware.GetReqID(r.Context())).
					Msg("Rate limit exceeded")
				common.RespondWithErr(w, common.ErrTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
