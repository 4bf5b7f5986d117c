package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"classboard/pkg/errors"
	"classboard/pkg/logger"
)

// RateLimiter hands out one token bucket per client address.
type RateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	visitors map[string]*visitor
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perSecond requests per client with the given burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		idleTTL:  10 * time.Minute,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// Allow reports whether the client identified by key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[key]
	if !ok {
		rl.evictIdle(now)
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) evictIdle(now time.Time) {
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.idleTTL {
			delete(rl.visitors, key)
		}
	}
}

// RateLimit throttles requests per authenticated user, or per remote address
// for anonymous callers.
func RateLimit(rl *RateLimiter, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if !rl.Allow(key) {
				logger.WithField("client", key).Warn("Rate limit exceeded")
				w.Header().Set("Retry-After", "1")
				writeErrorResponse(w, r, errors.NewRateLimitError("Too many submissions, slow down"), logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if identity := IdentityFrom(r.Context()); identity != nil {
		return "user:" + identity.UserID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
