package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/linemark/internal/utils"
)

// RateLimitConfig sizes the per-client token buckets.
type RateLimitConfig struct {
	Burst      int
	PerMinute  int
	MaxClients int           // buckets kept before idle ones are swept
	IdleTTL    time.Duration // a bucket untouched this long is dropped
	TrustProxy bool
}

type tokenBucket struct {
	tokens   float64
	refilled time.Time
}

type limiter struct {
	mu        sync.Mutex
	clients   map[string]*tokenBucket
	rate      float64 // tokens per second
	capacity  float64
	maxIdle   time.Duration
	max       int
	lastSweep time.Time
	now       func() time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.PerMinute < 1 {
		cfg.PerMinute = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	return &limiter{
		clients:   make(map[string]*tokenBucket),
		rate:      float64(cfg.PerMinute) / 60,
		capacity:  float64(cfg.Burst),
		maxIdle:   cfg.IdleTTL,
		max:       cfg.MaxClients,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// take spends one token of client. A positive wait means the request is
// denied and names when a token will be available.
func (l *limiter) take(client string) (remaining int, wait time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.maxIdle || (l.max > 0 && len(l.clients) >= l.max) {
		for k, b := range l.clients {
			if now.Sub(b.refilled) >= l.maxIdle {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.clients[client]
	if !ok {
		b = &tokenBucket{tokens: l.capacity, refilled: now}
		l.clients[client] = b
	}
	b.tokens = math.Min(l.capacity, b.tokens+now.Sub(b.refilled).Seconds()*l.rate)
	b.refilled = now

	if b.tokens < 1 {
		return 0, time.Duration((1 - b.tokens) / l.rate * float64(time.Second))
	}
	b.tokens--
	return int(b.tokens), 0
}

// RateLimit throttles each client address with a token bucket and answers
// 429 with Retry-After once the bucket is empty.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	l := newLimiter(cfg)
	limit := strconv.Itoa(int(l.capacity))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, wait := l.take(utils.ClientIP(r, cfg.TrustProxy))
			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if wait > 0 {
				retry := int(math.Ceil(wait.Seconds()))
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
