package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const msgTooManyRequests = "Zu viele Anfragen. Bitte versuchen Sie es später erneut."

// RateLimiter keeps one token bucket per client IP. A bucket holds at most
// burst tokens and regains burst tokens per interval, continuously.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	burst    float64
	interval time.Duration
	now      func() time.Time
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter allows burst requests per interval and client.
func NewRateLimiter(burst int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets:  map[string]*bucket{},
		burst:    float64(burst),
		interval: interval,
		now:      time.Now,
	}
}

// Allow takes a token from ip's bucket.
// POST: false means the bucket was empty; nothing is taken then
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[ip]
	if !ok {
		b = &bucket{tokens: rl.burst, seen: now}
		rl.buckets[ip] = b
	}
	if elapsed := now.Sub(b.seen); elapsed > 0 {
		b.tokens = min(rl.burst, b.tokens+rl.burst*float64(elapsed)/float64(rl.interval))
		b.seen = now
	}
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// retryAfter is the wait until ip's bucket holds a whole token again.
func (rl *RateLimiter) retryAfter(ip string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[ip]
	if !ok || b.tokens >= 1 {
		return 0
	}
	return time.Duration((1 - b.tokens) / rl.burst * float64(rl.interval))
}

// Sweep forgets clients not seen for idle. The server runs it on a ticker.
func (rl *RateLimiter) Sweep(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-idle)
	for ip, b := range rl.buckets {
		if b.seen.Before(cutoff) {
			delete(rl.buckets, ip)
		}
	}
}

// RateLimit answers 429 with a Retry-After header once a client's bucket is empty.
func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			if limiter.Allow(ip) {
				next.ServeHTTP(w, r)
				return
			}
			wait := limiter.retryAfter(ip)
			slog.Warn("rate_limit_exceeded", "ip", ip, "path", r.URL.Path, "retry_after", wait)
			secs := max(1, int((wait+time.Second-1)/time.Second))
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			http.Error(w, msgTooManyRequests, http.StatusTooManyRequests)
		})
	}
}
