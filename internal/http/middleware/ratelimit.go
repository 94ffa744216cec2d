package middleware

import (
	"net/http"
	"sync"
	"time"
)

// chatLimiter throttles model-facing routes per client IP with a token
// bucket. Every chat or voice turn costs at least one LLM round trip,
// so the bucket is sized in turns, not raw requests.
type chatLimiter struct {
	mu      sync.Mutex
	clients map[string]*tokenBucket
	rate    float64 // turns refilled per second
	burst   int     // turns a client may send back to back
}

type tokenBucket struct {
	tokens float64
	last   time.Time
}

func newChatLimiter(rate float64, burst int) *chatLimiter {
	l := &chatLimiter{
		clients: make(map[string]*tokenBucket),
		rate:    rate,
		burst:   burst,
	}
	go l.evictIdle()
	return l
}

// allow spends one turn from the client's bucket if one is available.
func (l *chatLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.clients[ip]
	if !ok {
		b = &tokenBucket{tokens: float64(l.burst), last: now}
		l.clients[ip] = b
	}

	b.tokens += now.Sub(b.last).Seconds() * l.rate
	if b.tokens > float64(l.burst) {
		b.tokens = float64(l.burst)
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// evictIdle drops buckets of clients that stopped chatting, bounding
// the map for long-running processes.
func (l *chatLimiter) evictIdle() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		cutoff := time.Now().Add(-10 * time.Minute)
		for ip, b := range l.clients {
			if b.last.Before(cutoff) {
				delete(l.clients, ip)
			}
		}
		l.mu.Unlock()
	}
}

// RateLimit rejects requests above rate turns/sec (with the given
// burst) per client IP with 429 Too Many Requests.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	limiter := newChatLimiter(rate, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.RemoteAddr
			// Prefer X-Real-Ip set by chi's RealIP middleware.
			if xri := r.Header.Get("X-Real-Ip"); xri != "" {
				ip = xri
			}
			if !limiter.allow(ip) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
