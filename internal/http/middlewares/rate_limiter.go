package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const evictAbove = 1024

// RateLimiter counts requests per (route, key) in fixed windows. A limit of
// zero or less disables it.
type RateLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	count int
	ends  time.Time
}

func NewRateLimiter(limit int, win time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  win,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// RateLimiterMiddleware limits by keyFn, falling back to the client IP.
// Each route gets its own budget.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}

		key := keyFn(c)
		if key == "" {
			key = clientIP(c)
		}

		remaining, reset, ok := rl.take(c.FullPath()+"|"+key)

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(reset.Seconds())))
			abortError(c, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again shortly.")
			return
		}

		c.Next()
	}
}

// take spends one request from key's window and reports what is left.
func (rl *RateLimiter) take(key string) (remaining int, reset time.Duration, ok bool) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, found := rl.windows[key]
	if !found || now.After(w.ends) {
		if len(rl.windows) >= evictAbove {
			rl.evictLocked(now)
		}
		w = &window{ends: now.Add(rl.window)}
		rl.windows[key] = w
	}

	reset = max(w.ends.Sub(now), 0)
	if w.count >= rl.limit {
		return 0, reset, false
	}

	w.count++
	return rl.limit - w.count, reset, true
}

func (rl *RateLimiter) evictLocked(now time.Time) {
	for k, w := range rl.windows {
		if now.After(w.ends) {
			delete(rl.windows, k)
		}
	}
}

// KeyByIP is for unauthenticated endpoints.
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// KeyByUserOrIP prefers the authenticated user id.
func KeyByUserOrIP(c *gin.Context) string {
	if id, ok := UserIDFromContext(c); ok && id != "" {
		return "user:" + id
	}
	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if host, _, err := net.SplitHostPort(ip); err == nil && host != "" {
		return host
	}
	return ip
}
