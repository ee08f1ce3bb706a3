package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ClientLimiter throttles submissions per client with a token bucket keyed by
// the X-Client-ID header. Buckets refill continuously at one token per
// interval and hold at most burst tokens, so short spikes up to burst pass
// while the sustained rate stays bounded.
type ClientLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	interval time.Duration
	burst    float64
}

type bucket struct {
	tokens float64
	last   time.Time
}

func NewClientLimiter(interval time.Duration, burst int) *ClientLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ClientLimiter{
		buckets:  make(map[string]*bucket),
		interval: interval,
		burst:    float64(burst),
	}
}

func (l *ClientLimiter) allow(clientID string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[clientID]
	if !ok {
		l.buckets[clientID] = &bucket{tokens: l.burst - 1, last: now}
		return true
	}
	b.tokens += float64(now.Sub(b.last)) / float64(l.interval)
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	b.last = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (l *ClientLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetHeader("X-Client-ID")
		if clientID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "X-Client-ID header required"})
			c.Abort()
			return
		}
		if !l.allow(clientID, time.Now()) {
			c.Header("Retry-After", l.interval.String())
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": l.interval.String(),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
