package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/pdfchat/internal/pkg/errcode"
	"github.com/xxxsen/pdfchat/internal/pkg/response"
)

type bucket struct {
	start time.Time
	count int
}

// rateLimiter counts requests per caller in fixed windows. Callers are keyed
// by session id when authenticated and by client ip otherwise.
type rateLimiter struct {
	mu            sync.Mutex
	window        time.Duration
	limit         int
	buckets       map[string]*bucket
	sweepInterval time.Duration
	lastSweep     time.Time
	now           func() time.Time
}

// RateLimit allows limit requests per window and route. limit <= 0 turns
// the middleware into a no-op.
func RateLimit(limit int, window time.Duration) gin.HandlerFunc {
	limiter := &rateLimiter{
		window:        window,
		limit:         limit,
		buckets:       make(map[string]*bucket),
		sweepInterval: window,
		now:           time.Now,
	}
	return limiter.handle
}

func (l *rateLimiter) key(c *gin.Context) string {
	caller := SessionID(c)
	if caller == "" {
		caller = "ip:" + c.ClientIP()
	}
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	return caller + "|" + path
}

func (l *rateLimiter) handle(c *gin.Context) {
	if l.limit <= 0 || l.window <= 0 {
		c.Next()
		return
	}
	key := l.key(c)
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) >= l.sweepInterval {
		l.cleanupExpiredLocked(now)
	}
	b, ok := l.buckets[key]
	if !ok || now.Sub(b.start) >= l.window {
		b = &bucket{start: now}
		l.buckets[key] = b
	}
	b.count++
	allowed := b.count <= l.limit
	l.mu.Unlock()

	if !allowed {
		logutil.GetLogger(c.Request.Context()).Warn("rate limit hit", zap.String("key", key), zap.Int("limit", l.limit))
		response.Abort(c, errcode.ErrTooMany, http.StatusText(http.StatusTooManyRequests))
		return
	}
	c.Next()
}

func (l *rateLimiter) cleanupExpiredLocked(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.start) >= l.window {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}
