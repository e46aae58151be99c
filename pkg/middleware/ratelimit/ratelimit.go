package ratelimit

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	appErrors "github.com/noah-isme/tasktrack-api/pkg/errors"
	"github.com/noah-isme/tasktrack-api/pkg/response"
)

const idleTTL = 10 * time.Minute

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// Limiter is a token bucket per client key.
type Limiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	every     rate.Limit
	burst     int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// New allows limit events per window for each key. A non-positive limit disables limiting.
func New(limit int, window time.Duration) *Limiter {
	l := &Limiter{
		buckets: make(map[string]*bucket),
		burst:   limit,
		window:  window,
		now:     time.Now,
	}
	if limit > 0 && window > 0 {
		l.every = rate.Every(window / time.Duration(limit))
	}
	return l
}

// Allow consumes one token for key.
func (l *Limiter) Allow(key string) bool {
	if l == nil || l.burst <= 0 || l.every == 0 {
		return true
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > idleTTL {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > idleTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// Middleware rejects requests over budget with 429, keyed by client IP.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if key == "" {
			key = "unknown"
		}
		if !l.Allow(key) {
			retry := int(math.Ceil(l.window.Seconds() / float64(l.burst)))
			c.Header("Retry-After", strconv.Itoa(retry))
			response.Abort(c, appErrors.Clone(appErrors.ErrTooManyRequests, "too many login attempts, try again later"))
			return
		}
		c.Next()
	}
}
