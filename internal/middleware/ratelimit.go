package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	visitorIdleTTL    = 5 * time.Minute
	visitorSweepEvery = time.Minute
)

// RateLimiter hands each client IP its own token bucket. A nil *RateLimiter
// lets every request through.
type RateLimiter struct {
	every rate.Limit
	burst int

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
}

type visitor struct {
	bucket *rate.Limiter
	seen   time.Time
}

// NewRateLimiter budgets requestsPerMinute per client with a burst of a tenth
// of that. A non-positive budget disables limiting.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	return &RateLimiter{
		every:    rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:    max(requestsPerMinute/10, 1),
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// Handler returns the gin middleware.
func (r *RateLimiter) Handler() gin.HandlerFunc {
	if r == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if wait := r.reserve(c.ClientIP()); wait > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests"})
			return
		}
		c.Next()
	}
}

// reserve takes a token for key, or returns how long the client must wait.
func (r *RateLimiter) reserve(key string) time.Duration {
	now := r.now()
	bucket := r.bucketFor(key, now)

	res := bucket.ReserveN(now, 1)
	if wait := res.DelayFrom(now); wait > 0 {
		res.CancelAt(now)
		return wait
	}
	return 0
}

func (r *RateLimiter) bucketFor(key string, now time.Time) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if now.Sub(r.lastSweep) >= visitorSweepEvery {
		for k, v := range r.visitors {
			if now.Sub(v.seen) > visitorIdleTTL {
				delete(r.visitors, k)
			}
		}
		r.lastSweep = now
	}

	v, ok := r.visitors[key]
	if !ok {
		v = &visitor{bucket: rate.NewLimiter(r.every, r.burst)}
		r.visitors[key] = v
	}
	v.seen = now
	return v.bucket
}
