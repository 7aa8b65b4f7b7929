package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/clinrec-advisor/internal/domain"
)

// RateLimiter hands out a token bucket per client IP
type RateLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

// NewRateLimiter creates a limiter allowing rps requests per second per client
// with the given burst, remembering at most clients limiters. A non-positive
// rps disables limiting.
func NewRateLimiter(rps float64, burst, clients int) (*RateLimiter, error) {
	if burst <= 0 {
		burst = 1
	}
	limiter := &RateLimiter{
		limit: rate.Limit(rps),
		burst: burst,
	}
	if limiter.limit <= 0 {
		return limiter, nil
	}

	cache, err := lru.New[string, *rate.Limiter](clients)
	if err != nil {
		return nil, fmt.Errorf("failed to create client limiter cache: %w", err)
	}
	limiter.limiters = cache
	return limiter, nil
}

// Allow reports whether the client may issue one more request now
func (r *RateLimiter) Allow(client string) bool {
	if r.limit <= 0 {
		return true
	}
	return r.limiter(client).AllowN(time.Now(), 1)
}

func (r *RateLimiter) limiter(client string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters.Get(client); ok {
		return l
	}
	l := rate.NewLimiter(r.limit, r.burst)
	r.limiters.Add(client, l)
	return l
}

// RateLimit rejects requests over the per-client budget with 429
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":       domain.ErrRateLimit,
					"message":    "Too many requests",
					"request_id": c.GetString(CorrelationIDKey),
					"timestamp":  time.Now().UTC().Format(time.RFC3339),
				},
			})
			return
		}
		c.Next()
	}
}
