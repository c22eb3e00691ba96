package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/fpd-risk-server/internal/domain"
)

// clientLimiter keeps a token-bucket limiter per client IP. Entries idle
// past the eviction window are dropped to bound the map.
type clientLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientEntry
	rps      rate.Limit
	burst    int
	lastSwep time.Time
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const limiterEvictionWindow = 10 * time.Minute

func newClientLimiter(requestsPerSecond float64, burst int) *clientLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return &clientLimiter{
		clients:  make(map[string]*clientEntry),
		rps:      rate.Limit(requestsPerSecond),
		burst:    burst,
		lastSwep: time.Now(),
	}
}

// Allow reports whether the client identified by key may proceed.
func (l *clientLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastSwep) > limiterEvictionWindow {
		for k, e := range l.clients {
			if now.Sub(e.lastSeen) > limiterEvictionWindow {
				delete(l.clients, k)
			}
		}
		l.lastSwep = now
	}

	entry, ok := l.clients[key]
	if !ok {
		entry = &clientEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[key] = entry
	}
	entry.lastSeen = now

	return entry.limiter.Allow()
}

// rateLimitMiddleware rejects clients that exceed the per-IP request rate.
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, domain.NewAPIError(
				domain.ErrRateLimit, "too many requests", "", requestID(c)))
			return
		}
		c.Next()
	}
}
