package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiterConfig struct {
	RequestsPerSecond int
	Burst             int
	CleanupInterval   time.Duration
	TTL               time.Duration
}

// visitors keeps one token bucket per client IP
type visitors struct {
	mu    sync.Mutex
	m     map[string]*visitor
	rps   int
	burst int
	// closed once cleanup returns
	done chan struct{}
}

func (v *visitors) get(ip string) *rate.Limiter {
	v.mu.Lock()
	defer v.mu.Unlock()

	vis, ok := v.m[ip]
	if !ok {
		limiter := rate.NewLimiter(rate.Limit(v.rps), v.burst)
		v.m[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	vis.lastSeen = time.Now()
	return vis.limiter
}

// cleanup drops idle visitors until ctx is done
func (v *visitors) cleanup(ctx context.Context, ttl, interval time.Duration) {
	defer close(v.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.evict(ttl)
		}
	}
}

func (v *visitors) evict(ttl time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for ip, vis := range v.m {
		if time.Since(vis.lastSeen) > ttl {
			delete(v.m, ip)
		}
	}
}

func (v *visitors) size() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.m)
}

// RateLimiterMiddleware limits requests per client IP. Idle visitors are
// cleaned up in the background until ctx is cancelled
func RateLimiterMiddleware(ctx context.Context, config RateLimiterConfig) gin.HandlerFunc {
	return rateLimiter(ctx, config).handle
}

func rateLimiter(ctx context.Context, config RateLimiterConfig) *visitors {
	if config.CleanupInterval == 0 {
		config.CleanupInterval = time.Minute
	}
	if config.TTL == 0 {
		config.TTL = 3 * time.Minute
	}
	if config.Burst == 0 {
		config.Burst = config.RequestsPerSecond * 2
	}

	v := &visitors{
		m:     make(map[string]*visitor),
		rps:   config.RequestsPerSecond,
		burst: config.Burst,
		done:  make(chan struct{}),
	}

	go v.cleanup(ctx, config.TTL, config.CleanupInterval)

	return v
}

func (v *visitors) handle(c *gin.Context) {
	if !v.get(c.ClientIP()).Allow() {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":     "Too many requests",
			"requestID": RequestID(c),
		})
		return
	}

	c.Next()
}
