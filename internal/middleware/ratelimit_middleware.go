package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/launchlens/launchlens_api/internal/utils"
)

// AnalysisRateLimiter throttles the expensive generative-model endpoints
// per client IP.
type AnalysisRateLimiter struct {
	mu       sync.Mutex
	attempts map[string]*attemptInfo
	limit    int
	window   time.Duration
}

type attemptInfo struct {
	count   int
	firstAt time.Time
}

// NewAnalysisRateLimiter allows limit requests per window per IP.
func NewAnalysisRateLimiter(limit int, window time.Duration) *AnalysisRateLimiter {
	rl := &AnalysisRateLimiter{
		attempts: make(map[string]*attemptInfo),
		limit:    limit,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

// Handle rejects requests over the limit with 429.
func (r *AnalysisRateLimiter) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.allow(c.ClientIP()) {
			utils.Error(c, 429, "RATE_LIMITED", "Too many analysis requests, slow down")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (r *AnalysisRateLimiter) allow(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	info, exists := r.attempts[ip]
	if !exists || now.Sub(info.firstAt) > r.window {
		r.attempts[ip] = &attemptInfo{count: 1, firstAt: now}
		return true
	}
	if info.count >= r.limit {
		return false
	}
	info.count++
	return true
}

func (r *AnalysisRateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	for range ticker.C {
		r.mu.Lock()
		now := time.Now()
		for ip, info := range r.attempts {
			if now.Sub(info.firstAt) > r.window {
				delete(r.attempts, ip)
			}
		}
		r.mu.Unlock()
	}
}
