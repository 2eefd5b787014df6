package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/pazar_api/internal/utils"
)

// AuthRateLimiter throttles login and register attempts per client IP.
type AuthRateLimiter struct {
	mu       sync.Mutex
	attempts map[string]*attemptInfo
	limit    int
	window   time.Duration
	now      func() time.Time
}

type attemptInfo struct {
	count   int
	firstAt time.Time
}

// NewAuthRateLimiter allows limit attempts per window. The cleanup loop
// stops when done is closed.
func NewAuthRateLimiter(done <-chan struct{}, limit int, window time.Duration) *AuthRateLimiter {
	rl := &AuthRateLimiter{
		attempts: make(map[string]*attemptInfo),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
	go rl.cleanup(done)
	return rl
}

// Allow records an attempt for ip. When the window is exhausted it returns
// false and the time until it resets.
func (r *AuthRateLimiter) Allow(ip string) (bool, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	info, exists := r.attempts[ip]
	if !exists || now.Sub(info.firstAt) > r.window {
		r.attempts[ip] = &attemptInfo{count: 1, firstAt: now}
		return true, 0
	}

	if info.count >= r.limit {
		return false, info.firstAt.Add(r.window).Sub(now)
	}
	info.count++
	return true, 0
}

// Handle rejects over-limit requests with 429 and retryAfter in seconds.
func (r *AuthRateLimiter) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := r.Allow(c.ClientIP())
		if !ok {
			retryAfter := int(math.Ceil(wait.Seconds()))
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			utils.ErrorWithData(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS",
				"Too many attempts, try again later", gin.H{"retryAfter": retryAfter})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (r *AuthRateLimiter) cleanup(done <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			r.mu.Lock()
			now := r.now()
			for ip, info := range r.attempts {
				if now.Sub(info.firstAt) > r.window {
					delete(r.attempts, ip)
				}
			}
			r.mu.Unlock()
		}
	}
}
