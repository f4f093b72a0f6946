package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Each IP gets its own limiter plus a lastSeen timestamp for cleanup.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps a map<ip, limiter> with a background janitor evicting
// idle entries.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor

	reqPerMin int
	burst     int
	ttl       time.Duration
}

func NewIPRateLimiter(reqPerMin, burst int, ttl time.Duration) *IPRateLimiter {
	rl := &IPRateLimiter{
		visitors:  make(map[string]*visitor),
		reqPerMin: reqPerMin,
		burst:     burst,
		ttl:       ttl,
	}
	go rl.cleanupVisitors()
	return rl
}

func (rl *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if v, ok := rl.visitors[ip]; ok {
		v.lastSeen = time.Now()
		return v.limiter
	}

	rps := float64(rl.reqPerMin) / 60.0
	limiter := rate.NewLimiter(rate.Limit(rps), rl.burst)
	rl.visitors[ip] = &visitor{limiter: limiter, lastSeen: time.Now()}
	return limiter
}

func (rl *IPRateLimiter) cleanupVisitors() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastSeen) > rl.ttl {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

func RateLimitByIP(rl *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		// ClientIP honors X-Forwarded-For only with configured TrustedProxies.
		limiter := rl.getLimiter(c.ClientIP())
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "Too Many Requests",
				"hint":    "Please try again in a few minutes.",
			})
			return
		}
		c.Next()
	}
}

// 10 submissions per minute per IP, burst 5, idle limiters kept 5 minutes.
var publicSubmitLimiter = NewIPRateLimiter(10, 5, 5*time.Minute)

// RateLimitPublicSubmit throttles POST /api/public/forms/:slug/submissions.
func RateLimitPublicSubmit() gin.HandlerFunc {
	return RateLimitByIP(publicSubmitLimiter)
}

// 20 login attempts per minute per IP.
var loginLimiter = NewIPRateLimiter(20, 5, 5*time.Minute)

// RateLimitLogin throttles the credential endpoints.
func RateLimitLogin() gin.HandlerFunc {
	return RateLimitByIP(loginLimiter)
}
