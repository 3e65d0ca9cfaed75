package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/physical-edu/physical-backend/internal/cache"
	"github.com/physical-edu/physical-backend/internal/config"
	"github.com/physical-edu/physical-backend/internal/response"
	"github.com/rs/zerolog"
)

// LoginRateLimiter counts attempts per client IP in a fixed window kept in
// the cache. The first attempt opens the window; once more than max attempts
// fall inside it, requests get 429 until the window expires.
type LoginRateLimiter struct {
	store  cache.Store
	window time.Duration
	max    int
	log    zerolog.Logger
}

// NewLoginRateLimiter creates a LoginRateLimiter (e.g., 10 attempts per 15 minutes).
func NewLoginRateLimiter(store cache.Store, window time.Duration, max int, log zerolog.Logger) *LoginRateLimiter {
	return &LoginRateLimiter{
		store:  store,
		window: window,
		max:    max,
		log:    log.With().Str("component", "login_limiter").Logger(),
	}
}

// Middleware returns a Gin middleware that rate-limits requests by IP.
func (rl *LoginRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		n, err := rl.store.Incr(c.Request.Context(), config.CacheKey.LoginAttemptsKey(ip), rl.window)
		if err != nil {
			// Without a counter the attempt is let through.
			rl.log.Warn().Err(err).Str("client_ip", ip).Msg("Attempt counter unavailable")
			c.Next()
			return
		}

		remaining := rl.max - int(n)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if int(n) > rl.max {
			rl.log.Warn().Str("client_ip", ip).Int64("attempts", n).Msg("Login attempts exceeded")
			c.Header("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}
