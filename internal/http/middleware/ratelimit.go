package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/httprate"
)

// Global throttle defaults applied per client IP.
const (
	DefaultGlobalRequests = 300
	DefaultGlobalWindow   = time.Minute
)

// RateLimit throttles requests per client IP with a sliding window counter.
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	if requests <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if window <= 0 {
		window = DefaultGlobalWindow
	}
	limiter := httprate.NewRateLimiter(requests, window, httprate.WithKeyFuncs(httprate.KeyByIP))
	return func(c *gin.Context) {
		key, errKey := httprate.KeyByIP(c.Request)
		if errKey != nil {
			c.Next()
			return
		}
		if limiter.OnLimit(c.Writer, c.Request, key) {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
