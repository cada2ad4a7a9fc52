package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moz-herbarium/medplants/internal/apperr"
	"github.com/moz-herbarium/medplants/internal/auth"
	"github.com/moz-herbarium/medplants/internal/http/api/handlers"
	"github.com/moz-herbarium/medplants/internal/metrics"
	"github.com/moz-herbarium/medplants/internal/ratelimit"
	log "github.com/sirupsen/logrus"
)

// bearerToken extracts the token from the Authorization header.
func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

// requireAuth validates the bearer token and its session.
func requireAuth(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			handlers.RespondError(c, apperr.Authentication(auth.MsgTokenRequired))
			return
		}
		principal, errAuth := svc.Authenticate(c.Request.Context(), token)
		if errAuth != nil {
			handlers.RespondError(c, errAuth)
			return
		}
		handlers.SetPrincipal(c, principal)
		c.Next()
	}
}

// requireToken validates the bearer token signature only, so a revoked
// session can still log out again.
func requireToken(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			handlers.RespondError(c, apperr.Authentication(auth.MsgTokenRequired))
			return
		}
		principal, errParse := svc.ParseToken(token)
		if errParse != nil {
			handlers.RespondError(c, errParse)
			return
		}
		handlers.SetPrincipal(c, principal)
		c.Next()
	}
}

// optionalAuth attaches the caller when a valid token is present and
// otherwise continues anonymously.
func optionalAuth(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		principal, errAuth := svc.Authenticate(c.Request.Context(), token)
		if errAuth != nil {
			if apperr.KindOf(errAuth) == apperr.KindInternal {
				handlers.RespondError(c, errAuth)
				return
			}
			c.Next()
			return
		}
		handlers.SetPrincipal(c, principal)
		c.Next()
	}
}

// requireAdmin must run after requireAuth.
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := handlers.PrincipalFrom(c)
		if !ok {
			handlers.RespondError(c, apperr.Authentication(auth.MsgTokenRequired))
			return
		}
		if !principal.IsAdmin() {
			handlers.RespondError(c, apperr.Authorization("administrator profile required"))
			return
		}
		c.Next()
	}
}

// loginThrottle rejects login bursts per client IP before credentials are checked.
func loginThrottle(limiter *ratelimit.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		result, errAllow := limiter.Allow(c.Request.Context(), ratelimit.LoginKey(c.ClientIP()))
		if errAllow != nil {
			log.WithError(errAllow).Warn("login throttle check failed")
			c.Next()
			return
		}
		if !result.Allowed {
			metrics.LoginThrottled.Inc()
			if !result.Reset.IsZero() {
				if retryAfter := int(time.Until(result.Reset).Seconds()) + 1; retryAfter > 0 {
					c.Header("Retry-After", strconv.Itoa(retryAfter))
				}
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
			return
		}
		c.Next()
	}
}
