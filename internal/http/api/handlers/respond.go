package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/moz-herbarium/medplants/internal/apperr"
	"github.com/moz-herbarium/medplants/internal/audit"
	"github.com/moz-herbarium/medplants/internal/auth"
	"github.com/moz-herbarium/medplants/internal/http/middleware"
	log "github.com/sirupsen/logrus"
)

// principalKey is the gin context key holding the authenticated principal.
const principalKey = "principal"

// RespondError writes err as {error, details?} with the status of its kind.
// Untagged and internal errors are logged and reported generically.
func RespondError(c *gin.Context, err error) {
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind == apperr.KindInternal {
		log.WithError(err).WithField("request_id", middleware.GetRequestID(c)).Error("request failed")
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	body := gin.H{"error": appErr.Message}
	if appErr.Details != nil {
		body["details"] = appErr.Details
	}
	c.AbortWithStatusJSON(appErr.Kind.Status(), body)
}

// SetPrincipal attaches the authenticated caller to c.
func SetPrincipal(c *gin.Context, principal auth.Principal) {
	c.Set(principalKey, principal)
}

// PrincipalFrom returns the authenticated caller, if any.
func PrincipalFrom(c *gin.Context) (auth.Principal, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return auth.Principal{}, false
	}
	principal, ok := value.(auth.Principal)
	return principal, ok
}

// clientOf describes where the request came from.
func clientOf(c *gin.Context) auth.Client {
	return auth.Client{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

// actorOf attributes a mutation to the caller, anonymous when unauthenticated.
func actorOf(c *gin.Context) audit.Actor {
	client := clientOf(c)
	if principal, ok := PrincipalFrom(c); ok {
		return principal.Actor(client)
	}
	return audit.Actor{OriginIP: client.IP, UserAgent: client.UserAgent}
}

// idParam parses a positive integer path parameter.
func idParam(c *gin.Context, name string) (uint64, bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if errParse != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter, returning 0 when absent or malformed.
func queryInt(c *gin.Context, name string) int {
	value, errParse := strconv.Atoi(strings.TrimSpace(c.Query(name)))
	if errParse != nil {
		return 0
	}
	return value
}

// bindJSON decodes the request body, answering 400 on malformed input.
func bindJSON(c *gin.Context, dst any) bool {
	if errBind := c.ShouldBindJSON(dst); errBind != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return false
	}
	return true
}
