package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moz-herbarium/medplants/internal/apperr"
	"github.com/moz-herbarium/medplants/internal/auth"
)

// AuthHandler serves login, logout and token verification.
type AuthHandler struct {
	svc *auth.Service
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type logoutRequest struct {
	SessionID string `json:"session_id"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if !bindJSON(c, &body) {
		return
	}
	result, errLogin := h.svc.Login(c.Request.Context(), body.Email, body.Password, clientOf(c))
	if errLogin != nil {
		RespondError(c, errLogin)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Logout handles POST /api/auth/logout. Repeated calls succeed.
func (h *AuthHandler) Logout(c *gin.Context) {
	principal, ok := PrincipalFrom(c)
	if !ok {
		RespondError(c, apperr.Authentication(auth.MsgTokenRequired))
		return
	}
	var body logoutRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &body) {
		return
	}
	if errLogout := h.svc.Logout(c.Request.Context(), principal, body.SessionID, clientOf(c)); errLogout != nil {
		RespondError(c, errLogout)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Verify handles GET /api/auth/verify.
func (h *AuthHandler) Verify(c *gin.Context) {
	principal, ok := PrincipalFrom(c)
	if !ok {
		RespondError(c, apperr.Authentication(auth.MsgTokenRequired))
		return
	}
	user, errVerify := h.svc.Verify(c.Request.Context(), principal)
	if errVerify != nil {
		RespondError(c, errVerify)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "user": user})
}
