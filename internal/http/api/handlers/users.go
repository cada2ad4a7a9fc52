package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moz-herbarium/medplants/internal/apperr"
	"github.com/moz-herbarium/medplants/internal/auth"
)

// UserHandler serves user and profile management.
type UserHandler struct {
	svc *auth.Service
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(svc *auth.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// List handles GET /api/users.
func (h *UserHandler) List(c *gin.Context) {
	page, errList := h.svc.ListUsers(c.Request.Context(), queryInt(c, "page"), queryInt(c, "per_page"), c.Query("search"))
	if errList != nil {
		RespondError(c, errList)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Get handles GET /api/users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	user, errGet := h.svc.GetUser(c.Request.Context(), id)
	if errGet != nil {
		RespondError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Create handles POST /api/users.
func (h *UserHandler) Create(c *gin.Context) {
	caller, ok := PrincipalFrom(c)
	if !ok {
		RespondError(c, apperr.Authentication(auth.MsgTokenRequired))
		return
	}
	var body auth.CreateUserInput
	if !bindJSON(c, &body) {
		return
	}
	user, errCreate := h.svc.CreateUser(c.Request.Context(), caller, body, clientOf(c))
	if errCreate != nil {
		RespondError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Update handles PUT /api/users/:id.
func (h *UserHandler) Update(c *gin.Context) {
	caller, ok := PrincipalFrom(c)
	if !ok {
		RespondError(c, apperr.Authentication(auth.MsgTokenRequired))
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var body auth.UpdateUserInput
	if !bindJSON(c, &body) {
		return
	}
	user, errUpdate := h.svc.UpdateUser(c.Request.Context(), caller, id, body, clientOf(c))
	if errUpdate != nil {
		RespondError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListProfiles handles GET /api/profiles.
func (h *UserHandler) ListProfiles(c *gin.Context) {
	profiles, errList := h.svc.ListProfiles(c.Request.Context())
	if errList != nil {
		RespondError(c, errList)
		return
	}
	c.JSON(http.StatusOK, profiles)
}
