package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/moz-herbarium/medplants/internal/apperr"
	"github.com/moz-herbarium/medplants/internal/catalog"
	"github.com/moz-herbarium/medplants/internal/models"
)

// CatalogHandler serves the public botanical catalog.
type CatalogHandler struct {
	svc *catalog.Service
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(svc *catalog.Service) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

type createFamilyRequest struct {
	Name string `json:"nome_familia"`
}

// ListFamilies handles GET /api/familias.
func (h *CatalogHandler) ListFamilies(c *gin.Context) {
	families, errList := h.svc.ListFamilies(c.Request.Context())
	if errList != nil {
		RespondError(c, errList)
		return
	}
	c.JSON(http.StatusOK, families)
}

// GetFamily handles GET /api/familias/:id.
func (h *CatalogHandler) GetFamily(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	family, errGet := h.svc.GetFamily(c.Request.Context(), id)
	if errGet != nil {
		RespondError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, family)
}

// CreateFamily handles POST /api/familias.
func (h *CatalogHandler) CreateFamily(c *gin.Context) {
	var body createFamilyRequest
	if !bindJSON(c, &body) {
		return
	}
	family, errCreate := h.svc.CreateFamily(c.Request.Context(), actorOf(c), body.Name)
	if errCreate != nil {
		RespondError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, family)
}

// ListPlants handles GET /api/plantas.
func (h *CatalogHandler) ListPlants(c *gin.Context) {
	query := catalog.PlantQuery{
		Page:    queryInt(c, "page"),
		PerPage: queryInt(c, "per_page"),
		Search:  c.Query("search"),
		Client: catalog.SearchClient{
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		},
	}
	if raw := strings.TrimSpace(c.Query("search_type")); raw != "" {
		kind, ok := models.ParseSearchKind(raw)
		if !ok {
			RespondError(c, apperr.Validation("invalid search_type"))
			return
		}
		query.Kind = kind
	}
	if familyID := queryInt(c, "familia_id"); familyID > 0 {
		query.FamilyID = uint64(familyID)
	}

	page, errList := h.svc.ListPlants(c.Request.Context(), query)
	if errList != nil {
		RespondError(c, errList)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetPlant handles GET /api/plantas/:id.
func (h *CatalogHandler) GetPlant(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	plant, errGet := h.svc.GetPlant(c.Request.Context(), id)
	if errGet != nil {
		RespondError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, plant)
}

// CreatePlant handles POST /api/plantas.
func (h *CatalogHandler) CreatePlant(c *gin.Context) {
	var body catalog.PlantInput
	if !bindJSON(c, &body) {
		return
	}
	plant, errCreate := h.svc.CreatePlant(c.Request.Context(), actorOf(c), body)
	if errCreate != nil {
		RespondError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, plant)
}

// UpdatePlant handles PUT /api/plantas/:id.
func (h *CatalogHandler) UpdatePlant(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var body catalog.PlantPatch
	if !bindJSON(c, &body) {
		return
	}
	plant, errUpdate := h.svc.UpdatePlant(c.Request.Context(), actorOf(c), id, body)
	if errUpdate != nil {
		RespondError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, plant)
}

// DeletePlant handles DELETE /api/plantas/:id.
func (h *CatalogHandler) DeletePlant(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if errDelete := h.svc.DeletePlant(c.Request.Context(), actorOf(c), id); errDelete != nil {
		RespondError(c, errDelete)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "plant deleted"})
}

// Associate returns a handler linking the plant in :id to the partner in :partner_id.
func (h *CatalogHandler) Associate(link catalog.Link) gin.HandlerFunc {
	return func(c *gin.Context) {
		plantID, ok := idParam(c, "id")
		if !ok {
			return
		}
		partnerID, ok := idParam(c, "partner_id")
		if !ok {
			return
		}
		if errLink := h.svc.Associate(c.Request.Context(), actorOf(c), link, plantID, partnerID); errLink != nil {
			RespondError(c, errLink)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": link.Message()})
	}
}

// AssociateAuthorReference handles POST /api/autores/:id/referencias/:partner_id.
func (h *CatalogHandler) AssociateAuthorReference(c *gin.Context) {
	authorID, ok := idParam(c, "id")
	if !ok {
		return
	}
	referenceID, ok := idParam(c, "partner_id")
	if !ok {
		return
	}
	var body catalog.AuthorReferenceInput
	if c.Request.ContentLength != 0 && !bindJSON(c, &body) {
		return
	}
	if errLink := h.svc.AssociateAuthorReference(c.Request.Context(), actorOf(c), authorID, referenceID, body); errLink != nil {
		RespondError(c, errLink)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "author associated with reference"})
}

// Stats handles GET /api/stats.
func (h *CatalogHandler) Stats(c *gin.Context) {
	stats, errStats := h.svc.Stats(c.Request.Context())
	if errStats != nil {
		RespondError(c, errStats)
		return
	}
	c.JSON(http.StatusOK, stats)
}
