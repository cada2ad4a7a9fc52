package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moz-herbarium/medplants/internal/audit"
	"github.com/moz-herbarium/medplants/internal/catalog"
)

// listed adapts a catalog listing to a GET handler.
func listed[T any](list func(context.Context) ([]T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, errList := list(c.Request.Context())
		if errList != nil {
			RespondError(c, errList)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

// createdFromField adapts a single-field catalog create to a POST handler.
// field names the JSON key carrying the value.
func createdFromField[T any](field string, create func(context.Context, audit.Actor, string) (T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body map[string]any
		if !bindJSON(c, &body) {
			return
		}
		value, _ := body[field].(string)
		row, errCreate := create(c.Request.Context(), actorOf(c), value)
		if errCreate != nil {
			RespondError(c, errCreate)
			return
		}
		c.JSON(http.StatusCreated, row)
	}
}

// ListAuthors handles GET /api/autores.
func (h *CatalogHandler) ListAuthors(c *gin.Context) { listed(h.svc.ListAuthors)(c) }

// CreateAuthor handles POST /api/autores.
func (h *CatalogHandler) CreateAuthor(c *gin.Context) {
	var body catalog.AuthorInput
	if !bindJSON(c, &body) {
		return
	}
	author, errCreate := h.svc.CreateAuthor(c.Request.Context(), actorOf(c), body)
	if errCreate != nil {
		RespondError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, author)
}

// ListProvinces handles GET /api/locais.
func (h *CatalogHandler) ListProvinces(c *gin.Context) { listed(h.svc.ListProvinces)(c) }

// CreateProvince handles POST /api/locais.
func (h *CatalogHandler) CreateProvince(c *gin.Context) {
	createdFromField("nome_provincia", h.svc.CreateProvince)(c)
}

// ListReferences handles GET /api/referencias.
func (h *CatalogHandler) ListReferences(c *gin.Context) { listed(h.svc.ListReferences)(c) }

// CreateReference handles POST /api/referencias.
func (h *CatalogHandler) CreateReference(c *gin.Context) {
	var body catalog.ReferenceInput
	if !bindJSON(c, &body) {
		return
	}
	reference, errCreate := h.svc.CreateReference(c.Request.Context(), actorOf(c), body)
	if errCreate != nil {
		RespondError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, reference)
}

// ListParts handles GET /api/partes.
func (h *CatalogHandler) ListParts(c *gin.Context) { listed(h.svc.ListParts)(c) }

// CreatePart handles POST /api/partes.
func (h *CatalogHandler) CreatePart(c *gin.Context) {
	createdFromField("nome_parte", h.svc.CreatePart)(c)
}

// ListCompounds handles GET /api/compostos.
func (h *CatalogHandler) ListCompounds(c *gin.Context) { listed(h.svc.ListCompounds)(c) }

// CreateCompound handles POST /api/compostos.
func (h *CatalogHandler) CreateCompound(c *gin.Context) {
	createdFromField("nome_composto", h.svc.CreateCompound)(c)
}

// ListProperties handles GET /api/propriedades.
func (h *CatalogHandler) ListProperties(c *gin.Context) { listed(h.svc.ListProperties)(c) }

// CreateProperty handles POST /api/propriedades.
func (h *CatalogHandler) CreateProperty(c *gin.Context) {
	createdFromField("descricao", h.svc.CreateProperty)(c)
}

// ListIndications handles GET /api/indicacoes.
func (h *CatalogHandler) ListIndications(c *gin.Context) { listed(h.svc.ListIndications)(c) }

// CreateIndication handles POST /api/indicacoes.
func (h *CatalogHandler) CreateIndication(c *gin.Context) {
	createdFromField("descricao", h.svc.CreateIndication)(c)
}

// ListExtractionMethods handles GET /api/metodos-extracao.
func (h *CatalogHandler) ListExtractionMethods(c *gin.Context) {
	listed(h.svc.ListExtractionMethods)(c)
}

// CreateExtractionMethod handles POST /api/metodos-extracao.
func (h *CatalogHandler) CreateExtractionMethod(c *gin.Context) {
	createdFromField("descricao", h.svc.CreateExtractionMethod)(c)
}

// ListPreparations handles GET /api/preparacoes.
func (h *CatalogHandler) ListPreparations(c *gin.Context) { listed(h.svc.ListPreparations)(c) }

// CreatePreparation handles POST /api/preparacoes.
func (h *CatalogHandler) CreatePreparation(c *gin.Context) {
	createdFromField("descricao", h.svc.CreatePreparation)(c)
}

// ListUses handles GET /api/usos.
func (h *CatalogHandler) ListUses(c *gin.Context) { listed(h.svc.ListUses)(c) }

// CreateUse handles POST /api/usos.
func (h *CatalogHandler) CreateUse(c *gin.Context) {
	var body catalog.UseInput
	if !bindJSON(c, &body) {
		return
	}
	use, errCreate := h.svc.CreateUse(c.Request.Context(), actorOf(c), body)
	if errCreate != nil {
		RespondError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, use)
}
