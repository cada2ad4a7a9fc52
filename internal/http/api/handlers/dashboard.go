package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/moz-herbarium/medplants/internal/apperr"
	"github.com/moz-herbarium/medplants/internal/dashboard"
	"github.com/moz-herbarium/medplants/internal/imagestore"
)

// maxUploadRequestBytes bounds the multipart request: one image plus the form fields.
const maxUploadRequestBytes = imagestore.MaxImageBytes + 1<<20

// ImageFiles opens stored image blobs for download.
type ImageFiles interface {
	Open(name string) (*os.File, error)
}

// DashboardHandler serves back-office aggregates, images and the audit trail.
type DashboardHandler struct {
	svc   *dashboard.Service
	files ImageFiles
}

// NewDashboardHandler constructs a DashboardHandler. files may be nil.
func NewDashboardHandler(svc *dashboard.Service, files ImageFiles) *DashboardHandler {
	return &DashboardHandler{svc: svc, files: files}
}

// Stats handles GET /api/dashboard/stats.
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, errStats := h.svc.Stats(c.Request.Context())
	if errStats != nil {
		RespondError(c, errStats)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RecentPlants handles GET /api/dashboard/recent-plants.
func (h *DashboardHandler) RecentPlants(c *gin.Context) {
	rows, errReport := h.svc.RecentPlants(c.Request.Context(), queryInt(c, "limit"))
	if errReport != nil {
		RespondError(c, errReport)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// TopFamilies handles GET /api/dashboard/top-families.
func (h *DashboardHandler) TopFamilies(c *gin.Context) {
	rows, errReport := h.svc.TopFamilies(c.Request.Context(), queryInt(c, "limit"))
	if errReport != nil {
		RespondError(c, errReport)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// TopSearches handles GET /api/dashboard/top-searches.
func (h *DashboardHandler) TopSearches(c *gin.Context) {
	rows, errReport := h.svc.TopSearches(c.Request.Context(), queryInt(c, "limit"))
	if errReport != nil {
		RespondError(c, errReport)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// ListAudit handles GET /api/dashboard/audit.
func (h *DashboardHandler) ListAudit(c *gin.Context) {
	page, errList := h.svc.ListAudit(c.Request.Context(), queryInt(c, "page"), queryInt(c, "per_page"), c.Query("action"))
	if errList != nil {
		RespondError(c, errList)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListImages handles GET /api/dashboard/plantas/:id/imagens.
func (h *DashboardHandler) ListImages(c *gin.Context) {
	plantID, ok := idParam(c, "id")
	if !ok {
		return
	}
	images, errList := h.svc.ListImages(c.Request.Context(), plantID)
	if errList != nil {
		RespondError(c, errList)
		return
	}
	c.JSON(http.StatusOK, images)
}

// UploadImage handles multipart POST /api/dashboard/plantas/:id/imagens
// with fields file, legenda and ordem.
func (h *DashboardHandler) UploadImage(c *gin.Context) {
	plantID, ok := idParam(c, "id")
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadRequestBytes)
	header, errForm := c.FormFile("file")
	if errForm != nil {
		var errTooLarge *http.MaxBytesError
		if errors.As(errForm, &errTooLarge) {
			RespondError(c, dashboard.ImageTooLarge())
			return
		}
		RespondError(c, apperr.Validation("image file is required"))
		return
	}
	order := 0
	if raw := strings.TrimSpace(c.PostForm("ordem")); raw != "" {
		parsed, errParse := strconv.Atoi(raw)
		if errParse != nil {
			RespondError(c, apperr.Validation("ordem must be an integer"))
			return
		}
		order = parsed
	}
	file, errOpen := header.Open()
	if errOpen != nil {
		RespondError(c, apperr.Internal("open upload failed", errOpen))
		return
	}
	defer func() { _ = file.Close() }()

	image, errAttach := h.svc.AttachImage(c.Request.Context(), actorOf(c), plantID, dashboard.ImageUpload{
		Filename: header.Filename,
		Size:     header.Size,
		Caption:  c.PostForm("legenda"),
		Order:    order,
		Body:     file,
	})
	if errAttach != nil {
		RespondError(c, errAttach)
		return
	}
	c.JSON(http.StatusCreated, image)
}

// DeleteImage handles DELETE /api/dashboard/imagens/:id.
func (h *DashboardHandler) DeleteImage(c *gin.Context) {
	imageID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if errDelete := h.svc.DeleteImage(c.Request.Context(), actorOf(c), imageID); errDelete != nil {
		RespondError(c, errDelete)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "image deleted"})
}

// ServeImage handles GET /uploads/:filename.
func (h *DashboardHandler) ServeImage(c *gin.Context) {
	if h.files == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "image not found"})
		return
	}
	name := c.Param("filename")
	file, errOpen := h.files.Open(name)
	if errors.Is(errOpen, imagestore.ErrInvalidName) || errors.Is(errOpen, fs.ErrNotExist) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "image not found"})
		return
	}
	if errOpen != nil {
		RespondError(c, apperr.Internal("open image failed", errOpen))
		return
	}
	defer func() { _ = file.Close() }()
	info, errStat := file.Stat()
	if errStat != nil {
		RespondError(c, apperr.Internal("stat image failed", errStat))
		return
	}
	http.ServeContent(c.Writer, c.Request, name, info.ModTime(), file)
}
