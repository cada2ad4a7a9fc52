// Package api wires the HTTP routes of the catalog, auth and dashboard services.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/moz-herbarium/medplants/internal/auth"
	"github.com/moz-herbarium/medplants/internal/catalog"
	"github.com/moz-herbarium/medplants/internal/dashboard"
	"github.com/moz-herbarium/medplants/internal/http/api/handlers"
	"github.com/moz-herbarium/medplants/internal/http/middleware"
	"github.com/moz-herbarium/medplants/internal/ratelimit"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Deps are the services behind the routes.
type Deps struct {
	DB        *gorm.DB
	Auth      *auth.Service
	Catalog   *catalog.Service
	Dashboard *dashboard.Service

	// Images serves stored blobs on /uploads; nil disables the route.
	Images handlers.ImageFiles

	// LoginLimiter throttles login per client IP; nil disables it.
	LoginLimiter *ratelimit.Manager

	// GlobalRequests is the per-IP request budget per minute on /api; 0 disables it.
	GlobalRequests int

	// CatalogWritesRequireAuth rejects anonymous catalog mutations.
	CatalogWritesRequireAuth bool
}

// RegisterRoutes registers every route, middleware and handler.
func RegisterRoutes(r *gin.Engine, deps Deps) {
	if r == nil || deps.DB == nil || deps.Auth == nil || deps.Catalog == nil || deps.Dashboard == nil {
		return
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := r.Group("/api")
	apiGroup.Use(middleware.RateLimit(deps.GlobalRequests, middleware.DefaultGlobalWindow))

	healthHandler := handlers.NewHealthHandler(deps.DB)
	apiGroup.GET("/health", healthHandler.Health)

	registerCatalogRoutes(apiGroup, deps)
	registerAuthRoutes(apiGroup, deps)
	registerDashboardRoutes(r, apiGroup, deps)
}

func registerCatalogRoutes(apiGroup *gin.RouterGroup, deps Deps) {
	catalogHandler := handlers.NewCatalogHandler(deps.Catalog)

	reads := apiGroup.Group("")
	reads.GET("/stats", catalogHandler.Stats)
	reads.GET("/familias", catalogHandler.ListFamilies)
	reads.GET("/familias/:id", catalogHandler.GetFamily)
	reads.GET("/plantas", catalogHandler.ListPlants)
	reads.GET("/plantas/:id", catalogHandler.GetPlant)
	reads.GET("/autores", catalogHandler.ListAuthors)
	reads.GET("/locais", catalogHandler.ListProvinces)
	reads.GET("/referencias", catalogHandler.ListReferences)
	reads.GET("/partes", catalogHandler.ListParts)
	reads.GET("/compostos", catalogHandler.ListCompounds)
	reads.GET("/propriedades", catalogHandler.ListProperties)
	reads.GET("/indicacoes", catalogHandler.ListIndications)
	reads.GET("/metodos-extracao", catalogHandler.ListExtractionMethods)
	reads.GET("/preparacoes", catalogHandler.ListPreparations)
	reads.GET("/usos", catalogHandler.ListUses)

	writes := apiGroup.Group("")
	if deps.CatalogWritesRequireAuth {
		writes.Use(requireAuth(deps.Auth))
	} else {
		writes.Use(optionalAuth(deps.Auth))
	}
	writes.POST("/familias", catalogHandler.CreateFamily)
	writes.POST("/plantas", catalogHandler.CreatePlant)
	writes.PUT("/plantas/:id", catalogHandler.UpdatePlant)
	writes.DELETE("/plantas/:id", catalogHandler.DeletePlant)
	writes.POST("/plantas/:id/autores/:partner_id", catalogHandler.Associate(catalog.PlantAuthorLink))
	writes.POST("/plantas/:id/locais/:partner_id", catalogHandler.Associate(catalog.PlantProvinceLink))
	writes.POST("/plantas/:id/referencias/:partner_id", catalogHandler.Associate(catalog.PlantReferenceLink))
	writes.POST("/plantas/:id/propriedades/:partner_id", catalogHandler.Associate(catalog.PlantPropertyLink))
	writes.POST("/plantas/:id/compostos/:partner_id", catalogHandler.Associate(catalog.PlantCompoundLink))
	writes.POST("/autores", catalogHandler.CreateAuthor)
	writes.POST("/autores/:id/referencias/:partner_id", catalogHandler.AssociateAuthorReference)
	writes.POST("/locais", catalogHandler.CreateProvince)
	writes.POST("/referencias", catalogHandler.CreateReference)
	writes.POST("/partes", catalogHandler.CreatePart)
	writes.POST("/compostos", catalogHandler.CreateCompound)
	writes.POST("/propriedades", catalogHandler.CreateProperty)
	writes.POST("/indicacoes", catalogHandler.CreateIndication)
	writes.POST("/metodos-extracao", catalogHandler.CreateExtractionMethod)
	writes.POST("/preparacoes", catalogHandler.CreatePreparation)
	writes.POST("/usos", catalogHandler.CreateUse)
}

func registerAuthRoutes(apiGroup *gin.RouterGroup, deps Deps) {
	authHandler := handlers.NewAuthHandler(deps.Auth)
	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/login", loginThrottle(deps.LoginLimiter), authHandler.Login)
	authGroup.POST("/logout", requireToken(deps.Auth), authHandler.Logout)
	authGroup.GET("/verify", requireAuth(deps.Auth), authHandler.Verify)

	userHandler := handlers.NewUserHandler(deps.Auth)
	authed := apiGroup.Group("")
	authed.Use(requireAuth(deps.Auth))
	authed.GET("/users", userHandler.List)
	authed.GET("/users/:id", userHandler.Get)
	authed.GET("/profiles", userHandler.ListProfiles)

	admin := authed.Group("")
	admin.Use(requireAdmin())
	admin.POST("/users", userHandler.Create)
	admin.PUT("/users/:id", userHandler.Update)
}

func registerDashboardRoutes(r *gin.Engine, apiGroup *gin.RouterGroup, deps Deps) {
	dashboardHandler := handlers.NewDashboardHandler(deps.Dashboard, deps.Images)
	if deps.Images != nil {
		r.GET("/uploads/:filename", dashboardHandler.ServeImage)
	}

	authed := apiGroup.Group("/dashboard")
	authed.Use(requireAuth(deps.Auth))
	authed.GET("/stats", dashboardHandler.Stats)
	authed.GET("/plantas/:id/imagens", dashboardHandler.ListImages)
	authed.POST("/plantas/:id/imagens", dashboardHandler.UploadImage)
	authed.DELETE("/imagens/:id", dashboardHandler.DeleteImage)

	admin := authed.Group("")
	admin.Use(requireAdmin())
	admin.GET("/recent-plants", dashboardHandler.RecentPlants)
	admin.GET("/top-families", dashboardHandler.TopFamilies)
	admin.GET("/top-searches", dashboardHandler.TopSearches)
	admin.GET("/audit", dashboardHandler.ListAudit)
}
