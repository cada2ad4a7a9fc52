// Package app assembles the HTTP server and the maintenance commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/moz-herbarium/medplants/internal/audit"
	"github.com/moz-herbarium/medplants/internal/auth"
	"github.com/moz-herbarium/medplants/internal/catalog"
	"github.com/moz-herbarium/medplants/internal/config"
	"github.com/moz-herbarium/medplants/internal/dashboard"
	"github.com/moz-herbarium/medplants/internal/db"
	"github.com/moz-herbarium/medplants/internal/http/api"
	"github.com/moz-herbarium/medplants/internal/http/middleware"
	"github.com/moz-herbarium/medplants/internal/imagestore"
	"github.com/moz-herbarium/medplants/internal/ratelimit"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// shutdownTimeout bounds graceful shutdown of the HTTP server.
const shutdownTimeout = 5 * time.Second

// openDatabase resolves the DSN, connects and migrates.
func openDatabase(configPath string) (*gorm.DB, string, error) {
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return nil, "", err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return nil, "", err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		_ = db.Close(conn)
		return nil, "", fmt.Errorf("migrate database: %w", errMigrate)
	}
	return conn, dsn, nil
}

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	conn, dsn, err := openDatabase(config.ResolveConfigPath(cfg.ConfigPath))
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(conn) }()
	log.WithFields(describeDSN(dsn).fields()).Info("database migrated")
	return nil
}

// CreateAdmin creates an administrator account unless the email is taken.
func CreateAdmin(ctx context.Context, cfg config.AppConfig, fullName, email, password string) (bool, error) {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	policy, err := config.LoadAuthPolicy(configPath)
	if err != nil {
		return false, err
	}
	conn, _, err := openDatabase(configPath)
	if err != nil {
		return false, err
	}
	defer func() { _ = db.Close(conn) }()
	return CreateAdminWithConn(ctx, conn, policy, fullName, email, password)
}

// CreateAdminWithConn creates an administrator on an open, migrated connection.
func CreateAdminWithConn(ctx context.Context, conn *gorm.DB, policy config.AuthPolicy, fullName, email, password string) (bool, error) {
	if conn == nil {
		return false, fmt.Errorf("open database: nil connection")
	}
	svc := auth.NewService(conn, audit.NewWriter(conn), config.JWTConfig{}, policy)
	return svc.EnsureAdministrator(ctx, fullName, email, password)
}

// RunServer serves the catalog, auth and dashboard APIs until ctx is done.
func RunServer(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	jwtCfg, err := config.LoadJWTConfig(configPath)
	if err != nil {
		return err
	}
	policy, err := config.LoadAuthPolicy(configPath)
	if err != nil {
		return err
	}
	serverCfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		return err
	}
	rateCfg, err := config.LoadRateLimitConfig(configPath)
	if err != nil {
		return err
	}

	conn, dsn, err := openDatabase(configPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(conn) }()
	log.WithFields(describeDSN(dsn).fields()).Info("database ready")

	if admin, ok := config.LoadBootstrapAdmin(); ok {
		created, errAdmin := CreateAdminWithConn(ctx, conn, policy, admin.FullName, admin.Email, admin.Password)
		if errAdmin != nil {
			return fmt.Errorf("bootstrap administrator: %w", errAdmin)
		}
		if created {
			log.WithField("email", admin.Email).Info("bootstrap administrator created")
		}
	}
	if hasAdmin, errCheck := HasAdministrator(conn); errCheck != nil {
		return errCheck
	} else if !hasAdmin {
		log.Warn("no active administrator; run the create-admin command or set ADMIN_EMAIL and ADMIN_PASSWORD")
	}

	images, err := imagestore.Open(serverCfg.UploadDir)
	if err != nil {
		return err
	}
	defer func() { _ = images.Close() }()

	limiter := ratelimit.NewManager(ratelimit.StaticSettings(rateCfg), nil, nil)
	defer func() { _ = limiter.Close() }()

	writer := audit.NewWriter(conn)
	deps := api.Deps{
		DB:                       conn,
		Auth:                     auth.NewService(conn, writer, jwtCfg, policy),
		Catalog:                  catalog.NewService(conn, writer).WithBlobs(images),
		Dashboard:                dashboard.NewService(conn, writer, images),
		Images:                   images,
		LoginLimiter:             limiter,
		GlobalRequests:           middleware.DefaultGlobalRequests,
		CatalogWritesRequireAuth: serverCfg.CatalogWritesRequireAuth,
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", serverCfg.Port),
		Handler:           NewEngine(serverCfg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
			log.Errorf("server shutdown error: %v", errShutdown)
		}
	}()

	log.WithFields(log.Fields{
		"addr":       srv.Addr,
		"config":     configPath,
		"upload_dir": images.Dir(),
	}).Info("starting medicinal plants api")
	if errListen := srv.ListenAndServe(); errListen != nil && !errors.Is(errListen, http.ErrServerClosed) {
		return errListen
	}
	return nil
}

// NewEngine builds the gin engine with the shared middleware stack and all routes.
func NewEngine(serverCfg config.ServerConfig, deps api.Deps) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.AccessLog())
	engine.Use(middleware.Metrics())
	engine.Use(corsMiddleware(serverCfg.CORSOrigins))
	engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/uploads", "/metrics"})))

	api.RegisterRoutes(engine, deps)
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return engine
}

// corsMiddleware allows the configured origins, or any origin when none are set.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID, "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	allowAll := len(origins) == 0
	for _, origin := range origins {
		if origin == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
