package app

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moz-herbarium/medplants/internal/audit"
	"github.com/moz-herbarium/medplants/internal/auth"
	"github.com/moz-herbarium/medplants/internal/catalog"
	"github.com/moz-herbarium/medplants/internal/config"
	"github.com/moz-herbarium/medplants/internal/dashboard"
	"github.com/moz-herbarium/medplants/internal/db"
	"github.com/moz-herbarium/medplants/internal/http/api"
	"github.com/moz-herbarium/medplants/internal/http/middleware"
)

func newTestEngine(t *testing.T, origins []string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	conn, err := db.Open("file:" + filepath.Join(t.TempDir(), "medplants-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(conn) })
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	writer := audit.NewWriter(conn)
	jwtCfg := config.JWTConfig{Secret: "engine-test", Expiry: time.Hour}
	return NewEngine(config.ServerConfig{CORSOrigins: origins}, api.Deps{
		DB:        conn,
		Auth:      auth.NewService(conn, writer, jwtCfg, config.DefaultAuthPolicy()),
		Catalog:   catalog.NewService(conn, writer),
		Dashboard: dashboard.NewService(conn, writer, nil),
	})
}

func TestNewEngine_HealthCarriesRequestID(t *testing.T) {
	engine := newTestEngine(t, nil)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(middleware.HeaderRequestID) == "" {
		t.Fatalf("expected request id header")
	}
}

func TestNewEngine_UnknownRouteIsJSON404(t *testing.T) {
	engine := newTestEngine(t, nil)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec.Body.String() != `{"error":"not found"}` {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestNewEngine_CORSAllowList(t *testing.T) {
	engine := newTestEngine(t, []string{"https://herbario.example"})

	req := httptest.NewRequest(http.MethodOptions, "/api/familias", nil)
	req.Header.Set("Origin", "https://herbario.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://herbario.example" {
		t.Fatalf("expected allowed origin echoed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/familias", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected foreign origin to be rejected, got %d", rec.Code)
	}
}
