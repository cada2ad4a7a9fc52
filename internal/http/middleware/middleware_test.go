package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(handlers...)
	engine.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})
	return engine
}

func TestRequestID_ReusesInboundHeader(t *testing.T) {
	engine := newEngine(RequestID())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Header().Get(HeaderRequestID) != "abc-123" {
		t.Fatalf("expected inbound id echoed, got %q", rec.Header().Get(HeaderRequestID))
	}
	if rec.Body.String() != "abc-123" {
		t.Fatalf("expected id in context, got %q", rec.Body.String())
	}
}

func TestRequestID_ReplacesOversizedHeader(t *testing.T) {
	engine := newEngine(RequestID())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, strings.Repeat("x", maxRequestIDLength+1))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	got := rec.Header().Get(HeaderRequestID)
	if got == "" || len(got) > maxRequestIDLength {
		t.Fatalf("expected fresh id, got %q", got)
	}
}

func TestRateLimit_RejectsAfterBudget(t *testing.T) {
	engine := newEngine(RateLimit(2, time.Minute))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected Retry-After=60, got %q", rec.Header().Get("Retry-After"))
	}
}

func TestRateLimit_DisabledWhenZero(t *testing.T) {
	engine := newEngine(RateLimit(0, time.Minute))
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}
}

func TestAccessLog_LogsRejectedRequests(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	engine := newEngine(RequestID(), AccessLog(), Metrics())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatalf("expected an access log entry")
	}
	if entry.Level != log.InfoLevel {
		t.Fatalf("expected info level for 4xx, got %s", entry.Level)
	}
	if entry.Data["status"] != http.StatusNotFound || entry.Data["path"] != "/missing" {
		t.Fatalf("unexpected fields %v", entry.Data)
	}
	if entry.Data["request_id"] == "" {
		t.Fatalf("expected request id field")
	}
}
