package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cargo-tracker/internal/config"
	"cargo-tracker/internal/logger"
	"cargo-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, GetOperator(c))
	})
	r.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/gps-ws", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.POST("/api/gps/location", func(c *gin.Context) {
		var body struct {
			DeviceID string `json:"deviceId"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.String(http.StatusOK, body.DeviceID)
	})
	return r
}

func serve(r *gin.Engine, header map[string]string) *httptest.ResponseRecorder {
	return serveRequest(r, httptest.NewRequest(http.MethodGet, "/", nil), header)
}

func serveRequest(r *gin.Engine, req *http.Request, header map[string]string) *httptest.ResponseRecorder {
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postLocation(r *gin.Engine, deviceID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/gps/location", strings.NewReader(`{"deviceId":"`+deviceID+`","latitude":1}`))
	req.Header.Set("Content-Type", "application/json")
	return serveRequest(r, req, nil)
}

var upgradeHeader = map[string]string{"Connection": "Upgrade", "Upgrade": "websocket"}

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := logger.Logger
	logger.Logger = zap.New(core)
	t.Cleanup(func() { logger.Logger = prev })
	return logs
}

func TestRequestIDMiddleware(t *testing.T) {
	r := newRouter(RequestIDMiddleware())

	w := serve(r, nil)
	if w.Header().Get(RequestIDHeader) == "" || w.Body.String() != w.Header().Get(RequestIDHeader) {
		t.Errorf("generated id header = %q body = %q", w.Header().Get(RequestIDHeader), w.Body.String())
	}

	w = serve(r, map[string]string{RequestIDHeader: "abc"})
	if w.Header().Get(RequestIDHeader) != "abc" {
		t.Errorf("propagated id = %q, want abc", w.Header().Get(RequestIDHeader))
	}

	for _, bad := range []string{strings.Repeat("x", 65), "two words", "tab\tid"} {
		w = serve(r, map[string]string{RequestIDHeader: bad})
		if got := w.Header().Get(RequestIDHeader); got == bad || got == "" {
			t.Errorf("id %q was propagated as %q, want a fresh one", bad, got)
		}
	}
}

func TestAuthAndRoleMiddleware(t *testing.T) {
	r := newRouter(AuthMiddleware("s3cret"), OperatorOnly())

	token := func(role, secret string) string {
		tok, err := utils.GenerateToken("op-7", "op7@example.com", role, secret, time.Hour)
		if err != nil {
			t.Fatalf("GenerateToken() error = %v", err)
		}
		return "Bearer " + tok
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"wrong secret", token("admin", "other"), http.StatusUnauthorized},
		{"customer role", token("customer", "s3cret"), http.StatusForbidden},
		{"operator role", token("operator", "s3cret"), http.StatusOK},
		{"admin role", token("admin", "s3cret"), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := map[string]string{}
			if tt.header != "" {
				header["Authorization"] = tt.header
			}
			if w := serve(r, header); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestAuthMiddleware_SetsOperatorSubject(t *testing.T) {
	r := newRouter(AuthMiddleware("s3cret"))

	tok, err := utils.GenerateToken("op-7", "op7@example.com", "operator", "s3cret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	w := serveRequest(r, httptest.NewRequest(http.MethodGet, "/whoami", nil), map[string]string{"Authorization": "Bearer " + tok})
	if w.Code != http.StatusOK || w.Body.String() != "op-7" {
		t.Errorf("whoami = %d %q, want op-7", w.Code, w.Body.String())
	}
}

func TestRateLimitMiddleware_PerClientIP(t *testing.T) {
	r := newRouter(RateLimitMiddleware(config.RateLimitConfig{GeneralRPS: 0.001, GeneralBurst: 2}))

	for i := 0; i < 2; i++ {
		if w := serve(r, nil); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, w.Code)
		}
	}
	if w := serve(r, nil); w.Code != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", w.Code)
	}
}

func TestRateLimitMiddleware_IngestKeyedByDevice(t *testing.T) {
	r := newRouter(RateLimitMiddleware(config.RateLimitConfig{
		GeneralRPS: 0.001, GeneralBurst: 1,
		DeviceRPS: 0.001, DeviceBurst: 2,
	}, "/api/gps/location"))

	// Every request comes from the same address, as behind a carrier NAT.
	for _, id := range []string{"gps-1", "gps-2", "gps-3"} {
		for i := 0; i < 2; i++ {
			w := postLocation(r, id)
			if w.Code != http.StatusOK || w.Body.String() != id {
				t.Fatalf("%s request %d = %d %q, want 200 with body intact", id, i, w.Code, w.Body.String())
			}
		}
	}

	if w := postLocation(r, "gps-1"); w.Code != http.StatusTooManyRequests {
		t.Errorf("gps-1 over its burst status = %d, want 429", w.Code)
	}
	if w := postLocation(r, "gps-4"); w.Code != http.StatusOK {
		t.Errorf("fresh device status = %d, want 200", w.Code)
	}
}

func TestRateLimitMiddleware_SkipsWebSocketUpgrade(t *testing.T) {
	r := newRouter(RateLimitMiddleware(config.RateLimitConfig{GeneralRPS: 0.001, GeneralBurst: 1}))

	for i := 0; i < 5; i++ {
		w := serveRequest(r, httptest.NewRequest(http.MethodGet, "/gps-ws", nil), upgradeHeader)
		if w.Code != http.StatusOK {
			t.Fatalf("upgrade %d status = %d, want 200", i, w.Code)
		}
	}
}

func TestLoggingMiddleware(t *testing.T) {
	logs := observeLogs(t)
	r := newRouter(RequestIDMiddleware(), LoggingMiddleware())

	serveRequest(r, httptest.NewRequest(http.MethodGet, "/gps-ws", nil), upgradeHeader)
	entries := logs.TakeAll()
	if len(entries) != 1 || entries[0].Message != "Device channel upgrade" {
		t.Fatalf("upgrade entries = %+v, want a single upgrade line", entries)
	}

	serveRequest(r, httptest.NewRequest(http.MethodGet, "/health", nil), nil)
	entries = logs.TakeAll()
	if len(entries) != 1 || entries[0].Level != zapcore.DebugLevel {
		t.Errorf("health entries = %+v, want one debug line", entries)
	}

	serve(r, nil)
	entries = logs.TakeAll()
	if len(entries) != 1 || entries[0].Level != zapcore.InfoLevel || entries[0].ContextMap()["request_id"] == "" {
		t.Errorf("request entries = %+v, want one info line with request_id", entries)
	}
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	r := newRouter(RequestSizeLimitMiddleware(32))

	req := httptest.NewRequest(http.MethodPost, "/api/gps/location", strings.NewReader(`{"deviceId":"`+strings.Repeat("x", 64)+`"}`))
	if w := serveRequest(r, req, nil); w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body status = %d, want 413", w.Code)
	}

	if w := postLocation(newRouter(RequestSizeLimitMiddleware(0)), "gps-1"); w.Code != http.StatusOK {
		t.Errorf("default limit status = %d, want 200", w.Code)
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	w := serve(newRouter(SecurityHeadersMiddleware()), nil)

	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Cache-Control":           "no-store",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
	}
	for k, v := range want {
		if got := w.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestCORSMiddleware(t *testing.T) {
	r := newRouter(CORSMiddleware(&config.CORSConfig{
		AllowedOrigins: []string{"https://dispatch.example.com"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         600,
	}))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	w := serveRequest(r, req, map[string]string{
		"Origin":                         "https://dispatch.example.com",
		"Access-Control-Request-Method":  "POST",
		"Access-Control-Request-Headers": RequestIDHeader,
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Errorf("Max-Age = %q, want 600 seconds", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(strings.ToLower(got), strings.ToLower(RequestIDHeader)) {
		t.Errorf("Allow-Headers = %q, want %s", got, RequestIDHeader)
	}

	w = serve(r, map[string]string{"Origin": "https://dispatch.example.com"})
	if got := w.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(strings.ToLower(got), strings.ToLower(RequestIDHeader)) {
		t.Errorf("Expose-Headers = %q, want %s", got, RequestIDHeader)
	}
}
