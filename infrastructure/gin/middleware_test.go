package gin_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	ginpkg "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infragin "github.com/Activ8Auto/ProAutoFill/infrastructure/gin"
	"github.com/Activ8Auto/ProAutoFill/infrastructure/logger"
)

func init() {
	ginpkg.SetMode(ginpkg.TestMode)
}

func TestRequestIDLoggerMiddleware_GeneratesID(t *testing.T) {
	t.Parallel()

	w := serve(t, newTestRouter(t), httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	const expectedLen = 32
	assert.Len(t, w.Header().Get(infragin.RequestIDHeader), expectedLen)
}

func TestRequestIDLoggerMiddleware_PreservesInboundID(t *testing.T) {
	t.Parallel()

	const inboundID = "dashboard-req-42"

	router := ginpkg.New()
	router.Use(infragin.RequestIDLoggerMiddleware(logger.NewNop()))

	var seen string
	router.GET("/test", func(c *ginpkg.Context) {
		seen = c.GetString(infragin.RequestIDKey)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set(infragin.RequestIDHeader, inboundID)
	w := serve(t, router, req)

	assert.Equal(t, inboundID, w.Header().Get(infragin.RequestIDHeader))
	assert.Equal(t, inboundID, seen)
}

func TestRequestIDLoggerMiddleware_ReplacesOversizedID(t *testing.T) {
	t.Parallel()

	oversized := strings.Repeat("x", 200)
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set(infragin.RequestIDHeader, oversized)

	w := serve(t, newTestRouter(t), req)

	got := w.Header().Get(infragin.RequestIDHeader)
	assert.NotEmpty(t, got)
	assert.NotEqual(t, oversized, got)
}

func TestRequestIDLoggerMiddleware_StoresLoggerInContext(t *testing.T) {
	t.Parallel()

	base := logger.NewNop()
	router := ginpkg.New()
	router.Use(infragin.RequestIDLoggerMiddleware(base))

	var got logger.Logger
	router.GET("/test", func(c *ginpkg.Context) {
		got = logger.FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	serve(t, router, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	assert.Equal(t, base, got)
}

func TestCORSMiddleware(t *testing.T) {
	t.Parallel()

	router := ginpkg.New()
	router.Use(infragin.CORSMiddleware(infragin.CORSConfig{
		Enabled:        true,
		AllowedOrigins: []string{"https://app.autofillpro.test"},
	}))
	router.GET("/test", func(c *ginpkg.Context) { c.Status(http.StatusOK) })

	t.Run("allowed origin", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
		req.Header.Set("Origin", "https://app.autofillpro.test")
		w := serve(t, router, req)
		assert.Equal(t, "https://app.autofillpro.test", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("foreign origin", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
		req.Header.Set("Origin", "https://evil.test")
		w := serve(t, router, req)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodOptions, "/test", http.NoBody)
		req.Header.Set("Origin", "https://app.autofillpro.test")
		w := serve(t, router, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Parallel()

	router := ginpkg.New()
	router.Use(infragin.RecoveryMiddleware(logger.NewNop()))
	router.GET("/boom", func(*ginpkg.Context) { panic("boom") })

	w := serve(t, router, httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// NewServer sets the global gin mode, so the server tests stay serial.
func TestHealthRoutes(t *testing.T) {
	server := infragin.NewServerBuilder("proautofill", 8080).
		WithLogger(logger.NewNop()).
		WithVersion("test").
		WithRedisHealthCheck(func() error { return errors.New("connection refused") }).
		Build()

	w := serve(t, server.Router(), httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	var body infragin.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, infragin.HealthStatusDegraded, body.Status)
	assert.Equal(t, "proautofill", body.Service)
	assert.Equal(t, infragin.HealthStatusDegraded, body.Checks["redis"].Status)

	live := serve(t, server.Router(), httptest.NewRequest(http.MethodGet, "/health/live", http.NoBody))
	assert.Equal(t, http.StatusOK, live.Code)
}

func TestHealthRoutes_UnhealthyIs503(t *testing.T) {
	server := infragin.NewServerBuilder("proautofill", 8080).
		WithLogger(logger.NewNop()).
		WithHealthCheck("backend", infragin.PingHealthChecker("Backend", infragin.HealthStatusUnhealthy,
			func() error { return errors.New("down") })).
		Build()

	w := serve(t, server.Router(), httptest.NewRequest(http.MethodGet, "/health/ready", http.NoBody))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSetupAPIRoutesWithPublic(t *testing.T) {
	t.Parallel()

	router := ginpkg.New()
	deny := func(c *ginpkg.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
	public, protected := infragin.SetupAPIRoutesWithPublic(router, deny)
	public.GET("/open", func(c *ginpkg.Context) { c.Status(http.StatusOK) })
	protected.GET("/closed", func(c *ginpkg.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/open", http.NoBody)).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/closed", http.NoBody)).Code)
}

func newTestRouter(t *testing.T) *ginpkg.Engine {
	t.Helper()

	router := ginpkg.New()
	router.Use(infragin.RequestIDLoggerMiddleware(logger.NewNop()))
	router.GET("/test", func(c *ginpkg.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func serve(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}
