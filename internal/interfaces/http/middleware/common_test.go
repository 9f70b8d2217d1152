package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	t.Run("generates an id when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		r.ServeHTTP(w, req)

		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		assert.Equal(t, w.Header().Get("X-Request-ID"), w.Body.String())
	})

	t.Run("propagates a supplied id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Request-ID", "req-supplied")
		r.ServeHTTP(w, req)

		assert.Equal(t, "req-supplied", w.Header().Get("X-Request-ID"))
	})
}

func TestCORS(t *testing.T) {
	newRouter := func(cfg CORSConfig) *gin.Engine {
		r := gin.New()
		r.Use(CORSWithConfig(cfg))
		r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}

	t.Run("allowed origin gets headers", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowOrigins = []string{"https://app.example.com"}
		r := newRouter(cfg)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "https://app.example.com")
		r.ServeHTTP(w, req)

		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("unlisted origin gets no headers", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowOrigins = []string{"https://app.example.com"}
		r := newRouter(cfg)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		r.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight gets 204", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowOrigins = []string{"*"}
		r := newRouter(cfg)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
		req.Header.Set("Origin", "https://anywhere.example.com")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}
