package router

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

type pingRegistrar struct{}

func (pingRegistrar) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
}

func TestRouter_Setup(t *testing.T) {
	engine := gin.New()
	NewRouter(engine).Register(pingRegistrar{}).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_WithAPIVersion(t *testing.T) {
	engine := gin.New()
	NewRouter(engine, WithAPIVersion("v2")).Register(pingRegistrar{}).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
