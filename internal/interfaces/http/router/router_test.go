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

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRouterWithAPIVersion(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.BasePath())

	NewRouter(engine).
		Register(NewDomainGroup("ping", "/ping").GET("", func(c *gin.Context) { c.String(http.StatusOK, "pong") })).
		Setup()

	w := serve(engine, http.MethodGet, "/api/v1/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroup_MethodsAndMiddleware(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("items", "/items").
		Use(func(c *gin.Context) {
			c.Header("X-Group", "items")
			c.Next()
		}).
		GET("", func(c *gin.Context) { c.Status(http.StatusOK) }).
		POST("", func(c *gin.Context) { c.Status(http.StatusCreated) }).
		PATCH("/:id", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) }).
		DELETE("/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	g.RegisterRoutes(engine.Group("/api/v1"))

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/items").Code)
	assert.Equal(t, http.StatusCreated, serve(engine, http.MethodPost, "/api/v1/items").Code)
	assert.Equal(t, "42", serve(engine, http.MethodPatch, "/api/v1/items/42").Body.String())
	w := serve(engine, http.MethodDelete, "/api/v1/items/42")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "items", w.Header().Get("X-Group"))

	assert.Equal(t, "items", g.Name())
	assert.Equal(t, []string{
		"GET /items",
		"POST /items",
		"PATCH /items/:id",
		"DELETE /items/:id",
	}, g.Paths())
}
