package server

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/systemstart/doxgen-worker/pkg/logging"
)

// Deps are the collaborators the routes dispatch to.
type Deps struct {
	Generator  Generator
	Health     HealthReader
	Templates  fs.FS
	StorageDir string
	Timeout    time.Duration
	// Metrics serves /metrics when non-nil.
	Metrics http.Handler
}

// NewRouter creates a gin engine with the worker's routes.
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), logging.Middleware())
	SetupRoutes(router, deps)
	return router
}

// SetupRoutes registers the worker's routes on router.
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.POST("/", HandleGenerate(deps.Generator, deps.StorageDir, deps.Timeout))
	router.GET("/healthcheck", HandleHealth(deps.Health))
	if deps.Templates != nil {
		router.GET("/templates", HandleTemplates(deps.Templates))
	}
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}
	router.NoRoute(HandleNotFound)
}
