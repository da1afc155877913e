package server

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/systemstart/doxgen-worker/pkg/api"
	"github.com/systemstart/doxgen-worker/pkg/generation"
	"github.com/systemstart/doxgen-worker/pkg/logging"
	"github.com/systemstart/doxgen-worker/pkg/render"
)

// Generator runs one generation request.
type Generator interface {
	Submit(ctx context.Context, req generation.Request, deadline time.Duration) error
}

// HealthReader reports the worker's health.
type HealthReader interface {
	IsHealthy() bool
}

// HandleGenerate accepts a GenerationRequest, resolves its paths under
// storageDir and submits it with the given timeout. Every failure, including
// a malformed request, is answered with 500.
func HandleGenerate(gen Generator, storageDir string, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req api.GenerationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, fmt.Errorf("%w: decoding body: %w", generation.ErrRequest, err))
			return
		}
		if err := req.Validate(); err != nil {
			fail(c, fmt.Errorf("%w: %w", generation.ErrRequest, err))
			return
		}
		dest, err := req.ResolveDestination(storageDir)
		if err != nil {
			fail(c, fmt.Errorf("%w: %w", generation.ErrRequest, err))
			return
		}

		err = gen.Submit(c.Request.Context(), generation.Request{
			TemplateRef:     req.TemplatePath,
			Context:         req.GenerationContext,
			DestinationPath: dest,
		}, timeout)
		if err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusOK, api.GenerationResponse{Status: api.StatusSuccess})
	}
}

// HandleHealth reports 200 while healthy and 503 once unhealthy.
func HandleHealth(h HealthReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.IsHealthy() {
			c.JSON(http.StatusOK, api.HealthResponse{Status: api.HealthHealthy})
			return
		}
		c.JSON(http.StatusServiceUnavailable, api.HealthResponse{Status: api.HealthUnhealthy})
	}
}

// HandleTemplates lists the templates available under fsys.
func HandleTemplates(fsys fs.FS) gin.HandlerFunc {
	return func(c *gin.Context) {
		templates, err := render.List(fsys, nil)
		if err != nil {
			slog.Error("listing templates failed", "error", err, "requestID", logging.RequestID(c))
			c.JSON(http.StatusInternalServerError, api.GenerationResponse{Status: api.StatusFailure, Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, api.TemplateList{Templates: templates})
	}
}

// HandleNotFound answers every unknown route.
func HandleNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, api.GenerationResponse{Status: api.StatusFailure, Error: "not found"})
}

func fail(c *gin.Context, err error) {
	slog.Error("generation request failed",
		"outcome", generation.Outcome(err),
		"error", err,
		"requestID", logging.RequestID(c))
	c.JSON(http.StatusInternalServerError, api.GenerationResponse{
		Status: api.StatusFailure,
		Error:  err.Error(),
	})
}
