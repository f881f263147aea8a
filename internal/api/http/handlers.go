// Package http exposes read-only views of the live roots: health, metrics,
// root listings, the last snapshot of a root and an HTML preview of it.
package http

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/workerview/internal/domain/root"
	"github.com/GriffinCanCode/workerview/internal/foreground"
	"github.com/GriffinCanCode/workerview/internal/infrastructure/logging"
	"github.com/GriffinCanCode/workerview/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/workerview/internal/protocol"
)

const (
	serviceName = "workerview"
	version     = "0.1.0"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	roots   *root.Manager
	metrics *monitoring.Metrics
	log     *logging.Logger
	app     string
	enc     *encoder
}

// NewHandlers creates a new handler set. app names the UI new roots render.
func NewHandlers(roots *root.Manager, metrics *monitoring.Metrics, log *logging.Logger, app string) (*Handlers, error) {
	if log == nil {
		log = logging.Nop()
	}
	enc, err := newEncoder()
	if err != nil {
		return nil, err
	}
	return &Handlers{
		roots:   roots,
		metrics: metrics,
		log:     log.Component("http"),
		app:     app,
		enc:     enc,
	}, nil
}

// Register mounts every route on router
func (h *Handlers) Register(router gin.IRoutes) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	router.GET("/metrics/json", h.MetricsJSON)
	router.GET("/roots", h.ListRoots)
	router.GET("/roots/:id", h.GetRoot)
	router.GET("/roots/:id/snapshot", h.GetSnapshot)
	router.GET("/roots/:id/preview", h.Preview)
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": serviceName,
		"version": version,
		"app":     h.app,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	h.metrics.UpdateUptime()
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"roots":  h.roots.Stats(),
		"time":   time.Now().UTC(),
	})
}

// MetricsJSON returns the JSON-friendly counters
func (h *Handlers) MetricsJSON(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"metrics": h.metrics.Snapshot(),
		"roots":   h.roots.Stats(),
	})
}

// ListRoots lists all live roots
func (h *Handlers) ListRoots(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"roots": h.roots.List(),
		"stats": h.roots.Stats(),
	})
}

// GetRoot describes one root
func (h *Handlers) GetRoot(c *gin.Context) {
	info, ok := h.roots.Info(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": root.ErrNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

// GetSnapshot returns the root's last snapshot exactly as it went over the
// wire, compressed when the client accepts it
func (h *Handlers) GetSnapshot(c *gin.Context) {
	data, ok := h.snapshot(c)
	if !ok {
		return
	}
	if err := h.enc.write(c, "application/json", data); err != nil {
		h.log.Error("failed to write snapshot", zap.String("root_id", c.Param("id")), zap.Error(err))
	}
}

// Preview renders the root's last snapshot as static HTML
func (h *Handlers) Preview(c *gin.Context) {
	data, ok := h.snapshot(c)
	if !ok {
		return
	}
	msg, err := protocol.DecodeDownstream(data)
	if err != nil || msg.Snapshot == nil {
		h.log.Error("stored snapshot is not decodable", zap.String("root_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "snapshot is not decodable"})
		return
	}

	var buf bytes.Buffer
	if err := foreground.RenderHTML(&buf, *msg.Snapshot); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.enc.write(c, "text/html; charset=utf-8", buf.Bytes()); err != nil {
		h.log.Error("failed to write preview", zap.String("root_id", c.Param("id")), zap.Error(err))
	}
}

func (h *Handlers) snapshot(c *gin.Context) ([]byte, bool) {
	data, err := h.roots.Snapshot(c.Param("id"))
	switch {
	case errors.Is(err, root.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	case errors.Is(err, root.ErrNoSnapshot):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return nil, false
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return data, true
}
