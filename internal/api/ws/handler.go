// Package ws serves the foreground stream: every WebSocket connection gets
// its own background root, rendered by a worker that speaks the snapshot
// protocol over the socket.
package ws

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/workerview/internal/domain/apps"
	"github.com/GriffinCanCode/workerview/internal/domain/root"
	"github.com/GriffinCanCode/workerview/internal/infrastructure/logging"
	"github.com/GriffinCanCode/workerview/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/workerview/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/workerview/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/workerview/internal/shared/id"
	"github.com/GriffinCanCode/workerview/internal/transport"
	"github.com/GriffinCanCode/workerview/internal/worker"
)

// TransportName labels roots served by this handler
const TransportName = "websocket"

// Handler manages WebSocket connections
type Handler struct {
	roots    *root.Manager
	factory  apps.Factory
	metrics  *monitoring.Metrics
	log      *logging.Logger
	upgrader websocket.Upgrader
	breaker  *resilience.Breaker
	base     context.Context
	wg       sync.WaitGroup
}

// NewHandler creates a new WebSocket handler
func NewHandler(roots *root.Manager, factory apps.Factory, metrics *monitoring.Metrics, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.Nop()
	}
	if metrics == nil {
		metrics = monitoring.NewMetrics()
	}
	h := &Handler{
		roots:   roots,
		factory: factory,
		metrics: metrics,
		log:     log.Component("ws"),
		base:    context.Background(),
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: originChecker(nil)}
	return h.WithBreaker(resilience.DefaultSettings())
}

// WithBreaker replaces the breaker guarding root construction
func (h *Handler) WithBreaker(settings resilience.Settings) *Handler {
	settings.OnStateChange = func(name string, from, to resilience.State) {
		h.log.Warn("root factory breaker changed state",
			zap.String("breaker", name),
			zap.Stringer("from", from),
			zap.Stringer("to", to))
	}
	h.breaker = resilience.New("factory:"+h.factory.App, settings)
	return h
}

// WithOrigins restricts upgrades to the listed origins. "*" or an empty
// list allows every origin.
func (h *Handler) WithOrigins(origins []string) *Handler {
	h.upgrader.CheckOrigin = originChecker(origins)
	return h
}

// WithContext bounds every worker by ctx. Hijacked connections outlive the
// HTTP server's shutdown, so cancelling ctx is how they are stopped.
func (h *Handler) WithContext(ctx context.Context) *Handler {
	h.base = ctx
	return h
}

// Wait blocks until every connection has been torn down
func (h *Handler) Wait() {
	h.wg.Wait()
}

func originChecker(origins []string) func(*http.Request) bool {
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return slices.Contains(origins, u.Scheme+"://"+u.Host)
	}
}

// HandleConnection upgrades the request and runs a worker until either
// side goes away
func (h *Handler) HandleConnection(c *gin.Context) {
	// an open breaker is answered before the upgrade
	if h.breaker.State() == resilience.StateOpen {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "root factory unavailable"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written the error response
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	node, err := resilience.Do(h.breaker, h.factory.New)
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		closeWith(conn, websocket.CloseTryAgainLater, "root factory unavailable")
		return
	case err != nil:
		h.log.Error("failed to build root", zap.String("app", h.factory.App), zap.Error(err))
		closeWith(conn, websocket.CloseInternalServerErr, "failed to build root")
		return
	}

	h.wg.Add(1)
	defer h.wg.Done()
	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	var framesIn, framesOut atomic.Int64
	port := transport.NewWebSocket(conn).WithHooks(
		func() { framesOut.Add(1) },
		func() { framesIn.Add(1) },
	)

	connID := id.NewConnID().String()
	log := logging.Wrap(h.log.With(
		zap.String("conn_id", connID),
		zap.String("trace_id", string(tracing.GetTraceID(c.Request.Context())))))
	w := worker.New(port, worker.Options{Logger: log, Metrics: h.metrics})

	info := h.roots.Register(w, h.factory.App, TransportName, c.ClientIP())
	defer h.roots.Remove(info.ID)
	log.Info("connection opened",
		zap.String("root_id", info.ID),
		zap.String("remote_addr", info.RemoteAddr))

	if err := w.Run(h.base, node); err != nil {
		log.Warn("worker failed", zap.String("root_id", info.ID), zap.Error(err))
	}
	log.Info("connection closed",
		zap.String("root_id", info.ID),
		zap.Int64("frames_in", framesIn.Load()),
		zap.Int64("frames_out", framesOut.Load()))
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = conn.Close()
}
