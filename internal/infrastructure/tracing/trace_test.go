package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/workerview/internal/infrastructure/logging"
)

func newObservedTracer() (*Tracer, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return New("workerview", logging.Wrap(zap.New(core))), logs
}

func TestStartSpanNestsUnderContext(t *testing.T) {
	tracer, _ := newObservedTracer()
	defer tracer.Close()

	root, ctx := tracer.StartSpan(context.Background(), "root")
	assert.True(t, strings.HasPrefix(string(root.TraceID), tracePrefix+"_"))
	assert.Empty(t, root.ParentID)
	assert.Equal(t, root.TraceID, GetTraceID(ctx))
	assert.Equal(t, root.SpanID, GetSpanID(ctx))

	child, ctx := tracer.StartSpan(ctx, "child")
	assert.Equal(t, root.TraceID, child.TraceID)
	assert.Equal(t, root.SpanID, child.ParentID)
	assert.NotEqual(t, root.SpanID, child.SpanID)
	assert.Equal(t, child.SpanID, GetSpanID(ctx))
}

func TestWithSpanSkipsEmpty(t *testing.T) {
	ctx := WithSpan(context.Background(), "", "")
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))
}

func TestCloseFlushesSpans(t *testing.T) {
	tracer, logs := newObservedTracer()

	ok, _ := tracer.StartSpan(context.Background(), "ok")
	ok.SetTag("app", "counter")
	ok.Finish()
	tracer.Submit(ok)

	bad, _ := tracer.StartSpan(context.Background(), "bad")
	bad.SetError(errors.New("boom"))
	bad.Finish()
	tracer.Submit(bad)

	tracer.Close()
	tracer.Close()

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "span completed", entries[0].Message)
	assert.Equal(t, "counter", entries[0].ContextMap()["app"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)

	// spans submitted after close are dropped
	late, _ := tracer.StartSpan(context.Background(), "late")
	tracer.Submit(late)
	assert.Equal(t, 2, logs.Len())
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer, logs := newObservedTracer()

	var seen TraceID
	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.GET("/roots/:id", func(c *gin.Context) {
		seen = GetTraceID(c.Request.Context())
		c.Status(http.StatusNotFound)
	})

	t.Run("starts a trace", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/roots/abc", nil))

		assert.NotEmpty(t, w.Header().Get(TraceHeader))
		assert.NotEmpty(t, w.Header().Get(SpanHeader))
		assert.Equal(t, TraceID(w.Header().Get(TraceHeader)), seen)
	})

	t.Run("continues the caller's trace", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/roots/abc", nil)
		req.Header.Set(TraceHeader, "trc_upstream")
		req.Header.Set(SpanHeader, "spn_upstream")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "trc_upstream", w.Header().Get(TraceHeader))
		assert.NotEqual(t, "spn_upstream", w.Header().Get(SpanHeader))
		assert.Equal(t, TraceID("trc_upstream"), seen)
	})

	tracer.Close()
	entries := logs.FilterMessage("span completed").All()
	require.Len(t, entries, 2)
	fields := entries[1].ContextMap()
	assert.Equal(t, "GET /roots/:id", fields["operation"])
	assert.Equal(t, "404", fields["http.status"])
	assert.Equal(t, "spn_upstream", fields["parent_id"])
}
