package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsAreIndependent(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordCommit(128, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Commits))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Commits))
}

func TestRecordDispatch(t *testing.T) {
	m := NewMetrics()
	m.RecordDispatch(true)
	m.RecordDispatch(false)
	m.RecordDispatch(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatches.WithLabelValues(DispatchHit)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Dispatches.WithLabelValues(DispatchMiss)))

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.DispatchHits)
	assert.Equal(t, int64(2), snap.DispatchMisses)
}

func TestSnapshotTracksRootsAndConnections(t *testing.T) {
	m := NewMetrics()
	m.SetRootsActive(3)
	m.IncWSConnections()
	m.IncWSConnections()
	m.DecWSConnections()
	m.RecordMalformed()

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.ActiveRoots)
	assert.Equal(t, int64(1), snap.ActiveConnections)
	assert.Equal(t, int64(1), snap.MalformedMessages)
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	r := gin.New()
	r.Use(Middleware(m))
	r.GET("/roots/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/roots/"+id, nil))
		require.Equal(t, http.StatusNoContent, w.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/roots/:id", "204")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "workerview_http_requests_total")
}
