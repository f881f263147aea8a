package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/workerview/internal/domain/host"
	"github.com/GriffinCanCode/workerview/internal/domain/root"
	"github.com/GriffinCanCode/workerview/internal/domain/snapshot"
	"github.com/GriffinCanCode/workerview/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/workerview/internal/protocol"
)

type fakeRoot struct {
	id      string
	data    []byte
	commits int
}

func (f *fakeRoot) ID() string       { return f.id }
func (f *fakeRoot) Snapshot() []byte { return f.data }
func (f *fakeRoot) Commits() int     { return f.commits }

func setup(t *testing.T) (*gin.Engine, *root.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	metrics := monitoring.NewMetrics()
	roots := root.NewManager().WithMetrics(metrics)
	h, err := NewHandlers(roots, metrics, nil, "demo")
	require.NoError(t, err)

	router := gin.New()
	h.Register(router)
	return router, roots
}

func get(router *gin.Engine, path, acceptEncoding string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func encodePayload(t *testing.T, p snapshot.Payload) []byte {
	t.Helper()
	data, err := protocol.EncodeSnapshot(p)
	require.NoError(t, err)
	return data
}

func smallPayload() snapshot.Payload {
	label := host.String("Counter")
	return snapshot.Payload{Elements: []snapshot.Node{
		snapshot.Text{Type: host.TextHeader, Text: &label},
		snapshot.Button{ID: 0, Children: []snapshot.Node{snapshot.Raw{Text: host.String("+")}}},
	}}
}

func largePayload() snapshot.Payload {
	var kids []snapshot.Node
	for i := 0; i < 100; i++ {
		kids = append(kids, snapshot.Raw{Text: host.String(fmt.Sprintf("line %d", i))})
	}
	return snapshot.Payload{Elements: []snapshot.Node{snapshot.View{Children: kids}}}
}

func TestHealthAndRoot(t *testing.T) {
	router, roots := setup(t)
	roots.Register(&fakeRoot{id: "root_a"}, "demo", "pipe", "")

	w := get(router, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status string     `json:"status"`
		Roots  root.Stats `json:"roots"`
	}
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, 1, body.Roots.Active)

	w = get(router, "/", "")
	assert.Contains(t, w.Body.String(), `"app":"demo"`)
}

func TestMetricsEndpoints(t *testing.T) {
	router, roots := setup(t)
	roots.Register(&fakeRoot{id: "root_a"}, "demo", "pipe", "")

	w := get(router, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "workerview_roots_active 1")

	w = get(router, "/metrics/json", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"active_roots":1`)
}

func TestListAndGetRoot(t *testing.T) {
	router, roots := setup(t)
	roots.Register(&fakeRoot{id: "root_a", commits: 4}, "counter", "websocket", "10.0.0.1")

	w := get(router, "/roots", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"root_a"`)

	w = get(router, "/roots/root_a", "")
	require.Equal(t, http.StatusOK, w.Code)
	var info root.Info
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "counter", info.App)
	assert.Equal(t, 4, info.Commits)

	assert.Equal(t, http.StatusNotFound, get(router, "/roots/nope", "").Code)
}

func TestSnapshotErrors(t *testing.T) {
	router, roots := setup(t)
	roots.Register(&fakeRoot{id: "root_a"}, "demo", "pipe", "")

	assert.Equal(t, http.StatusNotFound, get(router, "/roots/nope/snapshot", "").Code)
	assert.Equal(t, http.StatusConflict, get(router, "/roots/root_a/snapshot", "").Code)
	assert.Equal(t, http.StatusConflict, get(router, "/roots/root_a/preview", "").Code)
}

func TestSnapshotIdentityForSmallBodies(t *testing.T) {
	router, roots := setup(t)
	data := encodePayload(t, smallPayload())
	roots.Register(&fakeRoot{id: "root_a", data: data}, "demo", "pipe", "")

	w := get(router, "/roots/root_a/snapshot", "gzip, zstd")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "Accept-Encoding", w.Header().Get("Vary"))
	assert.JSONEq(t, string(data), w.Body.String())
}

func TestSnapshotCompression(t *testing.T) {
	router, roots := setup(t)
	data := encodePayload(t, largePayload())
	require.GreaterOrEqual(t, len(data), minCompressSize)
	roots.Register(&fakeRoot{id: "root_a", data: data}, "demo", "pipe", "")

	t.Run("zstd preferred", func(t *testing.T) {
		w := get(router, "/roots/root_a/snapshot", "gzip, deflate, zstd")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, EncodingZstd, w.Header().Get("Content-Encoding"))

		dec, err := zstd.NewReader(nil)
		require.NoError(t, err)
		defer dec.Close()
		out, err := dec.DecodeAll(w.Body.Bytes(), nil)
		require.NoError(t, err)
		assert.Equal(t, data, out)
	})

	t.Run("gzip", func(t *testing.T) {
		w := get(router, "/roots/root_a/snapshot", "gzip")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, EncodingGzip, w.Header().Get("Content-Encoding"))

		zr, err := gzip.NewReader(bytes.NewReader(w.Body.Bytes()))
		require.NoError(t, err)
		out, err := io.ReadAll(zr)
		require.NoError(t, err)
		assert.Equal(t, data, out)
	})

	t.Run("identity", func(t *testing.T) {
		w := get(router, "/roots/root_a/snapshot", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Content-Encoding"))
		assert.Equal(t, data, w.Body.Bytes())
	})
}

func TestNegotiate(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", EncodingIdentity},
		{"gzip", EncodingGzip},
		{"br, gzip;q=0.8", EncodingGzip},
		{"zstd, gzip", EncodingZstd},
		{"zstd;q=0, gzip", EncodingGzip},
		{"ZSTD", EncodingZstd},
		{"deflate, br", EncodingIdentity},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, negotiate(tt.header))
		})
	}
}

func TestPreview(t *testing.T) {
	router, roots := setup(t)
	roots.Register(&fakeRoot{id: "root_a", data: encodePayload(t, smallPayload())}, "demo", "pipe", "")

	w := get(router, "/roots/root_a/preview", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))

	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	assert.Equal(t, "Counter", doc.Find("h2").Text())
	assert.Equal(t, "0", doc.Find("button").AttrOr("data-id", ""))
}

func TestPreviewRejectsCorruptSnapshot(t *testing.T) {
	router, roots := setup(t)
	roots.Register(&fakeRoot{id: "root_a", data: []byte(`{"elements":[{"tag":"blink"}]}`)}, "demo", "pipe", "")

	assert.Equal(t, http.StatusInternalServerError, get(router, "/roots/root_a/preview", "").Code)
}
