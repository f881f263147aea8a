package http

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Content codings offered for snapshot bodies
const (
	EncodingZstd     = "zstd"
	EncodingGzip     = "gzip"
	EncodingIdentity = "identity"
)

// minCompressSize keeps tiny bodies uncompressed
const minCompressSize = 512

type encoder struct {
	zstd *zstd.Encoder
}

func newEncoder() (*encoder, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, err
	}
	return &encoder{zstd: enc}, nil
}

// negotiate picks the best coding listed in an Accept-Encoding header.
// Quality values are honoured only to exclude a coding with q=0.
func negotiate(header string) string {
	offered := map[string]bool{}
	for _, part := range strings.Split(header, ",") {
		fields := strings.Split(strings.TrimSpace(part), ";")
		name := strings.ToLower(strings.TrimSpace(fields[0]))
		if name == "" {
			continue
		}
		enabled := true
		for _, param := range fields[1:] {
			k, v, ok := strings.Cut(param, "=")
			if !ok || strings.TrimSpace(k) != "q" {
				continue
			}
			if q, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && q == 0 {
				enabled = false
			}
		}
		offered[name] = enabled
	}
	for _, coding := range []string{EncodingZstd, EncodingGzip} {
		if offered[coding] {
			return coding
		}
	}
	return EncodingIdentity
}

func (e *encoder) compress(coding string, data []byte) ([]byte, error) {
	switch coding {
	case EncodingZstd:
		return e.zstd.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
	case EncodingGzip:
		var buf bytes.Buffer
		zw, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return data, nil
}

func (e *encoder) write(c *gin.Context, contentType string, data []byte) error {
	c.Header("Vary", "Accept-Encoding")

	coding := EncodingIdentity
	if len(data) >= minCompressSize {
		coding = negotiate(c.GetHeader("Accept-Encoding"))
	}
	body, err := e.compress(coding, data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return err
	}
	if coding != EncodingIdentity {
		c.Header("Content-Encoding", coding)
	}
	c.Data(http.StatusOK, contentType, body)
	return nil
}
