// Copyright 2026 The msgpush Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
)

const (
	encodingBrotli = "br"
	encodingGzip   = "gzip"
)

// compressWriter routes the response body through an encoder.
type compressWriter struct {
	gin.ResponseWriter
	enc io.Writer
}

func (w *compressWriter) Write(b []byte) (int, error) {
	if !w.Written() {
		w.ResponseWriter.Header().Del("Content-Length")
	}
	return w.enc.Write(b)
}

func (w *compressWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// compressMiddleware encodes response bodies with brotli or gzip, whichever
// the client prefers. Brotli wins ties.
func compressMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodHead {
			c.Next()
			return
		}
		encoding := negotiateEncoding(c.GetHeader("Accept-Encoding"))
		c.Writer.Header().Add("Vary", "Accept-Encoding")
		if encoding == "" {
			c.Next()
			return
		}

		var enc io.WriteCloser
		switch encoding {
		case encodingBrotli:
			enc = brotli.NewWriterLevel(c.Writer, brotli.DefaultCompression)
		case encodingGzip:
			gz, err := gzip.NewWriterLevel(c.Writer, gzip.DefaultCompression)
			if err != nil {
				c.Next()
				return
			}
			enc = gz
		}

		c.Header("Content-Encoding", encoding)
		c.Writer = &compressWriter{ResponseWriter: c.Writer, enc: enc}
		defer func() {
			_ = enc.Close()
		}()
		c.Next()
	}
}

// negotiateEncoding picks br or gzip from an Accept-Encoding header, honoring q-values.
func negotiateEncoding(header string) string {
	if header == "" {
		return ""
	}
	best, bestQ := "", 0.0
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		name = strings.ToLower(strings.TrimSpace(name))
		q := 1.0
		if v, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				continue
			}
			q = parsed
		}
		if q <= 0 {
			continue
		}
		switch name {
		case encodingBrotli:
			if q >= bestQ {
				best, bestQ = encodingBrotli, q
			}
		case encodingGzip, "x-gzip":
			if q > bestQ {
				best, bestQ = encodingGzip, q
			}
		case "*":
			if q > bestQ {
				best, bestQ = encodingBrotli, q
			}
		}
	}
	return best
}
