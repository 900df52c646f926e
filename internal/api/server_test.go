// Copyright 2026 The msgpush Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"
	gin "github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msgpush/pusher/internal/buildinfo"
	"github.com/msgpush/pusher/internal/config"
	"github.com/msgpush/pusher/internal/constant"
	"github.com/msgpush/pusher/internal/footer"
	"github.com/msgpush/pusher/internal/store"
)

const (
	fragmentPrefix = `<div class="ui vertical basic segment"><div class="ui center aligned container"><div class="custom-footer">`
	fragmentSuffix = `</div></div></div>`
)

func newTestServer(t *testing.T, reader store.OptionReader, mutate ...func(*config.Config)) *Server {
	t.Helper()

	gin.SetMode(gin.TestMode)
	prev := buildinfo.Version
	buildinfo.Version = "1.2.3"
	t.Cleanup(func() { buildinfo.Version = prev })

	cfg := config.Default()
	cfg.Debug = true
	cfg.Port = 0
	for _, m := range mutate {
		m(cfg)
	}

	catalog, err := footer.NewCatalog()
	require.NoError(t, err)
	s, err := NewServer(cfg, reader, catalog)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, path string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func TestFooterFragment_Default(t *testing.T) {
	s := newTestServer(t, store.NewMemoryStore(nil))

	w := do(t, s, "/footer")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, fragmentPrefix+"消息推送服务 1.2.3"+fragmentSuffix, w.Body.String())
}

func TestFooterFragment_EmptyMatchesDefault(t *testing.T) {
	absent := do(t, newTestServer(t, store.NewMemoryStore(nil)), "/footer")
	empty := do(t, newTestServer(t, store.NewMemoryStore(map[string]string{constant.FooterHTMLKey: ""})), "/footer")
	assert.Equal(t, absent.Body.String(), empty.Body.String())
}

func TestFooterFragment_Custom(t *testing.T) {
	s := newTestServer(t, store.NewMemoryStore(map[string]string{constant.FooterHTMLKey: "<b>Custom</b>"}))

	w := do(t, s, "/footer")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, fragmentPrefix+"<b>Custom</b>"+fragmentSuffix, w.Body.String())

	again := do(t, s, "/footer")
	assert.Equal(t, w.Body.String(), again.Body.String())
}

func TestFooterJSON(t *testing.T) {
	s := newTestServer(t, store.NewMemoryStore(map[string]string{constant.FooterHTMLKey: "<b>Custom</b>"}))

	w := do(t, s, "/api/footer")
	require.Equal(t, http.StatusOK, w.Code)

	var resp envelope[FooterResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, footer.ModeCustom, resp.Data.Mode)
	assert.Equal(t, "<b>Custom</b>", string(resp.Data.HTML))
	assert.Equal(t, "1.2.3", resp.Data.Version)
}

func TestFooterJSON_StoreErrorFallsBack(t *testing.T) {
	reader := store.ReaderFunc(func(context.Context, string) (string, bool, error) {
		return "", false, errors.New("connection refused")
	})
	s := newTestServer(t, reader)

	var resp envelope[FooterResponse]
	require.NoError(t, json.Unmarshal(do(t, s, "/api/footer").Body.Bytes(), &resp))
	assert.Equal(t, footer.ModeDefault, resp.Data.Mode)
	assert.Equal(t, "消息推送服务 1.2.3", resp.Data.Text)

	var status envelope[StatusResponse]
	require.NoError(t, json.Unmarshal(do(t, s, "/api/status").Body.Bytes(), &status))
	assert.Equal(t, "", status.Data.FooterHTML)
}

func TestStatus(t *testing.T) {
	s := newTestServer(t, store.NewMemoryStore(map[string]string{constant.FooterHTMLKey: "<i>hi</i>"}),
		func(c *config.Config) { c.Footer.Language = "en" })

	w := do(t, s, "/api/status")
	require.Equal(t, http.StatusOK, w.Code)

	var resp envelope[StatusResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "1.2.3", resp.Data.Version)
	assert.Equal(t, "Message Pusher", resp.Data.SystemName)
	assert.Equal(t, "<i>hi</i>", resp.Data.FooterHTML)
	assert.NotZero(t, resp.Data.StartTime)
}

func TestStatus_SanitizePolicy(t *testing.T) {
	s := newTestServer(t, store.NewMemoryStore(map[string]string{
		constant.FooterHTMLKey: `<i onmouseover="x()">hi</i><script>x()</script>`,
	}), func(c *config.Config) { c.Footer.Policy = config.PolicySanitize })

	var resp envelope[StatusResponse]
	require.NoError(t, json.Unmarshal(do(t, s, "/api/status").Body.Bytes(), &resp))
	assert.Equal(t, "<i>hi</i>", resp.Data.FooterHTML)
	assert.Equal(t, fragmentPrefix+"<i>hi</i>"+fragmentSuffix, do(t, s, "/footer").Body.String())
}

func TestUpdateFooter(t *testing.T) {
	s := newTestServer(t, store.NewMemoryStore(nil))
	assert.Contains(t, do(t, s, "/footer").Body.String(), "消息推送服务 1.2.3")

	f := config.Default().Footer
	f.Label = "Pusher"
	require.NoError(t, s.UpdateFooter(f))
	assert.Contains(t, do(t, s, "/footer").Body.String(), "Pusher 1.2.3")

	f.Policy = "strip"
	assert.Error(t, s.UpdateFooter(f))
	assert.Contains(t, do(t, s, "/footer").Body.String(), "Pusher 1.2.3", "failed update keeps previous settings")
}

func TestNewServer_NilConfig(t *testing.T) {
	_, err := NewServer(nil, nil, nil)
	assert.Error(t, err)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestFooterFragment_Compression(t *testing.T) {
	s := newTestServer(t, store.NewMemoryStore(map[string]string{constant.FooterHTMLKey: "<b>Custom</b>"}))
	want := fragmentPrefix + "<b>Custom</b>" + fragmentSuffix

	w := do(t, s, "/footer", "Accept-Encoding", "gzip, br")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "br", w.Header().Get("Content-Encoding"))
	body, err := io.ReadAll(brotli.NewReader(w.Body))
	require.NoError(t, err)
	assert.Equal(t, want, string(body))

	w = do(t, s, "/footer", "Accept-Encoding", "gzip")
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err = io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, want, string(body))

	w = do(t, s, "/footer")
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, want, w.Body.String())
}

func TestNegotiateEncoding(t *testing.T) {
	tests := map[string]string{
		"":                     "",
		"identity":             "",
		"gzip":                 "gzip",
		"br":                   "br",
		"gzip, deflate, br":    "br",
		"br;q=0.5, gzip;q=0.9": "gzip",
		"br;q=0, gzip":         "gzip",
		"gzip;q=0":             "",
		"*":                    "br",
		"GZIP;q=0.8, x-foo":    "gzip",
		"br;q=abc, gzip;q=0.1": "gzip",
	}
	for header, want := range tests {
		assert.Equal(t, want, negotiateEncoding(header), "Accept-Encoding %q", header)
	}
}

func TestStatus_MatchesResolvedFooter(t *testing.T) {
	values := []string{"", "<b>Custom</b>", `<script>x()</script>`, `<i onclick="x()">hi</i>`}
	for _, policy := range []string{config.PolicyTrusted, config.PolicySanitize} {
		for _, v := range values {
			s := newTestServer(t, store.NewMemoryStore(map[string]string{constant.FooterHTMLKey: v}),
				func(c *config.Config) { c.Footer.Policy = policy })

			var f envelope[FooterResponse]
			require.NoError(t, json.Unmarshal(do(t, s, "/api/footer").Body.Bytes(), &f))
			var status envelope[StatusResponse]
			require.NoError(t, json.Unmarshal(do(t, s, "/api/status").Body.Bytes(), &status))

			if f.Data.Mode == footer.ModeCustom {
				assert.Equal(t, string(f.Data.HTML), status.Data.FooterHTML, "%s %q", policy, v)
			} else {
				assert.Empty(t, status.Data.FooterHTML, "%s %q", policy, v)
			}
		}
	}
}
