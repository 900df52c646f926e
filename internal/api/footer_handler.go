// Copyright 2026 The msgpush Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/msgpush/pusher/internal/buildinfo"
	"github.com/msgpush/pusher/internal/footer"
	"github.com/msgpush/pusher/internal/logging"
)

// FooterResponse is the data payload of GET /api/footer.
type FooterResponse struct {
	footer.Footer
	Version string `json:"version"`
}

// StatusResponse is the data payload of GET /api/status.
type StatusResponse struct {
	Version    string `json:"version"`
	Commit     string `json:"commit"`
	BuildDate  string `json:"build_date"`
	SystemName string `json:"system_name"`
	FooterHTML string `json:"footer_html"`
	StartTime  int64  `json:"start_time"`
}

// handleFooterFragment serves the rendered footer as an HTML fragment.
func (s *Server) handleFooterFragment(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := s.view().Render(c.Request.Context(), c.Writer); err != nil {
		logging.FromContext(c).Errorf("render footer: %v", err)
	}
}

// handleFooterJSON serves the resolved footer state.
func (s *Server) handleFooterJSON(c *gin.Context) {
	f := s.view().Resolve(c.Request.Context())
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "",
		"data": FooterResponse{
			Footer:  f,
			Version: buildinfo.Version,
		},
	})
}

// handleStatus serves the status document the web client mirrors into local
// storage. footer_html is the stored value after the content policy, or "" when absent.
func (s *Server) handleStatus(c *gin.Context) {
	view := s.view()
	footerHTML := ""
	if f := view.Resolve(c.Request.Context()); f.Custom() {
		footerHTML = string(f.HTML)
	}

	info := buildinfo.Current()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "",
		"data": StatusResponse{
			Version:    info.Version,
			Commit:     info.Commit,
			BuildDate:  info.BuildDate,
			SystemName: view.Label,
			FooterHTML: footerHTML,
			StartTime:  s.startTime.Unix(),
		},
	})
}
