// Copyright 2026 The msgpush Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package api implements the HTTP surface of the msgpush server: the footer
// fragment, its JSON form and the status document consumed by the web client.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/msgpush/pusher/internal/buildinfo"
	"github.com/msgpush/pusher/internal/config"
	"github.com/msgpush/pusher/internal/footer"
	"github.com/msgpush/pusher/internal/logging"
	"github.com/msgpush/pusher/internal/store"
)

// footerSettings is the hot-reloadable part of the configuration.
type footerSettings struct {
	label      string
	policy     footer.Policy
	policyName string
}

// Server hosts the footer endpoints.
type Server struct {
	engine    *gin.Engine
	server    *http.Server
	reader    store.OptionReader
	catalog   *footer.Catalog
	settings  atomic.Pointer[footerSettings]
	startTime time.Time
}

// NewServer builds the gin engine and routes. reader is consulted on every request.
func NewServer(cfg *config.Config, reader store.OptionReader, catalog *footer.Catalog) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("api: nil config")
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		reader:    reader,
		catalog:   catalog,
		startTime: time.Now(),
	}
	if err := s.UpdateFooter(cfg.Footer); err != nil {
		return nil, err
	}

	engine := gin.New()
	engine.Use(logging.GinLogrusLogger(), gin.Recovery())
	s.engine = engine
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              cfg.Address(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	compressed := s.engine.Group("/", compressMiddleware())
	compressed.GET("/footer", s.handleFooterFragment)

	apiGroup := compressed.Group("/api")
	apiGroup.GET("/footer", s.handleFooterJSON)
	apiGroup.GET("/status", s.handleStatus)
}

// UpdateFooter applies footer settings. In-flight requests keep the settings
// they started with.
func (s *Server) UpdateFooter(cfg config.FooterConfig) error {
	policy, err := footer.PolicyFor(cfg.Policy)
	if err != nil {
		return err
	}
	next := &footerSettings{
		label:      s.catalog.LabelFor(cfg),
		policy:     policy,
		policyName: cfg.Policy,
	}
	if prev := s.settings.Swap(next); prev != nil && (prev.label != next.label || prev.policyName != next.policyName) {
		log.WithFields(log.Fields{"label": next.label, "policy": next.policyName}).Info("footer settings updated")
	}
	return nil
}

// view returns a footer view bound to the current settings.
func (s *Server) view() *footer.View {
	st := s.settings.Load()
	return &footer.View{
		Reader:  s.reader,
		Label:   st.label,
		Version: buildinfo.Version,
		Policy:  st.policy,
	}
}

// Handler exposes the gin engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens and serves until Stop is called.
func (s *Server) Start() error {
	log.Infof("msgpush server listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api: listen on %s: %w", s.server.Addr, err)
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("api: shutdown: %w", err)
	}
	return nil
}
