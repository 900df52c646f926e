// Copyright 2026 The msgpush Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package main provides the entry point for the msgpush server.
// The server renders the site footer from the configured option store and
// serves the status document consumed by the web client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"

	"github.com/msgpush/pusher/internal/api"
	"github.com/msgpush/pusher/internal/buildinfo"
	"github.com/msgpush/pusher/internal/config"
	"github.com/msgpush/pusher/internal/footer"
	"github.com/msgpush/pusher/internal/logging"
	"github.com/msgpush/pusher/internal/store"
	"github.com/msgpush/pusher/internal/util"
	"github.com/msgpush/pusher/internal/watcher"
)

// DefaultConfigPath is read when -config is not given. It may be missing.
var DefaultConfigPath = "config.yaml"

// init initializes the shared logger setup. Build metadata is linked into
// internal/buildinfo directly.
func init() {
	logging.SetupBaseLogger()
}

func main() {
	var (
		configPath  string
		showVersion bool
		printFooter bool
		openBrowser bool
	)
	flag.StringVar(&configPath, "config", DefaultConfigPath, "Configure File Path")
	flag.BoolVar(&showVersion, "version", false, "Print version information and exit")
	flag.BoolVar(&printFooter, "print-footer", false, "Render the footer fragment to stdout and exit")
	flag.BoolVar(&openBrowser, "open", false, "Open the rendered footer in the default browser")
	flag.Parse()

	if showVersion {
		fmt.Println(versionLine(buildinfo.Current()))
		return
	}

	// Load environment variables from .env if present.
	if wd, err := os.Getwd(); err == nil {
		if errLoad := godotenv.Load(filepath.Join(wd, ".env")); errLoad != nil && !errors.Is(errLoad, os.ErrNotExist) {
			log.WithError(errLoad).Warn("failed to load .env file")
		}
	}

	if err := run(configPath, printFooter, openBrowser); err != nil {
		log.Errorf("msgpush: %v", err)
		logging.Close()
		os.Exit(1)
	}
}

func run(configPath string, printFooter, openBrowser bool) error {
	// The default path is optional; an explicit one must exist.
	optional := configPath == DefaultConfigPath
	cfg, err := config.LoadConfigOptional(configPath, optional)
	if err != nil {
		return err
	}

	stateBox, err := util.NewStateBox()
	if err != nil {
		return err
	}

	logging.SetDebug(cfg.Debug)
	if cfg.LoggingToFile {
		if err = stateBox.EnsureDir(stateBox.LogsDir()); err != nil {
			return err
		}
	}
	if err = logging.ConfigureLogOutput(stateBox.LogsDir(), cfg.LoggingToFile, cfg.LogsMaxTotalSizeMB); err != nil {
		return err
	}
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := footer.NewCatalog()
	if err != nil {
		return err
	}

	optionStore, err := store.Open(ctx, resolveStorePath(stateBox, cfg.Store))
	if err != nil {
		return err
	}
	defer func() {
		if errClose := optionStore.Close(); errClose != nil {
			log.Warnf("failed to close option store: %v", errClose)
		}
	}()

	if printFooter {
		return writeFooter(ctx, os.Stdout, cfg.Footer, catalog, optionStore)
	}

	server, err := api.NewServer(cfg, optionStore, catalog)
	if err != nil {
		return err
	}

	if _, errStat := os.Stat(configPath); errStat == nil {
		w, errWatch := watcher.NewWatcher(configPath, func(next *config.Config) {
			logging.SetDebug(next.Debug)
		})
		if errWatch != nil {
			return errWatch
		}
		w.SetConfig(cfg)
		w.SetFooterReloadCallback(func(f *config.FooterConfig) {
			if errUpdate := server.UpdateFooter(*f); errUpdate != nil {
				log.Errorf("failed to apply footer settings: %v", errUpdate)
			}
		})
		if errStart := w.Start(ctx); errStart != nil {
			log.Warnf("config hot reload disabled: %v", errStart)
		} else {
			defer func() { _ = w.Stop() }()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	if openBrowser {
		go func() {
			time.Sleep(300 * time.Millisecond)
			url := fmt.Sprintf("http://localhost:%d/footer", cfg.Port)
			if errOpen := open.Run(url); errOpen != nil {
				log.Warnf("failed to open browser at %s: %v", url, errOpen)
			}
		}()
	}

	select {
	case err = <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Stop(shutdownCtx)
}

// versionLine formats the -version output.
func versionLine(info buildinfo.Info) string {
	return fmt.Sprintf("msgpush %s (commit %s, built %s)", info.Version, info.Commit, info.BuildDate)
}

// writeFooter renders the footer fragment followed by a newline.
func writeFooter(ctx context.Context, w io.Writer, fc config.FooterConfig, catalog *footer.Catalog, reader store.OptionReader) error {
	policy, err := footer.PolicyFor(fc.Policy)
	if err != nil {
		return err
	}
	view := &footer.View{
		Reader:  reader,
		Label:   catalog.LabelFor(fc),
		Version: buildinfo.Version,
		Policy:  policy,
	}
	if err = view.Render(ctx, w); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// resolveStorePath anchors relative file-backed DSNs in the state directory.
// Other drivers and file: URIs are returned unchanged.
func resolveStorePath(sb *util.StateBox, sc config.StoreConfig) config.StoreConfig {
	switch sc.Driver {
	case config.DriverSQLite, config.DriverJSONFile:
		if sc.DSN != "" && !strings.HasPrefix(sc.DSN, "file:") {
			sc.DSN = sb.ResolvePath(sc.DSN)
		}
	}
	return sc
}
