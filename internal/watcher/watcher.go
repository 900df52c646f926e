// Copyright 2026 The msgpush Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package watcher hot-reloads the YAML configuration file.
package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/msgpush/pusher/internal/config"
)

const reloadDebounce = 100 * time.Millisecond

// Watcher reloads the config file whenever it changes on disk.
type Watcher struct {
	configPath string
	onReload   func(*config.Config)

	mu             sync.Mutex
	current        *config.Config
	footerCallback func(*config.FooterConfig)

	fsw  *fsnotify.Watcher
	stop chan struct{}
	done chan struct{}
}

// NewWatcher returns a watcher for configPath. onReload receives every
// successfully parsed configuration.
func NewWatcher(configPath string, onReload func(*config.Config)) (*Watcher, error) {
	if configPath == "" {
		return nil, errors.New("watcher: config path cannot be empty")
	}
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, err
	}
	return &Watcher{configPath: abs, onReload: onReload}, nil
}

// SetConfig records the configuration currently in effect.
func (w *Watcher) SetConfig(cfg *config.Config) {
	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()
}

// SetFooterReloadCallback registers a callback that only fires when the
// footer section changed.
func (w *Watcher) SetFooterReloadCallback(fn func(*config.FooterConfig)) {
	w.mu.Lock()
	w.footerCallback = fn
	w.mu.Unlock()
}

// Start begins watching. The parent directory is watched so editors that
// replace the file on save are handled.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err = fsw.Add(filepath.Dir(w.configPath)); err != nil {
		_ = fsw.Close()
		return err
	}
	w.fsw = fsw
	w.stop = make(chan struct{})
	w.done = make(chan struct{})

	go w.loop(ctx)
	log.Infof("watching config file %s", w.configPath)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.configPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Errorf("config watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := config.LoadConfig(w.configPath)
	if err != nil {
		log.Errorf("failed to reload config, keeping previous: %v", err)
		return
	}

	w.mu.Lock()
	prev := w.current
	w.current = cfg
	footerCallback := w.footerCallback
	w.mu.Unlock()

	log.Infof("config file %s reloaded", w.configPath)
	if changed := restartRequired(prev, cfg); len(changed) > 0 {
		log.WithField("sections", strings.Join(changed, ",")).Warn("config changes take effect after a restart")
	}
	if w.onReload != nil {
		w.onReload(cfg)
	}
	if footerCallback != nil && (prev == nil || prev.Footer != cfg.Footer) {
		footerCallback(&cfg.Footer)
	}
}

// restartRequired lists the changed settings that are only read at startup.
func restartRequired(prev, next *config.Config) []string {
	if prev == nil || next == nil {
		return nil
	}
	var changed []string
	if prev.Host != next.Host || prev.Port != next.Port {
		changed = append(changed, "listen")
	}
	if prev.LoggingToFile != next.LoggingToFile || prev.LogsMaxTotalSizeMB != next.LogsMaxTotalSizeMB {
		changed = append(changed, "logging")
	}
	if prev.Store != next.Store {
		changed = append(changed, "store")
	}
	return changed
}

// Stop ends watching and releases the fsnotify handle.
func (w *Watcher) Stop() error {
	if w.fsw == nil {
		return nil
	}
	select {
	case <-w.stop:
	default:
		close(w.stop)
	}
	<-w.done
	return w.fsw.Close()
}
