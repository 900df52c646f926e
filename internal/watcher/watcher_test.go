// Copyright 2026 The msgpush Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msgpush/pusher/internal/config"
)

func startWatcher(t *testing.T, configPath string, onReload func(*config.Config)) *Watcher {
	t.Helper()
	w, err := NewWatcher(configPath, onReload)
	require.NoError(t, err)

	initial, err := config.LoadConfig(configPath)
	require.NoError(t, err)
	w.SetConfig(initial)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() {
		if err := w.Stop(); err != nil {
			t.Logf("warning: failed to stop watcher: %v", err)
		}
	})
	return w
}

// TestFooterConfigHotReload checks that footer changes reach both callbacks.
func TestFooterConfigHotReload(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("port: 8080\nfooter:\n  language: zh-CN\n"), 0o644))

	var reloads int32
	var lastFooter atomic.Value
	w := startWatcher(t, configPath, func(*config.Config) { atomic.AddInt32(&reloads, 1) })
	w.SetFooterReloadCallback(func(f *config.FooterConfig) { lastFooter.Store(*f) })

	// Wait for watcher to be ready
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, os.WriteFile(configPath, []byte("port: 8080\nfooter:\n  label: Pusher\n  policy: sanitize\n"), 0o644))

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&reloads) > 0 && lastFooter.Load() != nil
	}, 3*time.Second, 50*time.Millisecond)

	f := lastFooter.Load().(config.FooterConfig)
	assert.Equal(t, "Pusher", f.Label)
	assert.Equal(t, config.PolicySanitize, f.Policy)
}

// TestUnchangedFooterSkipsFooterCallback checks the footer callback only fires on footer changes.
func TestUnchangedFooterSkipsFooterCallback(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("port: 8080\n"), 0o644))

	var reloads, footerReloads int32
	w := startWatcher(t, configPath, func(*config.Config) { atomic.AddInt32(&reloads, 1) })
	w.SetFooterReloadCallback(func(*config.FooterConfig) { atomic.AddInt32(&footerReloads, 1) })
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, os.WriteFile(configPath, []byte("port: 9090\n"), 0o644))

	require.Eventually(t, func() bool { return atomic.LoadInt32(&reloads) > 0 }, 3*time.Second, 50*time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&footerReloads))
}

// TestInvalidConfigKeepsPrevious checks that a broken file does not trigger callbacks.
func TestInvalidConfigKeepsPrevious(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("port: 8080\n"), 0o644))

	var reloads int32
	startWatcher(t, configPath, func(*config.Config) { atomic.AddInt32(&reloads, 1) })
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, os.WriteFile(configPath, []byte("footer: [broken"), 0o644))
	time.Sleep(500 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&reloads))
}

func TestNewWatcher_EmptyPath(t *testing.T) {
	_, err := NewWatcher("", nil)
	assert.Error(t, err)
}

// TestStoreChangeWarnsRestart checks that startup-only settings are reported on reload.
func TestStoreChangeWarnsRestart(t *testing.T) {
	hook := logtest.NewGlobal()
	t.Cleanup(func() { log.StandardLogger().ReplaceHooks(make(log.LevelHooks)) })

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("store:\n  driver: sqlite\n  dsn: a.db\n"), 0o644))

	var reloads int32
	startWatcher(t, configPath, func(*config.Config) { atomic.AddInt32(&reloads, 1) })
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, os.WriteFile(configPath, []byte("store:\n  driver: sqlite\n  dsn: b.db\n"), 0o644))

	require.Eventually(t, func() bool { return atomic.LoadInt32(&reloads) > 0 }, 3*time.Second, 50*time.Millisecond)
	require.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Level == log.WarnLevel && e.Data["sections"] == "store" {
				return true
			}
		}
		return false
	}, time.Second, 20*time.Millisecond)
}

func TestRestartRequired(t *testing.T) {
	base := config.Default()
	assert.Nil(t, restartRequired(nil, base))
	assert.Empty(t, restartRequired(base, config.Default()))

	next := config.Default()
	next.Footer.Label = "Pusher"
	next.Debug = true
	assert.Empty(t, restartRequired(base, next), "footer and debug apply live")

	next = config.Default()
	next.Port = base.Port + 1
	next.LoggingToFile = !base.LoggingToFile
	next.Store.DSN = "other.db"
	assert.Equal(t, []string{"listen", "logging", "store"}, restartRequired(base, next))
}
