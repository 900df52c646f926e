// Copyright 2026 The msgpush Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package util provides utility functions for the msgpush server.
package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// StateBox manages the canonical state directory for msgpush.
// Log files and relative store paths (SQLite databases, JSON option
// documents) are resolved under its root.
type StateBox struct {
	rootPath string
	mu       sync.RWMutex
}

// NewStateBox creates a new StateBox instance.
// It reads MSGPUSH_STATE_DIR from the environment and defaults to ~/.msgpush.
func NewStateBox() (*StateBox, error) {
	stateDir := os.Getenv("MSGPUSH_STATE_DIR")
	if stateDir == "" {
		stateDir = "~/.msgpush"
	}

	resolvedPath, err := ExpandPath(stateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve state directory: %w", err)
	}
	return &StateBox{rootPath: resolvedPath}, nil
}

// ExpandPath expands a leading tilde and returns an absolute, cleaned path.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}

// RootPath returns the resolved State Box root directory.
func (sb *StateBox) RootPath() string {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.rootPath
}

// LogsDir returns the path to the logs subdirectory.
func (sb *StateBox) LogsDir() string {
	return filepath.Join(sb.RootPath(), "logs")
}

// ResolvePath joins a relative path with the State Box root.
// Absolute and tilde paths are returned expanded and cleaned.
func (sb *StateBox) ResolvePath(relativePath string) string {
	if relativePath == "" {
		return sb.RootPath()
	}

	if strings.HasPrefix(relativePath, "~") || filepath.IsAbs(relativePath) {
		cleaned, err := ExpandPath(relativePath)
		if err != nil {
			return filepath.Clean(relativePath)
		}
		return cleaned
	}

	return filepath.Join(sb.RootPath(), relativePath)
}

// EnsureDir creates a directory with 0700 permissions if it doesn't exist.
func (sb *StateBox) EnsureDir(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("path exists but is not a directory: %s", path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat directory %s: %w", path, err)
	}
	if err := os.MkdirAll(path, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}
