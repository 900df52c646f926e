// Copyright 2026 The msgpush Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package logging

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const logDirCleanInterval = time.Minute

var cleanerStop chan struct{}

// configureLogDirCleanerLocked restarts the cleaner goroutine. Caller holds writerMu.
func configureLogDirCleanerLocked(logDir string, maxTotalSizeMB int, protectedPath string) {
	stopLogDirCleanerLocked()
	if maxTotalSizeMB <= 0 {
		return
	}
	maxBytes := int64(maxTotalSizeMB) * 1024 * 1024
	stop := make(chan struct{})
	cleanerStop = stop

	go func() {
		ticker := time.NewTicker(logDirCleanInterval)
		defer ticker.Stop()
		for {
			if removed, err := enforceLogDirSizeLimit(logDir, maxBytes, protectedPath); err != nil {
				log.Debugf("log dir cleaner: %v", err)
			} else if removed > 0 {
				log.Infof("log dir cleaner removed %d old log file(s)", removed)
			}
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
		}
	}()
}

func stopLogDirCleanerLocked() {
	if cleanerStop != nil {
		close(cleanerStop)
		cleanerStop = nil
	}
}

// enforceLogDirSizeLimit deletes the oldest *.log files in logDir until their total size
// is at most maxBytes. protectedPath is never removed.
func enforceLogDirSizeLimit(logDir string, maxBytes int64, protectedPath string) (int, error) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return 0, err
	}

	type logFile struct {
		path    string
		size    int64
		modTime time.Time
	}
	var (
		files []logFile
		total int64
	)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".log") {
			continue
		}
		info, errInfo := e.Info()
		if errInfo != nil {
			continue
		}
		files = append(files, logFile{
			path:    filepath.Join(logDir, e.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
		total += info.Size()
	}
	if total <= maxBytes {
		return 0, nil
	}

	sort.Slice(files, func(i, j int) bool { return files[i].modTime.Before(files[j].modTime) })

	removed := 0
	for _, f := range files {
		if total <= maxBytes {
			break
		}
		if protectedPath != "" && filepath.Clean(f.path) == filepath.Clean(protectedPath) {
			continue
		}
		if errRemove := os.Remove(f.path); errRemove != nil {
			continue
		}
		total -= f.size
		removed++
	}
	return removed, nil
}
