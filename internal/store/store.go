// Copyright 2026 The msgpush Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package store provides read-only access to the service's key/value options.
// Every backend reports a missing key as ok=false with a nil error; errors are
// reserved for the backend itself being unreachable or malformed.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/msgpush/pusher/internal/config"
)

// ErrUnknownDriver is returned by Open for an unsupported store driver.
var ErrUnknownDriver = errors.New("store: unknown driver")

// OptionReader looks up a single option value.
type OptionReader interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
}

// Store is an OptionReader that holds resources until closed.
type Store interface {
	OptionReader
	Close() error
}

// ReaderFunc adapts a function to the OptionReader interface.
type ReaderFunc func(ctx context.Context, key string) (string, bool, error)

// Get calls f(ctx, key).
func (f ReaderFunc) Get(ctx context.Context, key string) (string, bool, error) {
	return f(ctx, key)
}

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		return NewMemoryStore(nil), nil
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.DSN, cfg.Table)
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN, cfg.Table)
	case config.DriverJSONFile:
		return NewJSONFileStore(cfg.DSN), nil
	case config.DriverS3:
		return NewObjectStore(cfg.S3)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
