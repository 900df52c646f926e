// Copyright 2026 The msgpush Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msgpush/pusher/internal/config"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.StoreConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
	assert.NoError(t, s.Close())

	s, err = Open(ctx, config.StoreConfig{Driver: config.DriverJSONFile, DSN: "/nonexistent/options.json"})
	require.NoError(t, err)
	assert.IsType(t, &JSONFileStore{}, s)

	_, err = Open(ctx, config.StoreConfig{Driver: "redis"})
	assert.True(t, errors.Is(err, ErrUnknownDriver))
}

func TestMemoryStore_CopiesSeed(t *testing.T) {
	seed := map[string]string{"footer_html": "a"}
	s := NewMemoryStore(seed)
	seed["footer_html"] = "b"

	v, ok, err := s.Get(context.Background(), "footer_html")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	_, ok, _ = s.Get(context.Background(), "missing")
	assert.False(t, ok)
}

func TestReaderFunc(t *testing.T) {
	var r OptionReader = ReaderFunc(func(_ context.Context, key string) (string, bool, error) {
		return "value-of-" + key, true, nil
	})
	v, ok, err := r.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "value-of-k", v)
}
