// Copyright 2026 The msgpush Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/gjson"

	"github.com/msgpush/pusher/internal/constant"
)

// JSONFileStore reads options from a flat JSON object on disk, for example a
// snapshot of the web client's local storage:
//
//	{"footer_html": "<b>Custom</b>", "system_name": "消息推送服务"}
//
// The file is read on every lookup so edits are picked up immediately.
type JSONFileStore struct {
	path string
}

// NewJSONFileStore returns a store backed by the document at path.
func NewJSONFileStore(path string) *JSONFileStore {
	return &JSONFileStore{path: path}
}

// Get implements OptionReader. A missing file, missing key or JSON null counts as absent.
func (s *JSONFileStore) Get(_ context.Context, key string) (string, bool, error) {
	data, err := readLimited(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("store: read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return "", false, nil
	}
	if !gjson.ValidBytes(data) {
		return "", false, fmt.Errorf("store: %s is not valid JSON", s.path)
	}

	res := gjson.GetBytes(data, gjson.Escape(key))
	switch {
	case !res.Exists(), res.Type == gjson.Null:
		return "", false, nil
	case res.Type != gjson.String:
		return "", false, fmt.Errorf("store: option %q in %s is %s, want string", key, s.path, res.Type)
	}
	return res.Str, true, nil
}

// Close implements Store.
func (s *JSONFileStore) Close() error { return nil }

func readLimited(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, constant.MaxOptionValueSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > constant.MaxOptionValueSize {
		return nil, fmt.Errorf("document exceeds %d bytes", constant.MaxOptionValueSize)
	}
	return data, nil
}
