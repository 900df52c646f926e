// Copyright 2026 The msgpush Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package footer resolves and renders the site footer.
//
// The footer has two states. When the option store holds a non-empty
// footer_html value, that markup is shown (Custom). Otherwise a single text
// line made of the service label and the build version is shown (Default).
// The state is recomputed from the store on every call; nothing is cached.
package footer

import (
	"context"
	"html/template"

	log "github.com/sirupsen/logrus"

	"github.com/msgpush/pusher/internal/constant"
	"github.com/msgpush/pusher/internal/store"
)

// Mode is the footer state.
type Mode string

const (
	// ModeDefault renders the label and version.
	ModeDefault Mode = "default"
	// ModeCustom renders the stored markup.
	ModeCustom Mode = "custom"
)

// Footer is the resolved footer content for one render.
type Footer struct {
	Mode Mode          `json:"mode"`
	Text string        `json:"text,omitempty"`
	HTML template.HTML `json:"html,omitempty"`
}

// Custom reports whether f shows stored markup.
func (f Footer) Custom() bool {
	return f.Mode == ModeCustom
}

// DefaultText is the line shown when no custom footer is configured.
func DefaultText(label, version string) string {
	if version == "" {
		return label
	}
	return label + " " + version
}

// Resolve reads footer_html from reader and returns the footer to display.
// Stored markup is trusted and returned verbatim.
func Resolve(ctx context.Context, reader store.OptionReader, label, version string) Footer {
	return resolve(ctx, reader, label, version, Trusted)
}

func resolve(ctx context.Context, reader store.OptionReader, label, version string, policy Policy) Footer {
	def := Footer{Mode: ModeDefault, Text: DefaultText(label, version)}
	if reader == nil {
		return def
	}

	raw, ok, err := reader.Get(ctx, constant.FooterHTMLKey)
	if err != nil {
		log.WithField("key", constant.FooterHTMLKey).Warnf("footer option unavailable, using default: %v", err)
		return def
	}
	if !ok || raw == "" {
		return def
	}

	if policy == nil {
		policy = Trusted
	}
	markup := policy(raw)
	if markup == "" {
		return def
	}
	return Footer{Mode: ModeCustom, HTML: markup}
}
