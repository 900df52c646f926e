// Copyright 2026 The msgpush Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package footer

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/msgpush/pusher/internal/config"
	"github.com/msgpush/pusher/internal/constant"
)

//go:embed locales/*.json
var localeFS embed.FS

const systemNameMessageID = "SystemName"

// Catalog holds the localized service labels.
type Catalog struct {
	bundle  *i18n.Bundle
	tags    []language.Tag
	matcher language.Matcher
}

// NewCatalog loads the embedded message files. Simplified Chinese is the
// fallback language.
func NewCatalog() (*Catalog, error) {
	defaultTag := language.MustParse(config.DefaultLanguage)
	bundle := i18n.NewBundle(defaultTag)
	files, err := fs.Glob(localeFS, "locales/*.json")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if _, err = bundle.LoadMessageFileFS(localeFS, f); err != nil {
			return nil, fmt.Errorf("footer: load %s: %w", f, err)
		}
	}
	tags := bundle.LanguageTags()
	return &Catalog{bundle: bundle, tags: tags, matcher: language.NewMatcher(tags)}, nil
}

// match returns the catalog language for lang. Languages without a
// confident match resolve to the default language.
func (c *Catalog) match(lang string) string {
	if lang == "" {
		return config.DefaultLanguage
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return config.DefaultLanguage
	}
	_, idx, conf := c.matcher.Match(tag)
	if conf == language.No || idx < 0 || idx >= len(c.tags) {
		return config.DefaultLanguage
	}
	return c.tags[idx].String()
}

// Label returns the service label for lang, falling back to the default language.
func (c *Catalog) Label(lang string) string {
	if c == nil || c.bundle == nil || c.matcher == nil {
		return constant.SystemName
	}
	loc := i18n.NewLocalizer(c.bundle, c.match(lang))
	label, err := loc.Localize(&i18n.LocalizeConfig{MessageID: systemNameMessageID})
	if err != nil || label == "" {
		log.Debugf("footer label for %q not found: %v", lang, err)
		return constant.SystemName
	}
	return label
}

// LabelFor returns the configured label override or the catalog entry for
// cfg.Language.
func (c *Catalog) LabelFor(cfg config.FooterConfig) string {
	if cfg.Label != "" {
		return cfg.Label
	}
	return c.Label(cfg.Language)
}
