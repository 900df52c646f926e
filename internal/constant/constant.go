// Copyright 2026 The msgpush Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package constant defines option keys and display names shared by the
// footer, the option stores and the HTTP API.
package constant

const (
	// SystemName is the display name of the message push service.
	SystemName = "消息推送服务"

	// FooterHTMLKey is the option key holding the custom footer markup.
	FooterHTMLKey = "footer_html"

	// OptionsTable is the default name of the SQL table holding options.
	OptionsTable = "options"

	// MaxOptionValueSize caps how many bytes of a single option value are read
	// from object or file backed stores (1MB).
	MaxOptionValueSize = 1 * 1024 * 1024
)
