// Copyright 2026 The msgpush Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package footer

import (
	"bytes"
	"context"
	"html/template"
	"io"

	"github.com/msgpush/pusher/internal/store"
)

var fragment = template.Must(template.New("footer").Parse(
	`<div class="ui vertical basic segment">` +
		`<div class="ui center aligned container">` +
		`{{if .Custom}}<div class="custom-footer">{{.HTML}}</div>` +
		`{{else}}<div class="custom-footer">{{.Text}}</div>{{end}}` +
		`</div></div>`))

// View binds a footer to its option store, label and version.
type View struct {
	Reader  store.OptionReader
	Label   string
	Version string
	// Policy defaults to Trusted when nil.
	Policy Policy
}

// Resolve re-reads the store and returns the footer to display.
func (v *View) Resolve(ctx context.Context) Footer {
	return resolve(ctx, v.Reader, v.Label, v.Version, v.Policy)
}

// Render writes the footer fragment to w.
func (v *View) Render(ctx context.Context, w io.Writer) error {
	return RenderFooter(w, v.Resolve(ctx))
}

// RenderFooter writes the fragment for an already resolved footer.
// Default text is escaped; custom markup is written unescaped.
func RenderFooter(w io.Writer, f Footer) error {
	return fragment.Execute(w, f)
}

// HTML renders the footer fragment into a string.
func (v *View) HTML(ctx context.Context) (template.HTML, error) {
	var buf bytes.Buffer
	if err := v.Render(ctx, &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
