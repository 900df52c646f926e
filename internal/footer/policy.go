// Copyright 2026 The msgpush Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package footer

import (
	"fmt"
	"html/template"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/msgpush/pusher/internal/config"
)

// Policy turns stored footer markup into the markup that is rendered.
type Policy func(raw string) template.HTML

// PolicyFor maps a configured policy name to its Policy.
func PolicyFor(name string) (Policy, error) {
	switch name {
	case config.PolicyTrusted, "":
		return Trusted, nil
	case config.PolicySanitize:
		return Sanitize, nil
	default:
		return nil, fmt.Errorf("footer: unknown policy %q", name)
	}
}

// Trusted emits the stored markup verbatim. Only administrators can set
// footer_html, so its content is treated as trusted.
func Trusted(raw string) template.HTML {
	return template.HTML(raw)
}

// droppedElements are removed together with everything inside them.
var droppedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Iframe:   true,
	atom.Frame:    true,
	atom.Frameset: true,
	atom.Object:   true,
	atom.Embed:    true,
	atom.Applet:   true,
	atom.Base:     true,
	atom.Meta:     true,
	atom.Link:     true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Math:     true,
	atom.Noscript: true,
	atom.Textarea: true,
	atom.Select:   true,
}

// allowedElements are re-serialized. Any other tag is removed but its text kept.
var allowedElements = map[atom.Atom]bool{
	atom.A: true, atom.Abbr: true, atom.B: true, atom.Blockquote: true, atom.Br: true,
	atom.Code: true, atom.Del: true, atom.Div: true, atom.Em: true, atom.Footer: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Hr: true, atom.I: true, atom.Img: true, atom.Ins: true, atom.Li: true,
	atom.Mark: true, atom.Nav: true, atom.Ol: true, atom.P: true, atom.Pre: true,
	atom.S: true, atom.Section: true, atom.Small: true, atom.Span: true, atom.Strong: true,
	atom.Sub: true, atom.Sup: true, atom.Table: true, atom.Tbody: true, atom.Td: true,
	atom.Th: true, atom.Thead: true, atom.Time: true, atom.Tr: true, atom.U: true, atom.Ul: true,
}

// globalAttributes are allowed on every allowed element, along with aria-*.
var globalAttributes = map[string]bool{
	"class": true,
	"id":    true,
	"title": true,
	"lang":  true,
	"dir":   true,
	"role":  true,
}

var elementAttributes = map[atom.Atom]map[string]bool{
	atom.A:    {"href": true, "target": true, "rel": true, "name": true},
	atom.Img:  {"src": true, "alt": true, "width": true, "height": true, "loading": true},
	atom.Td:   {"colspan": true, "rowspan": true},
	atom.Th:   {"colspan": true, "rowspan": true, "scope": true},
	atom.Ol:   {"start": true},
	atom.Time: {"datetime": true},
}

var urlAttributes = map[string]bool{
	"href": true,
	"src":  true,
}

// Sanitize keeps an allow-list of formatting elements and attributes.
// Script-like elements are dropped with their bodies, unknown elements lose
// their tags, comments are removed and javascript:, vbscript: or data: URLs
// are stripped.
func Sanitize(raw string) template.HTML {
	z := html.NewTokenizer(strings.NewReader(raw))
	var b strings.Builder
	skipDepth := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return template.HTML(b.String())
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if droppedElements[tok.DataAtom] {
				if tt == html.StartTagToken && !isVoid(tok.DataAtom) {
					skipDepth++
				}
				continue
			}
			if skipDepth > 0 || !allowedElements[tok.DataAtom] {
				continue
			}
			tok.Attr = filterAttributes(tok.DataAtom, tok.Attr)
			b.WriteString(tok.String())
		case html.EndTagToken:
			tok := z.Token()
			if droppedElements[tok.DataAtom] {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if skipDepth > 0 || !allowedElements[tok.DataAtom] {
				continue
			}
			b.WriteString(tok.String())
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			b.WriteString(html.EscapeString(string(z.Text())))
		}
		// Comments and doctypes are dropped.
	}
}

func isVoid(a atom.Atom) bool {
	switch a {
	case atom.Base, atom.Meta, atom.Link, atom.Embed:
		return true
	}
	return false
}

func filterAttributes(el atom.Atom, attrs []html.Attribute) []html.Attribute {
	kept := attrs[:0]
	for _, a := range attrs {
		if a.Namespace != "" {
			continue
		}
		key := strings.ToLower(a.Key)
		if !globalAttributes[key] && !elementAttributes[el][key] && !strings.HasPrefix(key, "aria-") {
			continue
		}
		if urlAttributes[key] && unsafeURL(a.Val) {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

func unsafeURL(v string) bool {
	cleaned := strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return -1
		}
		return r
	}, strings.ToLower(v))
	for _, scheme := range []string{"javascript:", "vbscript:", "data:"} {
		if strings.HasPrefix(cleaned, scheme) {
			return true
		}
	}
	return false
}
