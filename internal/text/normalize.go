// Package text cleans feed text for display: markup removal, entity
// decoding, whitespace collapsing and bounded truncation.
package text

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// Ellipsis is appended to truncated text.
const Ellipsis = "..."

const (
	DefaultSummaryPlaceholder = "暂无摘要"
	DefaultTitlePlaceholder   = "无标题"
)

// block-level elements get surrounding spaces so adjacent paragraphs
// do not run into each other after the tags are dropped
const blockSelector = "p, div, br, li, ul, ol, h1, h2, h3, h4, h5, h6, tr, td, th, blockquote, section, article, figure, figcaption, hr"

var tagPattern = regexp.MustCompile(`<[a-zA-Z/!?][^<>]*>`)

// Clean removes markup, decodes entities and collapses whitespace.
func Clean(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	out := extractText(s)

	// feeds often double-encode (&amp;lt;), decode until stable
	for i := 0; i < 4; i++ {
		decoded := html.UnescapeString(out)
		if decoded == out {
			break
		}
		out = decoded
	}

	// decoding may reveal markup that was escaped in the source
	out = tagPattern.ReplaceAllString(out, " ")
	out = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>':
			return ' '
		case ' ':
			return ' '
		}
		return r
	}, out)

	return strings.Join(strings.FieldsFunc(out, unicode.IsSpace), " ")
}

func extractText(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(escapeStrayLT(s)))
	if err != nil {
		return tagPattern.ReplaceAllString(s, " ")
	}
	doc.Find("script, style, noscript").Remove()
	doc.Find(blockSelector).Each(func(_ int, sel *goquery.Selection) {
		sel.BeforeHtml(" ")
		sel.AfterHtml(" ")
	})
	return doc.Text()
}

// escapeStrayLT escapes every '<' that does not open a closed tag-like run,
// so the HTML parser keeps "a<b then" as text instead of swallowing the
// rest of the input as an unterminated tag.
func escapeStrayLT(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		if s[i] != '<' {
			b.WriteByte(s[i])
			continue
		}
		if opensTag(s[i+1:]) {
			b.WriteByte('<')
		} else {
			b.WriteString("&lt;")
		}
	}
	return b.String()
}

// opensTag reports whether rest (the text after a '<') starts like a tag
// name or comment and reaches a '>' before any other '<'.
func opensTag(rest string) bool {
	if rest == "" {
		return false
	}
	switch c := rest[0]; {
	case c == '/' || c == '!' || c == '?':
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
	default:
		return false
	}
	end := strings.IndexAny(rest, "<>")
	return end >= 0 && rest[end] == '>'
}

// Truncate cuts s to at most max runes and appends Ellipsis when it had to
// cut. The result is always a prefix of s followed by the marker. A max
// smaller than the marker is raised to the marker length.
func Truncate(s string, max int) string {
	if max < len(Ellipsis) {
		max = len(Ellipsis)
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	cut := strings.TrimRightFunc(string(runes[:max]), unicode.IsSpace)
	return cut + Ellipsis
}

// Normalize cleans and truncates s. Empty results become placeholder.
func Normalize(s string, max int, placeholder string) string {
	cleaned := Clean(s)
	if cleaned == "" {
		return placeholder
	}
	return Truncate(cleaned, max)
}
