package translate

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Dictionary substitutes known terms with their target-language
// equivalents. Matching is case-insensitive, whole-word for terms that
// start or end with a letter or digit, and longest term first.
type Dictionary struct {
	re    *regexp.Regexp
	terms map[string]string
}

func NewDictionary(entries map[string]string) *Dictionary {
	d := &Dictionary{terms: make(map[string]string, len(entries))}
	keys := make([]string, 0, len(entries))
	for k, v := range entries {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || v == "" {
			continue
		}
		if _, dup := d.terms[k]; !dup {
			keys = append(keys, k)
		}
		d.terms[k] = v
	}
	if len(keys) == 0 {
		return d
	}

	// Go's alternation prefers the leftmost branch, so longer terms go first.
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	alts := make([]string, len(keys))
	for i, k := range keys {
		alts[i] = wordBounded(k)
	}
	d.re = regexp.MustCompile(`(?i)(?:` + strings.Join(alts, "|") + `)`)
	return d
}

func wordBounded(term string) string {
	p := regexp.QuoteMeta(term)
	first, _ := utf8.DecodeRuneInString(term)
	last, _ := utf8.DecodeLastRuneInString(term)
	if isASCIIWord(first) {
		p = `\b` + p
	}
	if isASCIIWord(last) {
		p += `\b`
	}
	return p
}

func isASCIIWord(r rune) bool {
	return r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
}

func (d *Dictionary) Name() string { return "dictionary" }

// Localize never fails.
func (d *Dictionary) Localize(_ context.Context, text string) (string, error) {
	return d.Apply(text), nil
}

// Apply returns text with every known term replaced.
func (d *Dictionary) Apply(text string) string {
	if d == nil || d.re == nil {
		return text
	}
	return d.re.ReplaceAllStringFunc(text, func(m string) string {
		if v, ok := d.terms[strings.ToLower(m)]; ok {
			return v
		}
		return m
	})
}

// Len is the number of distinct terms.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.terms)
}
