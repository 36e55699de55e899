package text

import (
	"regexp"
	"strings"
)

// Matcher tests text against a fixed keyword list, case-insensitively.
// Keywords match as substrings. A keyword written as "word:ai" only matches
// "ai" between non-alphanumeric ASCII characters, so CJK neighbours still
// count as a boundary.
type Matcher struct {
	terms []matchTerm
}

type matchTerm struct {
	keyword string
	word    *regexp.Regexp
}

// WordPrefix marks a keyword that must match a whole word.
const WordPrefix = "word:"

// NewMatcher compiles keywords. Blank keywords are ignored.
func NewMatcher(keywords []string) *Matcher {
	m := &Matcher{}
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		t := matchTerm{keyword: k}
		if w, ok := strings.CutPrefix(k, WordPrefix); ok {
			w = strings.TrimSpace(w)
			if w == "" {
				continue
			}
			t.keyword = w
			t.word = regexp.MustCompile(`(^|[^a-z0-9_])` + regexp.QuoteMeta(w) + `($|[^a-z0-9_])`)
		}
		m.terms = append(m.terms, t)
	}
	return m
}

// Match reports the first keyword found in s.
func (m *Matcher) Match(s string) (string, bool) {
	if m == nil {
		return "", false
	}
	lower := strings.ToLower(s)
	for _, t := range m.terms {
		if t.word != nil {
			if t.word.MatchString(lower) {
				return t.keyword, true
			}
			continue
		}
		if strings.Contains(lower, t.keyword) {
			return t.keyword, true
		}
	}
	return "", false
}

// Empty reports whether the matcher has no keywords.
func (m *Matcher) Empty() bool {
	return m == nil || len(m.terms) == 0
}
