// Package classify assigns every accepted article to exactly one topic bucket.
package classify

import (
	"fmt"
	"strings"

	"github.com/deusflow/ainews/internal/text"
)

// Key identifies a bucket.
type Key string

const (
	BigModel   Key = "bigModel"
	Hardware   Key = "hardware"
	Global     Key = "global"
	Investment Key = "investment"
	Industry   Key = "industry"
	Product    Key = "product"
)

// AllKeys returns the built-in bucket keys in page order.
func AllKeys() []Key {
	return []Key{BigModel, Hardware, Global, Investment, Industry, Product}
}

// Rule is one bucket's keyword set.
type Rule struct {
	Key      Key
	Keywords []string
}

type compiledRule struct {
	key     Key
	matcher *text.Matcher
}

// Classifier tests rules in priority order; the first rule with a keyword
// hit wins, otherwise the fallback key is returned.
type Classifier struct {
	rules    []compiledRule
	fallback Key
}

// New builds a classifier. rules must be in priority order and fallback
// must be one of the rule keys.
func New(rules []Rule, fallback Key) (*Classifier, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("classify: no rules")
	}
	c := &Classifier{fallback: fallback}
	seen := make(map[Key]bool, len(rules))
	for _, r := range rules {
		if r.Key == "" {
			return nil, fmt.Errorf("classify: rule with empty key")
		}
		if seen[r.Key] {
			return nil, fmt.Errorf("classify: duplicate rule %q", r.Key)
		}
		seen[r.Key] = true
		c.rules = append(c.rules, compiledRule{key: r.Key, matcher: text.NewMatcher(r.Keywords)})
	}
	if !seen[fallback] {
		return nil, fmt.Errorf("classify: fallback %q is not a known bucket", fallback)
	}
	return c, nil
}

// Classify returns the bucket for an article. It is total: every input maps
// to exactly one known key.
func (c *Classifier) Classify(title, summary string) Key {
	key, _ := c.ClassifyWithMatch(title, summary)
	return key
}

// ClassifyWithMatch also returns the keyword that decided the bucket, empty
// when the fallback was used.
func (c *Classifier) ClassifyWithMatch(title, summary string) (Key, string) {
	combined := strings.TrimSpace(title + " " + summary)
	for _, r := range c.rules {
		if kw, ok := r.matcher.Match(combined); ok {
			return r.key, kw
		}
	}
	return c.fallback, ""
}

// Keys returns the rule keys in priority order.
func (c *Classifier) Keys() []Key {
	keys := make([]Key, len(c.rules))
	for i, r := range c.rules {
		keys[i] = r.key
	}
	return keys
}
