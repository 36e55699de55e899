package news

import (
	"net/url"
	"sort"
	"strings"

	"github.com/deusflow/ainews/internal/models"
	"github.com/deusflow/ainews/internal/text"
)

// Normalize cleans title and body and truncates them. Empty fields get
// their placeholders; URL, source and date are carried over.
func Normalize(raw models.RawArticle, titleMax, bodyMax int, titlePlaceholder, bodyPlaceholder string) models.NormalizedArticle {
	return models.NormalizedArticle{
		Title:       text.Normalize(raw.Title, titleMax, titlePlaceholder),
		Body:        text.Normalize(raw.Body, bodyMax, bodyPlaceholder),
		URL:         strings.TrimSpace(raw.URL),
		SourceName:  strings.TrimSpace(raw.SourceName),
		PublishedAt: raw.PublishedAt,
	}
}

// dedupeKey folds the differences that do not change which page a link
// points at: scheme, "www.", host case, trailing slash, fragment and
// tracking parameters.
func dedupeKey(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return strings.ToLower(link)
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	path := strings.TrimRight(u.EscapedPath(), "/")

	q := u.Query()
	keys := make([]string, 0, len(q))
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") || lk == "ref" || lk == "fbclid" || lk == "gclid" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(host)
	b.WriteString(path)
	for i, k := range keys {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.Join(q[k], ","))
	}
	return b.String()
}
