// Package filter decides whether a normalized article belongs on the page.
package filter

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/text"
)

// Reason explains a rejection.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonBlockedDomain  Reason = "blocked_domain"
	ReasonDisallowedTerm Reason = "disallowed_term"
	ReasonOffTopic       Reason = "off_topic"
)

// Rules is the configuration the filter is built from.
type Rules struct {
	BlockedDomains  []string
	DisallowedTerms []string
	DomainTerms     []string
}

// Decision is the result of Check. Match holds the domain or term that
// triggered a rejection.
type Decision struct {
	Accepted bool
	Reason   Reason
	Match    string
}

type Filter struct {
	blocked    []string
	disallowed *text.Matcher
	domain     *text.Matcher
	log        *slog.Logger
}

func New(rules Rules, log *slog.Logger) *Filter {
	blocked := make([]string, 0, len(rules.BlockedDomains))
	for _, d := range rules.BlockedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		d = strings.TrimPrefix(d, "www.")
		if d != "" {
			blocked = append(blocked, d)
		}
	}
	return &Filter{
		blocked:    blocked,
		disallowed: text.NewMatcher(rules.DisallowedTerms),
		domain:     text.NewMatcher(rules.DomainTerms),
		log:        logger.OrDefault(log),
	}
}

// Check runs the blocklist, disallowed-term and domain-indicator checks in
// that order. Any hit rejects; the first hit is reported.
func (f *Filter) Check(title, body, link string) Decision {
	d := f.check(title, body, link)
	if !d.Accepted {
		f.log.Debug("article rejected", "reason", d.Reason, "match", d.Match, "title", title, "url", link)
	}
	return d
}

func (f *Filter) check(title, body, link string) Decision {
	if domain, ok := f.blockedHost(link); ok {
		return Decision{Reason: ReasonBlockedDomain, Match: domain}
	}
	if term, ok := f.disallowed.Match(title + " " + body); ok {
		return Decision{Reason: ReasonDisallowedTerm, Match: term}
	}
	if _, ok := f.domain.Match(title); !ok {
		return Decision{Reason: ReasonOffTopic}
	}
	return Decision{Accepted: true}
}

func (f *Filter) blockedHost(link string) (string, bool) {
	if len(f.blocked) == 0 || link == "" {
		return "", false
	}
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Hostname() == "" {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, d := range f.blocked {
		if host == d || strings.HasSuffix(host, "."+d) {
			return d, true
		}
	}
	return "", false
}
