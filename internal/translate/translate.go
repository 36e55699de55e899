// Package translate localizes article text into the page language. A
// Localizer walks a chain of external strategies and falls back to a
// local dictionary, so localization itself never fails.
package translate

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// Strategy is one way of turning text into the target language.
type Strategy interface {
	Name() string
	Localize(ctx context.Context, text string) (string, error)
}

var ErrEmptyResult = errors.New("translate: empty result")

var (
	codeFence   = regexp.MustCompile("^```[a-zA-Z]*\\s*|\\s*```$")
	bracketNote = regexp.MustCompile(`(?i)[\[(（【]\s*(?:note|注|注意|备注)\s*[:：][^\])）】]*[\])）】]`)
	noteLine    = regexp.MustCompile(`(?im)^\s*(?:note|注|注意|备注|说明)\s*[:：].*$`)
	labelPrefix = regexp.MustCompile(`(?i)^\s*(?:translation|译文|翻译|中文)\s*[:：]\s*`)
)

var quotePairs = [][2]string{{`"`, `"`}, {"“", "”"}, {"「", "」"}, {"'", "'"}}

// SanitizeAIText strips what chat models like to add around a translation:
// code fences, "Note:" disclaimers, a leading "译文：" label and wrapping
// quotes. Whitespace is collapsed.
func SanitizeAIText(s string) string {
	s = strings.TrimSpace(s)
	s = codeFence.ReplaceAllString(s, "")
	s = bracketNote.ReplaceAllString(s, "")
	s = noteLine.ReplaceAllString(s, "")
	s = labelPrefix.ReplaceAllString(strings.TrimSpace(s), "")
	s = strings.Join(strings.Fields(s), " ")
	for _, q := range quotePairs {
		if len(s) > len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
			s = strings.TrimSpace(s[len(q[0]) : len(s)-len(q[1])])
			break
		}
	}
	return s
}

// LanguageName maps a language tag to the English name used in prompts.
func LanguageName(tag string) string {
	switch strings.ToLower(tag) {
	case "zh", "zh-cn", "zh-hans":
		return "Simplified Chinese"
	case "zh-tw", "zh-hant":
		return "Traditional Chinese"
	case "ja":
		return "Japanese"
	case "ko":
		return "Korean"
	case "uk":
		return "Ukrainian"
	case "ru":
		return "Russian"
	case "de":
		return "German"
	case "fr":
		return "French"
	case "es":
		return "Spanish"
	case "en":
		return "English"
	}
	return tag
}
