package translate

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

var linguaLanguages = map[string]lingua.Language{
	"en": lingua.English,
	"de": lingua.German,
	"fr": lingua.French,
	"es": lingua.Spanish,
	"it": lingua.Italian,
	"pt": lingua.Portuguese,
	"nl": lingua.Dutch,
	"ru": lingua.Russian,
	"ja": lingua.Japanese,
	"ko": lingua.Korean,
	"zh": lingua.Chinese,
}

// Detector guesses the source language so translation requests carry an
// explicit "sl" instead of "auto".
type Detector struct {
	detector lingua.LanguageDetector
	codes    map[lingua.Language]string
}

// NewDetector restricts detection to the given ISO 639-1 codes. It returns
// nil when fewer than two of them are supported; a nil Detector always
// answers "auto".
func NewDetector(codes []string) *Detector {
	d := &Detector{codes: make(map[lingua.Language]string)}
	var langs []lingua.Language
	for _, c := range codes {
		c = strings.ToLower(strings.TrimSpace(c))
		lang, ok := linguaLanguages[c]
		if !ok {
			continue
		}
		if _, dup := d.codes[lang]; dup {
			continue
		}
		d.codes[lang] = c
		langs = append(langs, lang)
	}
	if len(langs) < 2 {
		return nil
	}
	d.detector = lingua.NewLanguageDetectorBuilder().
		FromLanguages(langs...).
		Build()
	return d
}

// Detect returns the ISO 639-1 code of s, or "auto".
func (d *Detector) Detect(s string) string {
	if d == nil || strings.TrimSpace(s) == "" {
		return "auto"
	}
	lang, ok := d.detector.DetectLanguageOf(s)
	if !ok {
		return "auto"
	}
	if code, ok := d.codes[lang]; ok {
		return code
	}
	return "auto"
}
