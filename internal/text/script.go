package text

import (
	"unicode"
)

// ScriptTable returns the Unicode range table for a script name such as
// "Han" or "Cyrillic". Unknown names return nil.
func ScriptTable(name string) *unicode.RangeTable {
	return unicode.Scripts[name]
}

// ScriptRatio is the fraction of letters in s that belong to script.
// Digits, spaces and punctuation are not counted. Text without letters
// has ratio 0.
func ScriptRatio(s string, script *unicode.RangeTable) float64 {
	if script == nil {
		return 0
	}
	letters, inScript := 0, 0
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(script, r) {
			inScript++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(inScript) / float64(letters)
}
