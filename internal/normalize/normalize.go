// Package normalize strips boilerplate and garbage lines out of text
// extracted from maintenance documentation.
package normalize

import (
	"regexp"
	"strings"
)

// Lines matching any of these patterns carry no useful content and are
// dropped entirely. Order matters only for readability; all patterns are
// checked until one matches.
var garbagePatterns = []*regexp.Regexp{
	// General garbage.
	regexp.MustCompile(`(?i)^(\d+\s*)*$`),
	regexp.MustCompile(`(?i)^.$`),

	// Commonly occurring document boilerplate.
	regexp.MustCompile(`(?i)^Section$`),
	regexp.MustCompile(`(?i)^Issue Date:$`),
	regexp.MustCompile(`(?i)^Dated\s*:.*$`),
	regexp.MustCompile(`(?i)^Change\(s\):$`),
	regexp.MustCompile(`(?i)^Issue:?$`),
	regexp.MustCompile(`(?i)^Issued by:?.*$`),
	regexp.MustCompile(`(?i)^(Page:\s*)?\d+\s+of\s+\d+.*$`),
	regexp.MustCompile(`(?i)^.*Table of Contents.*$`),
	regexp.MustCompile(`(?i)^.*(\.\s*){4,}.*$`),
}

// Legal boilerplate phrases that occur inline within otherwise useful text.
// These are cut out up to their terminating period rather than rejecting the
// whole line.
var strippedPhrases = []*regexp.Regexp{
	regexp.MustCompile(`This\s*document\s*is\s*controlled\s*while\s*it\s*remains[^.]*?\.`),
	regexp.MustCompile(`Once\s*this\s*no\s*longer\s*applies[^.]*\.`),
}

// Line trims and filters a single extracted line. The second return value is
// false when the line is boilerplate or empty and should be discarded.
func Line(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	for _, p := range garbagePatterns {
		if p.MatchString(text) {
			return "", false
		}
	}
	for _, p := range strippedPhrases {
		text = p.ReplaceAllString(text, "")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	return text, true
}
