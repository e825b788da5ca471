// Package privacy cleans free text a child enters before it is stored.
package privacy

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxTextRunes caps the length of any stored free-text answer or note.
const MaxTextRunes = 2000

var (
	// privateTagRegex matches <private>...</private> tags
	privateTagRegex = regexp.MustCompile(`(?s)<private>.*?</private>`)

	// spaceRegex matches runs of whitespace
	spaceRegex = regexp.MustCompile(`\s+`)
)

// StripPrivateTags removes all <private>...</private> content from text.
func StripPrivateTags(text string) string {
	return privateTagRegex.ReplaceAllString(text, "")
}

// StripControl drops control characters other than whitespace.
func StripControl(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
}

// Truncate shortens text to at most max runes.
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}

// IsEntirelyPrivate checks if the text is entirely within <private> tags.
func IsEntirelyPrivate(text string) bool {
	stripped := StripPrivateTags(text)
	return strings.TrimSpace(stripped) == ""
}

// Clean performs full privacy cleaning on text.
// This is the main function to use before storing any free text.
func Clean(text string) string {
	text = StripPrivateTags(text)
	text = StripControl(text)
	text = spaceRegex.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	return strings.TrimSpace(Truncate(text, MaxTextRunes))
}
