package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxNameLength = 200

var (
	controlChars = regexp.MustCompile(`[\x00-\x1F\x7F]`)
	spaceRuns    = regexp.MustCompile(`\s+`)
)

// SanitizeName cleans a display name scraped from a page: whitespace runs
// collapse to one space, control characters are dropped and the result is cut
// to 200 runes.
func SanitizeName(name string) string {
	sanitized := spaceRuns.ReplaceAllString(name, " ")
	sanitized = controlChars.ReplaceAllString(sanitized, "")
	sanitized = strings.TrimSpace(sanitized)

	if utf8.RuneCountInString(sanitized) > maxNameLength {
		sanitized = strings.TrimSpace(string([]rune(sanitized)[:maxNameLength]))
	}
	return sanitized
}
