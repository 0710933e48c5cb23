package utils

import (
	"html"
	"strings"
	"unicode"
)

// SanitizeID normalises an identifier taken from a path or topic segment:
// trimmed, upper-cased, control characters removed.
func SanitizeID(input string) string {
	return strings.ToUpper(removeControlChars(strings.TrimSpace(input)))
}

// SanitizeText trims and HTML-escapes free text such as zone labels before it
// is stored and echoed to dashboards.
func SanitizeText(input string) string {
	return html.EscapeString(removeControlChars(strings.TrimSpace(input)))
}

func removeControlChars(input string) string {
	var result strings.Builder
	for _, r := range input {
		if unicode.IsPrint(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}
