package utils

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// SanitizeString trims and HTML-escapes free text such as a search query.
func SanitizeString(input string) string {
	return html.EscapeString(strings.TrimSpace(input))
}

// SanitizeEmail lowercases an email and strips markup and control characters.
func SanitizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	email = htmlTagPattern.ReplaceAllString(email, "")
	return removeControlChars(email)
}

// SanitizeIdentifier trims device ids, usernames and bundle versions and
// drops anything that is not printable.
func SanitizeIdentifier(input string) string {
	return removeControlChars(strings.TrimSpace(htmlTagPattern.ReplaceAllString(input, "")))
}

// SanitizeIdentifiers applies SanitizeIdentifier to every element and
// drops the ones left empty.
func SanitizeIdentifiers(inputs []string) []string {
	out := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if s := SanitizeIdentifier(in); s != "" {
			out = append(out, s)
		}
	}
	return out
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
