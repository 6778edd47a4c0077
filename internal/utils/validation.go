package utils

import (
	"errors"
	"html"
	"regexp"
	"strings"
	"unicode"
)

var (
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueTooLong    = errors.New("value exceeds maximum length")
	ErrInvalidIDFormat = errors.New("id may only contain letters, digits, hyphens and underscores")
)

// MaxFieldLength caps free-text letter fields such as the subject and
// the sender. Matches the column width of the report table.
const MaxFieldLength = 255

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// SanitizeText prepares user-entered text for storage: HTML-escapes it
// and strips control characters except newlines and tabs. Letter
// subjects and revision notes are rendered verbatim in the dashboards,
// so escaping happens on the way in.
func SanitizeText(input string) string {
	escaped := html.EscapeString(input)

	var result strings.Builder
	for _, r := range escaped {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		result.WriteRune(r)
	}
	return strings.TrimSpace(result.String())
}

// ValidateField checks a required free-text field against emptiness and
// the column width.
func ValidateField(value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ErrEmptyValue
	}
	if len(trimmed) > MaxFieldLength {
		return ErrValueTooLong
	}
	return nil
}

// ValidateID checks a report, assignment or user id. Ids travel in URL
// paths and object storage keys, so only the unreserved characters are
// allowed.
func ValidateID(id string) error {
	if id == "" {
		return ErrEmptyValue
	}
	if len(id) > 64 {
		return ErrValueTooLong
	}
	if !idPattern.MatchString(id) {
		return ErrInvalidIDFormat
	}
	return nil
}
