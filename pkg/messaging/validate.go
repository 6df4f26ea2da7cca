package messaging

import (
	"strings"
	"unicode/utf8"
)

// MaxTextLength is the longest accepted message body, in characters.
const MaxTextLength = 10000

// ValidateText checks that a message body is present and within MaxTextLength.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return invalid("text", "text is required")
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return invalid("text", "text may not be greater than 10000 characters")
	}
	return nil
}
