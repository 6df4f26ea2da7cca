package utils

import (
	"crypto/rand"
	"regexp"
	"strings"
	"unicode/utf8"
)

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// RandomString returns n random alphanumeric characters from crypto/rand.
func RandomString(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("utils: crypto/rand unavailable: " + err.Error())
	}
	for i := range b {
		b[i] = alphanumeric[int(b[i])%len(alphanumeric)]
	}
	return string(b)
}

// ValidUsername reports whether name is 2-30 characters of letters, digits or underscore.
func ValidUsername(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= 2 && n <= 30 && usernamePattern.MatchString(name)
}

// ValidPassword requires at least 6 characters.
func ValidPassword(password string) bool {
	return utf8.RuneCountInString(password) >= 6
}

// ValidEmail does a shallow shape check; delivery is verified by activation.
func ValidEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 1 || at == len(email)-1 {
		return false
	}
	return strings.Contains(email[at+1:], ".") && !strings.ContainsAny(email, " \t\n")
}

// EmailDomain returns the part after '@', or "" for malformed input.
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	return email[at+1:]
}
