// Package email holds helpers for addressing students in outbound mail.
package email

import (
	"net/mail"
	"strings"
	"unicode"
)

// GreetingName returns the name used in a salutation. The stored display
// name wins; otherwise a name is derived from the address local part.
func GreetingName(displayName, address string) string {
	if name := strings.TrimSpace(displayName); name != "" {
		return name
	}
	first, last := DeriveNameFromEmail(address)
	if last == "" {
		return first
	}
	return first + " " + last
}

// DeriveNameFromEmail splits "jane.doe@uni.edu" into ("Jane", "Doe").
// A single-part local name yields an empty last name.
func DeriveNameFromEmail(address string) (string, string) {
	localPart := address
	if at := strings.IndexByte(address, '@'); at > 0 {
		localPart = address[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+' || unicode.IsDigit(r)
	})

	if len(parts) == 0 {
		return "Student", ""
	}

	first := capitalize(parts[0])
	last := ""
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}
	return first, last
}

// Valid reports whether address parses as a single RFC 5322 address.
func Valid(address string) bool {
	parsed, err := mail.ParseAddress(address)
	return err == nil && parsed.Address == address
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
