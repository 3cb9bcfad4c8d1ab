package validator

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

// TextLength checks the min/max length of a string, counted in runes.
// A nil bound is not applied.
type TextLength struct {
	min *int
	max *int
}

// NewTextLength creates a text length validator.
func NewTextLength(min, max *int) TextLength {
	return TextLength{min: copyBound(min), max: copyBound(max)}
}

// Type returns TypeTextLength.
func (TextLength) Type() Type { return TypeTextLength }

// Min returns the minimum length, or nil.
func (v TextLength) Min() *int { return copyBound(v.min) }

// Max returns the maximum length, or nil.
func (v TextLength) Max() *int { return copyBound(v.max) }

// IsValid returns true if value meets the length bounds.
func (v TextLength) IsValid(value string) bool {
	return withinBounds(utf8.RuneCountInString(value), v.min, v.max)
}

// TextContains checks that a string contains a substring.
type TextContains struct {
	query string
}

// NewTextContains creates a substring validator.
func NewTextContains(query string) TextContains {
	return TextContains{query: query}
}

// Type returns TypeTextContains.
func (TextContains) Type() Type { return TypeTextContains }

// Query returns the substring being looked for.
func (v TextContains) Query() string { return v.query }

// IsValid returns true if value contains the query string.
func (v TextContains) IsValid(value string) bool {
	return strings.Contains(value, v.query)
}

// Email checks that a string is a single bare email address.
type Email struct{}

// NewEmail creates an email validator.
func NewEmail() Email { return Email{} }

// Type returns TypeEmail.
func (Email) Type() Type { return TypeEmail }

// IsValid returns true if value is an email address with no display name.
func (Email) IsValid(value string) bool {
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return false
	}
	// "Bob <bob@example.com>" parses, but is not a bare address.
	if addr.Address != value {
		return false
	}
	at := strings.LastIndexByte(addr.Address, '@')
	return at > 0 && at < len(addr.Address)-1
}
