package postcode

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

var ErrInvalid = errors.New("please enter a valid UK postcode")

// Go's regexp has no lookahead, so the (?!QVX) exclusion of the
// letter-digit-letter outward form is applied in Valid.
var ukPostcode = regexp.MustCompile(`^((?:[A-Z]{1,2}\d{1,2}[A-Z]?)|[A-Z]{1,2}\d[A-Z])([0-9][ABD-HJLN-UW-Z]{2})$`)

// Normalize upper-cases the input and strips all whitespace.
func Normalize(input string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, input)
}

// Pretty formats a postcode with a single space before the inward code.
func Pretty(input string) string {
	s := Normalize(input)
	if len(s) <= 3 {
		return s
	}
	return s[:len(s)-3] + " " + s[len(s)-3:]
}

// Valid reports whether input looks like a UK postcode. Only the format is
// checked; whether it exists is up to the lookup service.
func Valid(input string) bool {
	s := Normalize(input)
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "QVX") {
		return false
	}
	return ukPostcode.MatchString(s)
}

// Parse validates input and returns the pretty form.
func Parse(input string) (string, error) {
	if !Valid(input) {
		return "", ErrInvalid
	}
	return Pretty(input), nil
}
