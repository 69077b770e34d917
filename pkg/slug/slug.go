// Package slug holds the rules for the public identifier of a waitlist page.
package slug

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	MinLength = 3
	MaxLength = 50
)

// Reason explains why a slug is not available.
type Reason string

const (
	ReasonNone   Reason = ""
	ReasonFormat Reason = "format"
	ReasonLength Reason = "length"
	ReasonTaken  Reason = "taken"
)

const (
	MessageAvailable = "URL disponible"
	MessageFormat    = "L'URL ne peut contenir que des lettres minuscules, des chiffres et des tirets"
	MessageTooShort  = "L'URL doit contenir au moins 3 caractères"
	MessageTooLong   = "L'URL ne peut pas dépasser 50 caractères"
	MessageTaken     = "Cette URL est déjà utilisée"
)

var (
	allowed    = regexp.MustCompile(`^[a-z0-9-]+$`)
	disallowed = regexp.MustCompile(`[^a-z0-9]+`)
	stripMarks = runes.Remove(runes.In(unicode.Mn))
)

// Validate checks format then length. The first failing check wins; uniqueness
// is the caller's concern and only makes sense once Validate passes.
func Validate(candidate string) (Reason, string, bool) {
	if !allowed.MatchString(candidate) {
		return ReasonFormat, MessageFormat, false
	}

	n := utf8.RuneCountInString(candidate)
	if n < MinLength {
		return ReasonLength, MessageTooShort, false
	}
	if n > MaxLength {
		return ReasonLength, MessageTooLong, false
	}

	return ReasonNone, MessageAvailable, true
}

// Derive suggests a slug for a title: "Café Crème!" -> "cafe-creme".
// The result may still fail Validate (too short, too long, empty).
func Derive(title string) string {
	s := strings.ToLower(title)

	if out, _, err := transform.String(transform.Chain(norm.NFD, stripMarks, norm.NFC), s); err == nil {
		s = out
	}

	s = disallowed.ReplaceAllString(s, "-")

	return strings.Trim(s, "-")
}
