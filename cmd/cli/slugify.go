package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/akeren/waitlist-foundry/pkg/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Slugify prints the slug the dashboard would suggest for title and whether
// it passes validation.
func Slugify(w io.Writer, title string) {
	title = strings.TrimSpace(title)
	derived := slug.Derive(title)

	fmt.Fprintf(w, "Titre: %s\n", cases.Title(language.French).String(title))
	fmt.Fprintf(w, "Slug:  %s\n", derived)

	if _, message, ok := slug.Validate(derived); ok {
		fmt.Fprintln(w, "Valide")
	} else {
		fmt.Fprintf(w, "Invalide: %s\n", message)
	}
}
