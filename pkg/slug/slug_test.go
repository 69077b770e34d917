package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_AcceptsWellFormedSlugs(t *testing.T) {
	for _, s := range []string{"abc", "acme-app", "a1-b2-c3", strings.Repeat("x", 50), "---"} {
		reason, msg, ok := Validate(s)
		assert.True(t, ok, s)
		assert.Equal(t, ReasonNone, reason)
		assert.Equal(t, MessageAvailable, msg)
	}
}

func TestValidate_FormatIsCheckedBeforeLength(t *testing.T) {
	for _, s := range []string{"", "A", "Acme", "acme_app", "acme app", " acme-app", "acme-app ", "   ", "café", strings.Repeat("X", 80)} {
		reason, msg, ok := Validate(s)
		assert.False(t, ok, s)
		assert.Equal(t, ReasonFormat, reason, s)
		assert.Equal(t, MessageFormat, msg)
	}
}

func TestValidate_Length(t *testing.T) {
	reason, msg, ok := Validate("ab")
	assert.False(t, ok)
	assert.Equal(t, ReasonLength, reason)
	assert.Equal(t, MessageTooShort, msg)

	reason, msg, ok = Validate(strings.Repeat("a", 51))
	assert.False(t, ok)
	assert.Equal(t, ReasonLength, reason)
	assert.Equal(t, MessageTooLong, msg)
}

func TestDerive(t *testing.T) {
	cases := map[string]string{
		"Acme":                     "acme",
		"SalesForce Next":          "salesforce-next",
		"  Café Crème  ":           "cafe-creme",
		"Élan -- Vital!!":          "elan-vital",
		"Déjà vu / 2025":           "deja-vu-2025",
		"___":                      "",
		"Ça marche, n'est-ce pas?": "ca-marche-n-est-ce-pas",
	}

	for in, want := range cases {
		assert.Equal(t, want, Derive(in), in)
	}
}

func TestDerive_OutputAlwaysHasValidCharset(t *testing.T) {
	for _, in := range []string{"Ünïcödé Tïtle", "日本語 title", "Hello   World", "émoji 🚀 launch"} {
		out := Derive(in)
		if out == "" {
			continue
		}
		reason, _, _ := Validate(out)
		assert.NotEqual(t, ReasonFormat, reason, in)
	}
}
