package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet_KnownTheme(t *testing.T) {
	th := Get("vibrant-purple")
	assert.Equal(t, "vibrant-purple", th.ID)
	assert.Equal(t, "#A855F7", th.Tokens.PrimaryColor)
}

func TestGet_FallsBackToDefault(t *testing.T) {
	for _, id := range []string{"", "neon", "DARK-MODERN"} {
		th := Get(id)
		assert.Equal(t, DefaultID, th.ID, id)
		assert.Equal(t, "#111827", th.Tokens.BackgroundColor)
	}
}

func TestAll_ReturnsCopyInStableOrder(t *testing.T) {
	all := All()
	assert.Equal(t, []string{"dark-modern", "light-minimal", "light-gray", "vibrant-purple"}, IDs())
	assert.Len(t, all, 4)

	all[0].Name = "mutated"
	assert.Equal(t, "Dark Modern", Get(DefaultID).Name)
}

func TestIsKnown(t *testing.T) {
	assert.True(t, IsKnown("light-gray"))
	assert.False(t, IsKnown("light-grey"))
}
