package countdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRemaining(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		target time.Time
		want   Duration
	}{
		{
			name:   "days hours minutes seconds",
			target: now.Add(2*24*time.Hour + 3*time.Hour + 4*time.Minute + 5*time.Second),
			want:   Duration{Days: 2, Hours: 3, Minutes: 4, Seconds: 5},
		},
		{
			name:   "sub-second remainder is dropped",
			target: now.Add(59*time.Second + 900*time.Millisecond),
			want:   Duration{Seconds: 59},
		},
		{
			name:   "exactly now",
			target: now,
			want:   Duration{Expired: true},
		},
		{
			name:   "past",
			target: now.Add(-time.Hour),
			want:   Duration{Expired: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Remaining(now, tt.target))
		})
	}
}

func TestRemaining_IgnoresTimezones(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	target := time.Date(2025, 3, 1, 14, 0, 0, 0, paris)

	assert.Equal(t, Duration{Hours: 1}, Remaining(now, target))
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2025-06-01T10:30:00Z", time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)},
		{"2025-06-01T12:30:00+02:00", time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)},
		{"2025-06-01T10:30", time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)},
		{" 2025-06-01 ", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseTarget(tt.raw)
			assert.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	for _, raw := range []string{"", "tomorrow", "01/06/2025"} {
		_, err := ParseTarget(raw)
		assert.ErrorIs(t, err, ErrInvalidTarget, raw)
	}
}
