// Package countdown computes the time left before a waitlist launch.
package countdown

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidTarget = errors.New("countdown: unrecognised date")

// Layouts accepted by ParseTarget, most precise first. The ones without an
// offset are what a datetime-local form field submits and are read as UTC.
var targetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

type Duration struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
	Expired bool  `json:"expired"`
}

// Remaining splits target-now into whole days, hours, minutes and seconds.
// Once the target is reached every component is zero and Expired is set.
func Remaining(now, target time.Time) Duration {
	diff := target.Sub(now)
	if diff <= 0 {
		return Duration{Expired: true}
	}

	total := int64(diff / time.Second)

	return Duration{
		Days:    total / 86400,
		Hours:   (total % 86400) / 3600,
		Minutes: (total % 3600) / 60,
		Seconds: total % 60,
	}
}

// ParseTarget reads a launch date as submitted by the dashboard.
func ParseTarget(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidTarget
	}

	for _, layout := range targetLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidTarget
}
