// Package logo models the optional logo of a waitlist page.
//
// A logo is either absent, one of the built-in icons (numbered 1..10) or an
// uploaded image referenced by URL. The database keeps a single nullable
// string; FromStored and Stored convert at that edge so the rest of the code
// never has to guess which form a string is in.
package logo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const IconCount = 10

type Kind string

const (
	KindNone  Kind = "none"
	KindIcon  Kind = "icon"
	KindImage Kind = "image"
)

type Logo struct {
	kind Kind
	icon int
	url  string
}

func None() Logo {
	return Logo{kind: KindNone}
}

// Icon wraps any integer into the 1..IconCount range.
func Icon(n int) Logo {
	return Logo{kind: KindIcon, icon: normalizeIcon(n)}
}

func Image(url string) Logo {
	url = strings.TrimSpace(url)
	if url == "" {
		return None()
	}
	return Logo{kind: KindImage, url: url}
}

func normalizeIcon(n int) int {
	return ((n-1)%IconCount+IconCount)%IconCount + 1
}

// FromStored interprets the persisted column: numeric strings are built-in
// icons, any other non-empty value is an image URL.
func FromStored(v *string) Logo {
	if v == nil {
		return None()
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return None()
	}
	if n, err := strconv.Atoi(s); err == nil {
		return Icon(n)
	}
	return Image(s)
}

func (l Logo) Stored() *string {
	switch l.kind {
	case KindIcon:
		s := strconv.Itoa(l.icon)
		return &s
	case KindImage:
		s := l.url
		return &s
	default:
		return nil
	}
}

func (l Logo) Kind() Kind {
	if l.kind == "" {
		return KindNone
	}
	return l.kind
}

func (l Logo) IsNone() bool {
	return l.Kind() == KindNone
}

func (l Logo) IconIndex() (int, bool) {
	return l.icon, l.kind == KindIcon
}

func (l Logo) URL() (string, bool) {
	return l.url, l.kind == KindImage
}

func (l Logo) String() string {
	if s := l.Stored(); s != nil {
		return *s
	}
	return ""
}

// View is the explicit shape handed to page renderers.
type View struct {
	Kind Kind   `json:"kind"`
	Icon int    `json:"icon,omitempty"`
	URL  string `json:"url,omitempty"`
}

func (l Logo) View() View {
	return View{Kind: l.Kind(), Icon: l.icon, URL: l.url}
}

// MarshalJSON keeps the flat wire form used by the dashboard: null, an icon
// number as a string, or the image URL.
func (l Logo) MarshalJSON() ([]byte, error) {
	s := l.Stored()
	if s == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*s)
}

// UnmarshalJSON accepts null, a JSON number or a JSON string.
func (l *Logo) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = None()
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = FromStored(&s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("logo: expected string, number or null: %w", err)
	}
	i, err := n.Int64()
	if err != nil {
		return fmt.Errorf("logo: icon index must be an integer: %w", err)
	}
	*l = Icon(int(i))
	return nil
}
