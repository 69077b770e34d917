package public

import (
	"time"

	"github.com/akeren/waitlist-foundry/internal/models"
	"github.com/akeren/waitlist-foundry/pkg/countdown"
	"github.com/akeren/waitlist-foundry/pkg/logo"
	"github.com/akeren/waitlist-foundry/pkg/theme"
)

// Projection is the public-safe view of a waitlist. It is what gets cached;
// the owner never appears in it.
type Projection struct {
	ID               string     `json:"id"`
	Slug             string     `json:"slug"`
	Title            string     `json:"title"`
	Description      *string    `json:"description"`
	Headline         string     `json:"headline"`
	Subheadline      *string    `json:"subheadline"`
	Theme            string     `json:"theme"`
	PrimaryColor     string     `json:"primaryColor"`
	BackgroundColor  string     `json:"backgroundColor"`
	LogoURL          logo.Logo  `json:"logoUrl"`
	CollectName      bool       `json:"collectName"`
	CollectCompany   bool       `json:"collectCompany"`
	CountdownEnabled bool       `json:"countdownEnabled"`
	CountdownDate    *time.Time `json:"countdownDate"`
	SubscriberCount  int64      `json:"subscriberCount"`
}

// PublicWaitlistResponse adds what a page renderer needs on top of the projection.
type PublicWaitlistResponse struct {
	Projection
	ThemeTokens theme.Tokens        `json:"themeTokens"`
	Logo        logo.View           `json:"logo"`
	Countdown   *countdown.Duration `json:"countdown"`
}

func ToProjection(row *models.WaitlistWithCount) *Projection {
	w := row.Waitlist

	return &Projection{
		ID:               w.ID,
		Slug:             w.Slug,
		Title:            w.Title,
		Description:      w.Description,
		Headline:         w.Headline,
		Subheadline:      w.Subheadline,
		Theme:            w.Theme,
		PrimaryColor:     w.PrimaryColor,
		BackgroundColor:  w.BackgroundColor,
		LogoURL:          w.Logo(),
		CollectName:      w.CollectName,
		CollectCompany:   w.CollectCompany,
		CountdownEnabled: w.CountdownEnabled,
		CountdownDate:    w.CountdownDate,
		SubscriberCount:  row.SubscriberCount,
	}
}

// Present resolves the theme, the logo variant and, when a launch date is set,
// the time left at now.
func Present(p *Projection, now time.Time) *PublicWaitlistResponse {
	response := &PublicWaitlistResponse{
		Projection:  *p,
		ThemeTokens: theme.Get(p.Theme).Tokens,
		Logo:        p.LogoURL.View(),
	}

	if p.CountdownEnabled && p.CountdownDate != nil {
		remaining := countdown.Remaining(now, *p.CountdownDate)
		response.Countdown = &remaining
	}

	return response
}
