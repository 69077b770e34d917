package waitlist

import (
	"time"

	"github.com/akeren/waitlist-foundry/internal/models"
	"github.com/akeren/waitlist-foundry/pkg/logo"
)

// CreateWaitlistRequest mirrors the dashboard form. Optional fields left out
// fall back to the product defaults.
type CreateWaitlistRequest struct {
	Slug             string     `json:"slug" binding:"max=255"`
	Title            string     `json:"title" binding:"max=255"`
	Description      *string    `json:"description" binding:"omitempty,max=2000"`
	Headline         *string    `json:"headline" binding:"omitempty,max=255"`
	Subheadline      *string    `json:"subheadline" binding:"omitempty,max=1000"`
	Theme            *string    `json:"theme" binding:"omitempty,max=50"`
	PrimaryColor     *string    `json:"primaryColor" binding:"omitempty,hexcolor"`
	BackgroundColor  *string    `json:"backgroundColor" binding:"omitempty,hexcolor"`
	LogoURL          *logo.Logo `json:"logoUrl"`
	CollectName      *bool      `json:"collectName"`
	CollectCompany   *bool      `json:"collectCompany"`
	CountdownEnabled *bool      `json:"countdownEnabled"`
	CountdownDate    *string    `json:"countdownDate"`
}

// UpdateWaitlistRequest replaces the editable fields. Slug, title, headline,
// theme, colors and flags keep their stored value when omitted; description,
// subheadline and logo are cleared when omitted.
type UpdateWaitlistRequest struct {
	Slug             *string    `json:"slug" binding:"omitempty,max=255"`
	Title            *string    `json:"title" binding:"omitempty,max=255"`
	Description      *string    `json:"description" binding:"omitempty,max=2000"`
	Headline         *string    `json:"headline" binding:"omitempty,max=255"`
	Subheadline      *string    `json:"subheadline" binding:"omitempty,max=1000"`
	Theme            *string    `json:"theme" binding:"omitempty,max=50"`
	PrimaryColor     *string    `json:"primaryColor" binding:"omitempty,hexcolor"`
	BackgroundColor  *string    `json:"backgroundColor" binding:"omitempty,hexcolor"`
	LogoURL          *logo.Logo `json:"logoUrl"`
	CollectName      *bool      `json:"collectName"`
	CollectCompany   *bool      `json:"collectCompany"`
	CountdownEnabled *bool      `json:"countdownEnabled"`
	CountdownDate    *string    `json:"countdownDate"`
}

type WaitlistResponse struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
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
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

type SubscriberResponse struct {
	ID         string         `json:"id"`
	WaitlistID string         `json:"waitlistId"`
	Email      string         `json:"email"`
	Name       *string        `json:"name"`
	Company    *string        `json:"company"`
	CustomData map[string]any `json:"customData,omitempty"`
	Position   int            `json:"position"`
	CreatedAt  time.Time      `json:"createdAt"`
}

type SlugAvailability struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
	Message   string `json:"message"`
}

type SlugSuggestion struct {
	Slug string `json:"slug"`
	SlugAvailability
}

type ShareLinks struct {
	PublicURL string `json:"publicUrl"`
	EmbedURL  string `json:"embedUrl"`
	Iframe    string `json:"iframe"`
}

// Export is a rendered subscriber file.
type Export struct {
	FileName    string
	ContentType string
	Body        []byte
}

// ========================================
// Mappers
// ========================================

func ToWaitlistResponse(w *models.Waitlist, subscriberCount int64) WaitlistResponse {
	if w == nil {
		return WaitlistResponse{}
	}
	return WaitlistResponse{
		ID:               w.ID,
		UserID:           w.UserID,
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
		SubscriberCount:  subscriberCount,
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
	}
}

func ToSubscriberResponse(s *models.Subscriber) SubscriberResponse {
	if s == nil {
		return SubscriberResponse{}
	}
	return SubscriberResponse{
		ID:         s.ID,
		WaitlistID: s.WaitlistID,
		Email:      s.Email,
		Name:       s.Name,
		Company:    s.Company,
		CustomData: s.CustomData,
		Position:   s.Position,
		CreatedAt:  s.CreatedAt,
	}
}
