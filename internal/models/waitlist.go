package models

import (
	"time"

	"github.com/akeren/waitlist-foundry/pkg/logo"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Waitlist struct {
	ID               string     `gorm:"type:text;primaryKey" json:"id"`
	UserID           string     `gorm:"type:text;not null;index" json:"userId"`
	Slug             string     `gorm:"not null;uniqueIndex" json:"slug"`
	Title            string     `gorm:"not null" json:"title"`
	Description      *string    `json:"description"`
	Headline         string     `gorm:"not null" json:"headline"`
	Subheadline      *string    `json:"subheadline"`
	Theme            string     `gorm:"not null;default:dark-modern" json:"theme"`
	PrimaryColor     string     `gorm:"not null;default:#000000" json:"primaryColor"`
	BackgroundColor  string     `gorm:"not null;default:#ffffff" json:"backgroundColor"`
	LogoURL          *string    `gorm:"column:logo_url" json:"logoUrl"`
	CollectName      bool       `gorm:"not null" json:"collectName"`
	CollectCompany   bool       `gorm:"not null" json:"collectCompany"`
	CountdownEnabled bool       `gorm:"not null" json:"countdownEnabled"`
	CountdownDate    *time.Time `json:"countdownDate"`
	CreatedAt        time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt        time.Time  `gorm:"not null" json:"updatedAt"`

	Subscribers []Subscriber `gorm:"foreignKey:WaitlistID;constraint:OnDelete:CASCADE" json:"-"`
}

func (w *Waitlist) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	return nil
}

// Logo decodes the stored logo column.
func (w *Waitlist) Logo() logo.Logo {
	return logo.FromStored(w.LogoURL)
}

func (w *Waitlist) SetLogo(l logo.Logo) {
	w.LogoURL = l.Stored()
}

// WaitlistWithCount is a waitlist row joined with its subscriber count.
type WaitlistWithCount struct {
	Waitlist
	SubscriberCount int64 `gorm:"column:subscriber_count" json:"subscriberCount"`
}
