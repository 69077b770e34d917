package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Subscriber struct {
	ID         string         `gorm:"type:text;primaryKey" json:"id"`
	WaitlistID string         `gorm:"type:text;not null;uniqueIndex:idx_subscribers_waitlist_email,priority:1;uniqueIndex:idx_subscribers_waitlist_position,priority:1" json:"waitlistId"`
	Email      string         `gorm:"not null;uniqueIndex:idx_subscribers_waitlist_email,priority:2" json:"email"`
	Name       *string        `json:"name"`
	Company    *string        `json:"company"`
	CustomData map[string]any `gorm:"type:text;serializer:json" json:"customData,omitempty"`
	Position   int            `gorm:"not null;uniqueIndex:idx_subscribers_waitlist_position,priority:2" json:"position"`
	CreatedAt  time.Time      `gorm:"not null" json:"createdAt"`
}

func (s *Subscriber) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
