package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

// Notification is one delivery attempt of an event to a channel. It is
// created pending and moves exactly once to sent or failed.
type Notification struct {
	gorm.Model

	EventID uint `gorm:"not null;index"`
	// ChannelID is a weak reference: the channel may be deleted later and
	// the record stays behind as delivery history.
	ChannelID uint   `gorm:"not null;index"`
	Status    string `gorm:"not null"` // "pending", "sent", "failed"
	Error     string
	SentAt    *time.Time

	// Relationships
	Event Event `gorm:"foreignKey:EventID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
