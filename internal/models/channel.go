package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ChannelKindEmail    = "email"
	ChannelKindTelegram = "telegram"
)

type Channel struct {
	gorm.Model

	OwnerID uint           `gorm:"not null;index"`
	Kind    string         `gorm:"not null"` // "email", "telegram"
	Name    string         `gorm:"not null"`
	Config  datatypes.JSON `gorm:"type:jsonb"`
	Enabled bool           `gorm:"default:true"`

	// Relationships
	Owner             User               `gorm:"foreignKey:OwnerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	NotificationRules []NotificationRule `gorm:"foreignKey:ChannelID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
