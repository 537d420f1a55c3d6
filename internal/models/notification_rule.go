package models

import "gorm.io/gorm"

// CategoryWildcard matches events of any category.
const CategoryWildcard = "*"

type NotificationRule struct {
	gorm.Model

	ProjectID uint   `gorm:"not null;uniqueIndex:idx_rule_project_channel_category"`
	ChannelID uint   `gorm:"not null;uniqueIndex:idx_rule_project_channel_category"`
	Category  string `gorm:"not null;default:*;uniqueIndex:idx_rule_project_channel_category"`

	// Relationships
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Channel Channel `gorm:"foreignKey:ChannelID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
