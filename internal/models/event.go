package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultCategory is assigned when an ingested event carries no category tag.
const DefaultCategory = "default"

type Event struct {
	gorm.Model

	ProjectID uint `gorm:"not null;index"`
	// ApiKeyID records which key ingested the event. No foreign key on
	// purpose: keys are deleted on revocation and events must outlive them.
	ApiKeyID    uint   `gorm:"index"`
	Category    string `gorm:"not null;default:default;index"`
	Title       string `gorm:"not null"`
	Description string
	Icon        string
	Metadata    datatypes.JSON `gorm:"type:jsonb"`

	// Relationships
	Project       Project        `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Notifications []Notification `gorm:"foreignKey:EventID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
