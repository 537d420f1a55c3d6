package models

import (
	"time"

	"gorm.io/gorm"
)

type ApiKey struct {
	gorm.Model

	ProjectID  uint   `gorm:"not null;index"`
	Key        string `gorm:"uniqueIndex;not null"`
	Name       string `gorm:"not null;default:Default"`
	LastUsedAt *time.Time

	// Relationships
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
