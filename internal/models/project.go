package models

import "gorm.io/gorm"

const (
	ProjectStatusActive    = "active"
	ProjectStatusInactive  = "inactive"
	ProjectStatusCompleted = "completed"
)

func ValidProjectStatus(s string) bool {
	return s == ProjectStatusActive || s == ProjectStatusInactive || s == ProjectStatusCompleted
}

type Project struct {
	gorm.Model

	Name        string `gorm:"not null"`
	Description string `gorm:"not null"`
	CreatorID   uint   `gorm:"not null;index"`
	Status      string `gorm:"not null;default:'active'"`
	Priority    string `gorm:"not null;default:'medium'"`

	// Relationships
	Creator            User                `gorm:"foreignKey:CreatorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	ProjectMemberships []ProjectMembership `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Issues             []Issue             `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
