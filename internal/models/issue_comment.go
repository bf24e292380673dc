package models

import "gorm.io/gorm"

type IssueComment struct {
	gorm.Model

	IssueID uint   `gorm:"not null;index"`
	UserID  uint   `gorm:"not null;index"`
	Text    string `gorm:"not null"`

	// Relationships
	Issue Issue `gorm:"foreignKey:IssueID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	User  User  `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
