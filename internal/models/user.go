package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleDeveloper Role = "Developer"
	RoleClient    Role = "Client"
)

// ValidRole reports whether r is one of the three declared roles.
// Role mutations must go through this check.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleDeveloper, RoleClient:
		return true
	}
	return false
}

type User struct {
	gorm.Model

	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         Role   `gorm:"not null;default:'Client'"`
	IsActive     bool   `gorm:"not null;default:true"`
	LastLogin    *time.Time

	// Relationships
	ProjectMemberships []ProjectMembership `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	ReportedIssues     []Issue             `gorm:"foreignKey:ReporterID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
