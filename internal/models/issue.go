package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	IssuePriorityLow    = "low"
	IssuePriorityMedium = "medium"
	IssuePriorityHigh   = "high"

	IssueStatusTodo       = "todo"
	IssueStatusInProgress = "in-progress"
	IssueStatusDone       = "done"
)

func ValidIssuePriority(p string) bool {
	return p == IssuePriorityLow || p == IssuePriorityMedium || p == IssuePriorityHigh
}

func ValidIssueStatus(s string) bool {
	return s == IssueStatusTodo || s == IssueStatusInProgress || s == IssueStatusDone
}

type Issue struct {
	gorm.Model

	Title           string `gorm:"not null"`
	Description     string `gorm:"not null"`
	Priority        string `gorm:"not null;default:'medium'"`
	Status          string `gorm:"not null;default:'todo'"`
	ProjectID       uint   `gorm:"not null;index"`
	ReporterID      uint   `gorm:"not null;index"`
	AssignedToID    *uint  `gorm:"index"`
	ExpectedOutcome string `gorm:"not null"`
	CurrentOutcome  string `gorm:"not null"`
	BugImage        string
	Tags            datatypes.JSON `gorm:"type:jsonb"`

	// Relationships
	Project    Project        `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Reporter   User           `gorm:"foreignKey:ReporterID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	AssignedTo *User          `gorm:"foreignKey:AssignedToID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	Comments   []IssueComment `gorm:"foreignKey:IssueID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
