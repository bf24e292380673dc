package types

import "time"

type UserResponse struct {
	ID               uint         `json:"id"`
	Email            string       `json:"email"`
	Role             string       `json:"role"`
	IsActive         bool         `json:"is_active"`
	LastLogin        *time.Time   `json:"last_login,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	AssignedProjects []ProjectRef `json:"assigned_projects"`
}

type ProjectRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}
