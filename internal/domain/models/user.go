package models

import "time"

// User is a directory entry; role membership drives approval fan-out
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	RoleID       *string   `json:"role_id,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedDate  time.Time `json:"created_date"`
}

// Role groups users for role-targeted approval steps and escalations
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
