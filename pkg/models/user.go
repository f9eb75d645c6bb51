package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin     = "admin"
	RoleTechnical = "technical"
	RoleUser      = "user"
)

// User is an account that can sign in to the management API
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// IsValidRole reports whether role is one of the known roles
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleTechnical, RoleUser:
		return true
	}
	return false
}
