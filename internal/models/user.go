package models

import (
	"time"

	"github.com/google/uuid"
)

// Marketplace roles. Every account carries exactly one.
const (
	RoleClient     = "client"
	RoleFreelancer = "freelancer"
)

func IsValidRole(role string) bool {
	return role == RoleClient || role == RoleFreelancer
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"` // client / freelancer
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}
