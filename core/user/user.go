package user

import (
	"time"

	"github.com/irsalhamdi/course-market/core/claims"
)

type User struct {
	ID           string      `json:"id" db:"user_id"`
	Name         string      `json:"name" db:"name"`
	Email        string      `json:"email" db:"email"`
	Role         claims.Role `json:"role" db:"role"`
	PasswordHash string      `json:"-" db:"password_hash"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time   `json:"updatedAt" db:"updated_at"`
}
