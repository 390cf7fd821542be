package users

import (
	"time"

	"github.com/harapan-foundation/harapan/internal/rbac"
)

// User is an administrator-managed account. Credentials live with the identity
// provider; this record only carries profile data and the role.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      rbac.Role `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoleUpdate is the body of PUT /api/users/{id}/role.
type RoleUpdate struct {
	Role string `json:"role" validate:"required,oneof=ADMIN EDITOR USER"`
}
