package rbac

import "time"

// Assignment maps a user to a role. At most one active assignment exists per
// user, enforced by a unique key on user_id.
type Assignment struct {
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserWithRole is a user row joined with its role assignment for admin views.
type UserWithRole struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
