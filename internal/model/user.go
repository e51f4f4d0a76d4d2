package model

import "time"

// Staff roles used in the JWT "role" claim.
const (
	RoleHost    = "HOST"
	RoleManager = "MANAGER"
)

// User represents a staff account as stored in the `users` table.  Only the
// password hash is persisted; handlers define their own response types with
// JSON tags.
type User struct {
	ID           uint64    // users.id
	RestaurantID uint64    // users.restaurant_id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
