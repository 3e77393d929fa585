package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Role represents a user's access level
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleRider Role = "rider"
)

// User represents an account, unique by email
type User struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Repository defines the interface for user data access
type Repository interface {
	// CreateIfAbsent inserts the user unless the email is already taken.
	// An existing email is a no-op, not an error; created reports which.
	CreateIfAbsent(ctx context.Context, u *User) (created bool, err error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Search matches email or display name against a substring
	Search(ctx context.Context, text string) ([]*User, error)

	// UpdateRole sets a user's role and returns the user's email so callers
	// can invalidate cached role lookups
	UpdateRole(ctx context.Context, id uuid.UUID, role Role) (email string, err error)

	// GetRoleByEmail retrieves just the role for a user
	GetRoleByEmail(ctx context.Context, email string) (Role, error)
}

// IsValid validates the role
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleRider:
		return true
	}
	return false
}

var ErrUserNotFound = errors.New("user not found")
