package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/zapshift/parcel-delivery/internal/domain/user"
)

// UserRepository persists users, unique by email
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateIfAbsent inserts the user unless the email already exists. The
// UNIQUE index on email plus ON CONFLICT DO NOTHING makes repeated
// first-sign-in requests converge on one row.
func (r *UserRepository) CreateIfAbsent(ctx context.Context, u *user.User) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING
	`, u.ID, u.Email, u.DisplayName, u.Role, u.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert user rows affected: %w", err)
	}
	return n > 0, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var u user.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, role, created_at
		FROM users
		WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// Search matches email or display name against a substring
func (r *UserRepository) Search(ctx context.Context, text string) ([]*user.User, error) {
	pattern := "%" + text + "%"
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, email, display_name, role, created_at
		FROM users
		WHERE email ILIKE $1 OR display_name ILIKE $1
		ORDER BY created_at DESC
	`, pattern)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// UpdateRole sets a user's role and returns the user's email
func (r *UserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role user.Role) (string, error) {
	var email string
	err := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET role = $2
		WHERE id = $1
		RETURNING email
	`, id, role).Scan(&email)
	if err == sql.ErrNoRows {
		return "", user.ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("update user role: %w", err)
	}
	return email, nil
}

// GetRoleByEmail retrieves just the role for a user
func (r *UserRepository) GetRoleByEmail(ctx context.Context, email string) (user.Role, error) {
	var role user.Role
	err := r.db.QueryRowContext(ctx, `
		SELECT role FROM users WHERE email = $1
	`, email).Scan(&role)
	if err == sql.ErrNoRows {
		return "", user.ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get user role: %w", err)
	}
	return role, nil
}
