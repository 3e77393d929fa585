package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/zapshift/parcel-delivery/internal/domain/rider"
	"github.com/zapshift/parcel-delivery/internal/domain/user"
)

// RiderRepository persists riders
type RiderRepository struct {
	db *sql.DB
}

// NewRiderRepository creates a rider repository
func NewRiderRepository(db *sql.DB) *RiderRepository {
	return &RiderRepository{db: db}
}

// Create inserts a new rider application
func (r *RiderRepository) Create(ctx context.Context, rd *rider.Rider) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO riders (
			id, name, email, phone, district, status, work_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, rd.ID, rd.Name, rd.Email, rd.Phone, rd.District, rd.Status, rd.WorkStatus, rd.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert rider: %w", err)
	}
	return nil
}

// GetByID retrieves a rider by id
func (r *RiderRepository) GetByID(ctx context.Context, id uuid.UUID) (*rider.Rider, error) {
	var rd rider.Rider
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, district, status, work_status, created_at, updated_at
		FROM riders
		WHERE id = $1
	`, id).Scan(&rd.ID, &rd.Name, &rd.Email, &rd.Phone, &rd.District,
		&rd.Status, &rd.WorkStatus, &rd.CreatedAt, &rd.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, rider.ErrRiderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get rider: %w", err)
	}
	return &rd, nil
}

// List retrieves riders matching the filter
func (r *RiderRepository) List(ctx context.Context, f rider.Filter) ([]*rider.Rider, error) {
	query := `SELECT id, name, email, phone, district, status, work_status, created_at, updated_at FROM riders`
	var args []interface{}
	var conds []string

	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.District != "" {
		args = append(args, f.District)
		conds = append(conds, fmt.Sprintf("district = $%d", len(args)))
	}
	if f.WorkStatus != "" {
		args = append(args, f.WorkStatus)
		conds = append(conds, fmt.Sprintf("work_status = $%d", len(args)))
	}

	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list riders: %w", err)
	}
	defer rows.Close()

	var riders []*rider.Rider
	for rows.Next() {
		var rd rider.Rider
		if err := rows.Scan(&rd.ID, &rd.Name, &rd.Email, &rd.Phone, &rd.District,
			&rd.Status, &rd.WorkStatus, &rd.CreatedAt, &rd.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan rider row: %w", err)
		}
		riders = append(riders, &rd)
	}
	return riders, rows.Err()
}

// Delete removes a rider
func (r *RiderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM riders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete rider: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return rider.ErrRiderNotFound
	}
	return nil
}

// Decide sets the rider's approval status; an approval also promotes the
// user with the rider's email inside the same transaction. userPromoted is
// false when no user row matched, which the caller surfaces instead of
// treating the decision as a full success.
func (r *RiderRepository) Decide(ctx context.Context, id uuid.UUID, status rider.Status) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin decide tx: %w", err)
	}
	defer tx.Rollback()

	var email string
	err = tx.QueryRowContext(ctx, `
		UPDATE riders
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING email
	`, id, status).Scan(&email)
	if err == sql.ErrNoRows {
		return false, rider.ErrRiderNotFound
	}
	if err != nil {
		return false, fmt.Errorf("update rider status: %w", err)
	}

	promoted := false
	if status == rider.StatusApproved {
		res, err := tx.ExecContext(ctx, `
			UPDATE users
			SET role = $2
			WHERE email = $1
		`, email, user.RoleRider)
		if err != nil {
			return false, fmt.Errorf("promote user to rider: %w", err)
		}
		n, _ := res.RowsAffected()
		promoted = n > 0
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit decide tx: %w", err)
	}
	return promoted, nil
}

// SetWorkStatus overwrites the rider's availability
func (r *RiderRepository) SetWorkStatus(ctx context.Context, id uuid.UUID, ws rider.WorkStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE riders
		SET work_status = $2, updated_at = NOW()
		WHERE id = $1
	`, id, ws)
	if err != nil {
		return fmt.Errorf("set rider work status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return rider.ErrRiderNotFound
	}
	return nil
}
