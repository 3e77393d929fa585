// Package postgres implements the domain repositories on database/sql.
// Every repository shares the injected *sql.DB pool; coupled multi-row
// updates run inside a single transaction so readers observe them together.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/zapshift/parcel-delivery/internal/domain/parcel"
	"github.com/zapshift/parcel-delivery/internal/domain/rider"
)

// ParcelRepository persists parcels
type ParcelRepository struct {
	db *sql.DB
}

// NewParcelRepository creates a parcel repository
func NewParcelRepository(db *sql.DB) *ParcelRepository {
	return &ParcelRepository{db: db}
}

const parcelColumns = `id, sender_email, name, cost_minor, district, payment_status,
	delivery_status, tracking_id, rider_id, rider_name, rider_email, created_at, updated_at`

// Create inserts a new parcel
func (r *ParcelRepository) Create(ctx context.Context, p *parcel.Parcel) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO parcels (
			id, sender_email, name, cost_minor, district,
			payment_status, delivery_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, p.ID, p.SenderEmail, p.Name, p.CostMinor, p.District,
		p.PaymentStatus, p.DeliveryStatus, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert parcel: %w", err)
	}
	return nil
}

// GetByID retrieves a parcel by id
func (r *ParcelRepository) GetByID(ctx context.Context, id uuid.UUID) (*parcel.Parcel, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+parcelColumns+`
		FROM parcels
		WHERE id = $1
	`, id)

	p, err := scanParcel(row)
	if err == sql.ErrNoRows {
		return nil, parcel.ErrParcelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get parcel: %w", err)
	}
	return p, nil
}

// List retrieves parcels matching the filter, newest first
func (r *ParcelRepository) List(ctx context.Context, f parcel.Filter) ([]*parcel.Parcel, error) {
	query := `SELECT ` + parcelColumns + ` FROM parcels`
	var args []interface{}
	var conds []string

	if f.SenderEmail != "" {
		args = append(args, f.SenderEmail)
		conds = append(conds, fmt.Sprintf("sender_email = $%d", len(args)))
	}
	if f.RiderEmail != "" {
		args = append(args, f.RiderEmail)
		conds = append(conds, fmt.Sprintf("rider_email = $%d", len(args)))
	}
	if f.District != "" {
		args = append(args, f.District)
		conds = append(conds, fmt.Sprintf("district = $%d", len(args)))
	}
	if f.DeliveryStatus != "" {
		args = append(args, f.DeliveryStatus)
		conds = append(conds, fmt.Sprintf("delivery_status = $%d", len(args)))
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
		return nil, fmt.Errorf("list parcels: %w", err)
	}
	defer rows.Close()

	var parcels []*parcel.Parcel
	for rows.Next() {
		p, err := scanParcel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan parcel row: %w", err)
		}
		parcels = append(parcels, p)
	}
	return parcels, rows.Err()
}

// Delete removes a parcel
func (r *ParcelRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM parcels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete parcel: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return parcel.ErrParcelNotFound
	}
	return nil
}

// MarkPaid applies the payment outcome to the parcel. The write is a fixed
// overwrite, so replaying it after a crash converges to the same state.
func (r *ParcelRepository) MarkPaid(ctx context.Context, id uuid.UUID, trackingID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE parcels
		SET payment_status = $2,
		    delivery_status = $3,
		    tracking_id = $4,
		    updated_at = NOW()
		WHERE id = $1
	`, id, parcel.PaymentPaid, parcel.DeliveryPendingPickup, trackingID)
	if err != nil {
		return fmt.Errorf("mark parcel paid: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return parcel.ErrParcelNotFound
	}
	return nil
}

// SetDeliveryStatus overwrites the delivery status
func (r *ParcelRepository) SetDeliveryStatus(ctx context.Context, id uuid.UUID, status parcel.DeliveryStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE parcels
		SET delivery_status = $2, updated_at = NOW()
		WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("set delivery status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return parcel.ErrParcelNotFound
	}
	return nil
}

// Assign links the rider to the parcel and marks the rider in-delivery in
// one transaction.
func (r *ParcelRepository) Assign(ctx context.Context, id uuid.UUID, a parcel.Assignee) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assign tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE parcels
		SET delivery_status = $2,
		    rider_id = $3,
		    rider_name = $4,
		    rider_email = $5,
		    updated_at = NOW()
		WHERE id = $1
	`, id, parcel.DeliveryDriverAssign, a.ID, a.Name, a.Email)
	if err != nil {
		return fmt.Errorf("assign parcel: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return parcel.ErrParcelNotFound
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE riders
		SET work_status = $2, updated_at = NOW()
		WHERE id = $1
	`, a.ID, rider.WorkInDelivery)
	if err != nil {
		return fmt.Errorf("mark rider in-delivery: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return rider.ErrRiderNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assign tx: %w", err)
	}
	return nil
}

// scanner covers *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanParcel(s scanner) (*parcel.Parcel, error) {
	var p parcel.Parcel
	var trackingID, riderName, riderEmail sql.NullString
	var riderID uuid.NullUUID

	err := s.Scan(
		&p.ID, &p.SenderEmail, &p.Name, &p.CostMinor, &p.District,
		&p.PaymentStatus, &p.DeliveryStatus,
		&trackingID, &riderID, &riderName, &riderEmail,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if trackingID.Valid {
		p.TrackingID = &trackingID.String
	}
	if riderID.Valid {
		p.RiderID = &riderID.UUID
	}
	if riderName.Valid {
		p.RiderName = &riderName.String
	}
	if riderEmail.Valid {
		p.RiderEmail = &riderEmail.String
	}
	return &p, nil
}
