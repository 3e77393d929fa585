package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zapshift/parcel-delivery/internal/domain/payment"
)

// PaymentRepository persists payment records. The UNIQUE index on
// transaction_id is the idempotency fence the reconciliation engine
// relies on.
type PaymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository creates a payment repository
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts the payment unless its transaction id is already recorded.
// ON CONFLICT DO NOTHING makes the insert an atomic insert-if-absent, so of
// two concurrent reconciliations exactly one observes inserted=true.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (
			id, transaction_id, amount_minor, currency, customer_email,
			parcel_id, parcel_name, status, tracking_id, paid_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (transaction_id) DO NOTHING
	`, p.ID, p.TransactionID, p.AmountMinor, p.Currency, p.CustomerEmail,
		p.ParcelID, p.ParcelName, p.Status, p.TrackingID, p.PaidAt)
	if err != nil {
		return false, fmt.Errorf("insert payment: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert payment rows affected: %w", err)
	}
	return n > 0, nil
}

// GetByTransactionID retrieves a payment by the gateway transaction id
func (r *PaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.QueryRowContext(ctx, `
		SELECT id, transaction_id, amount_minor, currency, customer_email,
		       parcel_id, parcel_name, status, tracking_id, paid_at
		FROM payments
		WHERE transaction_id = $1
	`, transactionID).Scan(
		&p.ID, &p.TransactionID, &p.AmountMinor, &p.Currency, &p.CustomerEmail,
		&p.ParcelID, &p.ParcelName, &p.Status, &p.TrackingID, &p.PaidAt,
	)
	if err == sql.ErrNoRows {
		return nil, payment.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

// ListByEmail retrieves a customer's payments, newest first
func (r *PaymentRepository) ListByEmail(ctx context.Context, email string) ([]*payment.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, transaction_id, amount_minor, currency, customer_email,
		       parcel_id, parcel_name, status, tracking_id, paid_at
		FROM payments
		WHERE customer_email = $1
		ORDER BY paid_at DESC
	`, email)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []*payment.Payment
	for rows.Next() {
		var p payment.Payment
		if err := rows.Scan(
			&p.ID, &p.TransactionID, &p.AmountMinor, &p.Currency, &p.CustomerEmail,
			&p.ParcelID, &p.ParcelName, &p.Status, &p.TrackingID, &p.PaidAt,
		); err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}
