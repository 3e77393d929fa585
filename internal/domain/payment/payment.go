package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// StatusPaid is the only status a stored payment can carry: records are
// created after the gateway reports the session paid and are immutable.
const StatusPaid = "paid"

// Payment is the settled record of a checkout session. TransactionID is the
// gateway's payment-intent id and the business key: the store enforces at
// most one record per transaction id, which is the reconciliation engine's
// idempotency fence.
type Payment struct {
	ID            uuid.UUID `json:"id"`
	TransactionID string    `json:"transactionId"`
	AmountMinor   int64     `json:"amountMinor"`
	Currency      string    `json:"currency"`
	CustomerEmail string    `json:"customerEmail"`
	ParcelID      uuid.UUID `json:"parcelId"`
	ParcelName    string    `json:"parcelName"`
	Status        string    `json:"paymentStatus"`
	TrackingID    string    `json:"trackingId"`
	PaidAt        time.Time `json:"paidAt"`
}

// Repository defines the interface for payment data access
type Repository interface {
	// Create inserts the payment unless a record with the same transaction id
	// already exists. Returns false when the insert lost to an existing row.
	Create(ctx context.Context, p *Payment) (inserted bool, err error)

	// GetByTransactionID retrieves a payment by the gateway transaction id
	GetByTransactionID(ctx context.Context, transactionID string) (*Payment, error)

	// ListByEmail retrieves a customer's payments, newest paidAt first
	ListByEmail(ctx context.Context, email string) ([]*Payment, error)
}

var ErrPaymentNotFound = errors.New("payment not found")
