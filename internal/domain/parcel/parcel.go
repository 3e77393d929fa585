package parcel

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents whether the parcel's checkout has settled
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// DeliveryStatus represents the parcel's position in the delivery lifecycle
type DeliveryStatus string

const (
	DeliveryCreated       DeliveryStatus = "created"
	DeliveryPendingPickup DeliveryStatus = "pending-pickup"
	DeliveryDriverAssign  DeliveryStatus = "driver-assign"
	DeliveryInDelivery    DeliveryStatus = "in-delivery"
	DeliveryDelivered     DeliveryStatus = "delivered"
)

// Parcel represents a shipment tracked from booking through delivery
type Parcel struct {
	ID             uuid.UUID      `json:"id"`
	SenderEmail    string         `json:"senderEmail"`
	Name           string         `json:"parcelName"`
	CostMinor      int64          `json:"costMinor"`
	District       string         `json:"district"`
	PaymentStatus  PaymentStatus  `json:"paymentStatus"`
	DeliveryStatus DeliveryStatus `json:"deliveryStatus"`
	TrackingID     *string        `json:"trackingId,omitempty"`
	RiderID        *uuid.UUID     `json:"riderId,omitempty"`
	RiderName      *string        `json:"riderName,omitempty"`
	RiderEmail     *string        `json:"riderEmail,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// Assignee identifies the rider a parcel is handed to
type Assignee struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// Filter selects parcels by exact match on present fields
type Filter struct {
	SenderEmail    string
	RiderEmail     string
	District       string
	DeliveryStatus DeliveryStatus
}

// Repository defines the interface for parcel data access
type Repository interface {
	// Create inserts a new parcel
	Create(ctx context.Context, p *Parcel) error

	// GetByID retrieves a parcel by id
	GetByID(ctx context.Context, id uuid.UUID) (*Parcel, error)

	// List retrieves parcels matching the filter, newest createdAt first
	List(ctx context.Context, f Filter) ([]*Parcel, error)

	// Delete removes a parcel
	Delete(ctx context.Context, id uuid.UUID) error

	// MarkPaid sets paymentStatus=paid, deliveryStatus=pending-pickup and the
	// tracking id. Safe to replay: a second call converges to the same state.
	MarkPaid(ctx context.Context, id uuid.UUID, trackingID string) error

	// SetDeliveryStatus overwrites the delivery status
	SetDeliveryStatus(ctx context.Context, id uuid.UUID, status DeliveryStatus) error

	// Assign links the rider to the parcel (deliveryStatus=driver-assign) and
	// marks the rider in-delivery in the same transaction, so both are
	// observed together on read.
	Assign(ctx context.Context, id uuid.UUID, a Assignee) error
}

// IsValid validates the delivery status
func (s DeliveryStatus) IsValid() bool {
	switch s {
	case DeliveryCreated, DeliveryPendingPickup, DeliveryDriverAssign, DeliveryInDelivery, DeliveryDelivered:
		return true
	}
	return false
}

// rank orders statuses along the lifecycle
func (s DeliveryStatus) rank() int {
	switch s {
	case DeliveryCreated:
		return 0
	case DeliveryPendingPickup:
		return 1
	case DeliveryDriverAssign:
		return 2
	case DeliveryInDelivery:
		return 3
	case DeliveryDelivered:
		return 4
	}
	return -1
}

// CanTransitionTo reports whether moving to next is a forward transition.
// Re-applying the current status is allowed so replays stay harmless.
func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	return next.rank() >= s.rank()
}

// RequiresPayment reports whether a status may only be reached once the
// parcel is paid.
func (s DeliveryStatus) RequiresPayment() bool {
	return s.rank() >= DeliveryDriverAssign.rank()
}

// IsValid validates the payment status
func (s PaymentStatus) IsValid() bool {
	return s == PaymentUnpaid || s == PaymentPaid
}

// IsPaid reports whether the parcel's checkout has settled
func (p *Parcel) IsPaid() bool {
	return p.PaymentStatus == PaymentPaid
}
