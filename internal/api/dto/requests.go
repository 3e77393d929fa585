package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/zapshift/parcel-delivery/internal/domain/parcel"
	"github.com/zapshift/parcel-delivery/internal/domain/payment"
	"github.com/zapshift/parcel-delivery/pkg/money"
)

// CreateParcelRequest books a new parcel. Cost is a decimal major-unit
// amount; json.Number keeps it out of binary floating point.
type CreateParcelRequest struct {
	SenderEmail string      `json:"SenderEmail" binding:"required,email"`
	ParcelName  string      `json:"parcelName" binding:"required"`
	Cost        json.Number `json:"cost" binding:"required"`
	District    string      `json:"district" binding:"required"`
}

// AssignRiderRequest hands a parcel to a rider
type AssignRiderRequest struct {
	RiderID    string `json:"riderId" binding:"required"`
	RiderName  string `json:"riderName" binding:"required"`
	RiderEmail string `json:"riderEmail" binding:"required,email"`
}

// UpdateParcelStatusRequest moves the delivery status forward
type UpdateParcelStatusRequest struct {
	DeliveryStatus string `json:"deliveryStatus" binding:"required"`
}

// CreateCheckoutSessionRequest starts a hosted checkout for a parcel
type CreateCheckoutSessionRequest struct {
	Cost        json.Number `json:"cost" binding:"required"`
	ParcelName  string      `json:"parcelName" binding:"required"`
	ParcelID    string      `json:"parcelId" binding:"required"`
	SenderEmail string      `json:"SenderEmail" binding:"required,email"`
}

// CreateRiderRequest submits a rider application
type CreateRiderRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	District string `json:"district" binding:"required"`
}

// DecideRiderRequest applies an admin approval or rejection
type DecideRiderRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
	Email  string `json:"email"`
}

// CreateUserRequest registers a user on first sign-in (create-if-absent)
type CreateUserRequest struct {
	Email       string `json:"email" binding:"required,email"`
	DisplayName string `json:"displayName"`
}

// UpdateUserRoleRequest changes a user's role
type UpdateUserRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user admin rider"`
}

// ParcelResponse is the wire shape of a parcel; cost is rendered as a
// decimal major-unit string.
type ParcelResponse struct {
	ID             uuid.UUID  `json:"id"`
	SenderEmail    string     `json:"SenderEmail"`
	ParcelName     string     `json:"parcelName"`
	Cost           string     `json:"cost"`
	District       string     `json:"district"`
	PaymentStatus  string     `json:"paymentStatus"`
	DeliveryStatus string     `json:"deliveryStatus"`
	TrackingID     *string    `json:"trackingId,omitempty"`
	RiderID        *uuid.UUID `json:"riderId,omitempty"`
	RiderName      *string    `json:"riderName,omitempty"`
	RiderEmail     *string    `json:"riderEmail,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// NewParcelResponse maps a domain parcel onto the wire shape
func NewParcelResponse(p *parcel.Parcel) ParcelResponse {
	return ParcelResponse{
		ID:             p.ID,
		SenderEmail:    p.SenderEmail,
		ParcelName:     p.Name,
		Cost:           money.FormatMinor(p.CostMinor),
		District:       p.District,
		PaymentStatus:  string(p.PaymentStatus),
		DeliveryStatus: string(p.DeliveryStatus),
		TrackingID:     p.TrackingID,
		RiderID:        p.RiderID,
		RiderName:      p.RiderName,
		RiderEmail:     p.RiderEmail,
		CreatedAt:      p.CreatedAt,
	}
}

// NewParcelResponses maps a slice of parcels, never returning nil so the
// JSON body is always an array.
func NewParcelResponses(parcels []*parcel.Parcel) []ParcelResponse {
	out := make([]ParcelResponse, 0, len(parcels))
	for _, p := range parcels {
		out = append(out, NewParcelResponse(p))
	}
	return out
}

// PaymentResponse is the wire shape of a payment record
type PaymentResponse struct {
	ID            uuid.UUID `json:"id"`
	TransactionID string    `json:"transactionId"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	CustomerEmail string    `json:"customerEmail"`
	ParcelID      uuid.UUID `json:"parcelId"`
	ParcelName    string    `json:"parcelName"`
	PaymentStatus string    `json:"paymentStatus"`
	TrackingID    string    `json:"trackingId"`
	PaidAt        time.Time `json:"paidAt"`
}

// NewPaymentResponse maps a domain payment onto the wire shape
func NewPaymentResponse(p *payment.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		TransactionID: p.TransactionID,
		Amount:        money.FormatMinor(p.AmountMinor),
		Currency:      p.Currency,
		CustomerEmail: p.CustomerEmail,
		ParcelID:      p.ParcelID,
		ParcelName:    p.ParcelName,
		PaymentStatus: p.Status,
		TrackingID:    p.TrackingID,
		PaidAt:        p.PaidAt,
	}
}

// NewPaymentResponses maps a slice of payments
func NewPaymentResponses(payments []*payment.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, NewPaymentResponse(p))
	}
	return out
}
