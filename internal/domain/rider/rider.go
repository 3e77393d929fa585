package rider

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents the approval state of a rider application
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// WorkStatus represents a rider's live availability
type WorkStatus string

const (
	WorkUnavailable WorkStatus = "unavailable"
	WorkAvailable   WorkStatus = "available"
	WorkInDelivery  WorkStatus = "in-delivery"
)

// Rider represents a delivery agent
type Rider struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone,omitempty"`
	District   string     `json:"district"`
	Status     Status     `json:"status"`
	WorkStatus WorkStatus `json:"workStatus"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Filter selects riders by exact match on present fields
type Filter struct {
	Status     Status
	District   string
	WorkStatus WorkStatus
}

// Repository defines the interface for rider data access
type Repository interface {
	Create(ctx context.Context, r *Rider) error
	GetByID(ctx context.Context, id uuid.UUID) (*Rider, error)
	List(ctx context.Context, f Filter) ([]*Rider, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Decide sets the rider's approval status. On approval the matching user
	// (by email) is promoted to the rider role in the same transaction;
	// userPromoted reports whether such a user row existed.
	Decide(ctx context.Context, id uuid.UUID, status Status) (userPromoted bool, err error)

	// SetWorkStatus overwrites the rider's availability
	SetWorkStatus(ctx context.Context, id uuid.UUID, ws WorkStatus) error
}

// IsValid validates the approval status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsDecision reports whether the status is an admin decision outcome
func (s Status) IsDecision() bool {
	return s == StatusApproved || s == StatusRejected
}

// IsValid validates the work status
func (w WorkStatus) IsValid() bool {
	switch w {
	case WorkUnavailable, WorkAvailable, WorkInDelivery:
		return true
	}
	return false
}

var ErrRiderNotFound = errors.New("rider not found")
