// Package lifecycle owns parcel state transitions and rider work-status
// transitions: creation defaults, rider assignment, delivery status updates
// and the rider approval workflow.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zapshift/parcel-delivery/internal/domain/parcel"
	"github.com/zapshift/parcel-delivery/internal/domain/rider"
	errs "github.com/zapshift/parcel-delivery/pkg/errors"
	"github.com/zapshift/parcel-delivery/pkg/logger"
)

// ParcelStore is the slice of parcel persistence the manager needs
type ParcelStore interface {
	Create(ctx context.Context, p *parcel.Parcel) error
	GetByID(ctx context.Context, id uuid.UUID) (*parcel.Parcel, error)
	Assign(ctx context.Context, id uuid.UUID, a parcel.Assignee) error
	SetDeliveryStatus(ctx context.Context, id uuid.UUID, status parcel.DeliveryStatus) error
}

// RiderStore is the slice of rider persistence the manager needs
type RiderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*rider.Rider, error)
	Decide(ctx context.Context, id uuid.UUID, status rider.Status) (userPromoted bool, err error)
	SetWorkStatus(ctx context.Context, id uuid.UUID, ws rider.WorkStatus) error
}

// Service is the parcel lifecycle manager
type Service struct {
	parcels ParcelStore
	riders  RiderStore
	logger  *logger.Logger
	now     func() time.Time
}

// NewService creates a lifecycle manager
func NewService(parcels ParcelStore, riders RiderStore, log *logger.Logger) *Service {
	return &Service{
		parcels: parcels,
		riders:  riders,
		logger:  log,
		now:     time.Now,
	}
}

// CreateParcel stamps creation time and initial states and stores the
// parcel. No payment has occurred yet, so the tracking id stays empty.
func (s *Service) CreateParcel(ctx context.Context, p *parcel.Parcel) error {
	switch {
	case p.SenderEmail == "":
		return errs.Validation("senderEmail is required", nil)
	case p.Name == "":
		return errs.Validation("parcelName is required", nil)
	case p.CostMinor <= 0:
		return errs.Validation("cost must be positive", nil)
	case p.District == "":
		return errs.Validation("district is required", nil)
	}

	p.ID = uuid.New()
	p.PaymentStatus = parcel.PaymentUnpaid
	p.DeliveryStatus = parcel.DeliveryCreated
	p.TrackingID = nil
	p.RiderID = nil
	p.RiderName = nil
	p.RiderEmail = nil
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt

	if err := s.parcels.Create(ctx, p); err != nil {
		return errs.Internal("Failed to create parcel", err)
	}

	s.logger.Info("Parcel created",
		logger.String("parcel_id", p.ID.String()),
		logger.String("sender_email", p.SenderEmail),
		logger.String("district", p.District),
		logger.Int64("cost_minor", p.CostMinor),
	)
	return nil
}

// AssignRider hands the parcel to a rider: the parcel moves to
// driver-assign and the rider to in-delivery in one transaction. The parcel
// must be paid and the rider approved.
func (s *Service) AssignRider(ctx context.Context, parcelID uuid.UUID, a parcel.Assignee) (*parcel.Parcel, error) {
	p, err := s.getParcel(ctx, parcelID)
	if err != nil {
		return nil, err
	}
	if !p.IsPaid() {
		return nil, errs.ErrParcelNotPaid
	}
	if p.DeliveryStatus == parcel.DeliveryDelivered {
		return nil, errs.ErrParcelDelivered
	}

	r, err := s.riders.GetByID(ctx, a.ID)
	if err != nil {
		if errors.Is(err, rider.ErrRiderNotFound) {
			return nil, errs.ErrRiderNotFound
		}
		return nil, errs.Internal("Failed to load rider", err)
	}
	if r.Status != rider.StatusApproved {
		return nil, errs.ErrRiderNotApproved
	}

	if err := s.parcels.Assign(ctx, parcelID, a); err != nil {
		return nil, errs.Internal("Failed to assign rider", err)
	}

	p.DeliveryStatus = parcel.DeliveryDriverAssign
	p.RiderID = &a.ID
	p.RiderName = &a.Name
	p.RiderEmail = &a.Email

	s.logger.Info("Rider assigned to parcel",
		logger.String("parcel_id", parcelID.String()),
		logger.String("rider_id", a.ID.String()),
		logger.String("rider_email", a.Email),
	)
	return p, nil
}

// UpdateDeliveryStatus moves the parcel's delivery status forward. Backward
// moves are rejected; re-applying the current status is a harmless no-op so
// replayed requests converge. Statuses past pending-pickup require payment.
func (s *Service) UpdateDeliveryStatus(ctx context.Context, parcelID uuid.UUID, next parcel.DeliveryStatus) (*parcel.Parcel, error) {
	if !next.IsValid() {
		return nil, errs.Validation(fmt.Sprintf("unknown delivery status %q", next), nil)
	}

	p, err := s.getParcel(ctx, parcelID)
	if err != nil {
		return nil, err
	}

	if next == p.DeliveryStatus {
		return p, nil
	}
	if !p.DeliveryStatus.CanTransitionTo(next) {
		return nil, errs.Conflict(
			fmt.Sprintf("delivery status cannot move from %q back to %q", p.DeliveryStatus, next), nil)
	}
	if next.RequiresPayment() && !p.IsPaid() {
		return nil, errs.ErrParcelNotPaid
	}

	if err := s.parcels.SetDeliveryStatus(ctx, parcelID, next); err != nil {
		return nil, errs.Internal("Failed to update delivery status", err)
	}

	// a delivered parcel releases its rider back to the pool
	if next == parcel.DeliveryDelivered && p.RiderID != nil {
		if err := s.riders.SetWorkStatus(ctx, *p.RiderID, rider.WorkAvailable); err != nil {
			s.logger.Warn("Failed to release rider after delivery",
				logger.String("rider_id", p.RiderID.String()),
				logger.Err(err),
			)
		}
	}

	s.logger.Info("Delivery status updated",
		logger.String("parcel_id", parcelID.String()),
		logger.String("from", string(p.DeliveryStatus)),
		logger.String("to", string(next)),
	)

	p.DeliveryStatus = next
	return p, nil
}

// DecisionResult reports the outcome of a rider decision
type DecisionResult struct {
	RiderID      uuid.UUID    `json:"riderId"`
	RiderEmail   string       `json:"riderEmail"`
	Status       rider.Status `json:"status"`
	UserPromoted bool         `json:"userPromoted"`
}

// DecideRider applies an admin approval or rejection. Approval also
// promotes the user with the rider's email to the rider role; when no such
// user exists the rider update still stands but the missing promotion is
// surfaced as a partial failure, never as a plain success.
func (s *Service) DecideRider(ctx context.Context, riderID uuid.UUID, status rider.Status) (*DecisionResult, error) {
	if !status.IsDecision() {
		return nil, errs.Validation(fmt.Sprintf("status must be approved or rejected, got %q", status), nil)
	}

	r, err := s.riders.GetByID(ctx, riderID)
	if err != nil {
		if errors.Is(err, rider.ErrRiderNotFound) {
			return nil, errs.ErrRiderNotFound
		}
		return nil, errs.Internal("Failed to load rider", err)
	}

	promoted, err := s.riders.Decide(ctx, riderID, status)
	if err != nil {
		return nil, errs.Internal("Failed to apply rider decision", err)
	}

	result := &DecisionResult{
		RiderID:      riderID,
		RiderEmail:   r.Email,
		Status:       status,
		UserPromoted: promoted,
	}

	s.logger.Info("Rider decision applied",
		logger.String("rider_id", riderID.String()),
		logger.String("status", string(status)),
		logger.Bool("user_promoted", promoted),
	)

	if status == rider.StatusApproved && !promoted {
		return result, errs.Partial(
			fmt.Sprintf("rider approved but no user account found for %s", r.Email),
			map[string]bool{"rider_updated": true, "user_promoted": false}, nil)
	}

	return result, nil
}

func (s *Service) getParcel(ctx context.Context, id uuid.UUID) (*parcel.Parcel, error) {
	p, err := s.parcels.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, parcel.ErrParcelNotFound) {
			return nil, errs.ErrParcelNotFound
		}
		return nil, errs.Internal("Failed to load parcel", err)
	}
	return p, nil
}
