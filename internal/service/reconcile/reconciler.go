// Package reconcile applies a completed checkout session to the durable
// records exactly once. The unique transaction id in the payment store is
// the idempotency fence: replays and concurrent attempts for the same
// session all converge on the first recorded payment.
package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/zapshift/parcel-delivery/internal/domain/parcel"
	"github.com/zapshift/parcel-delivery/internal/domain/payment"
	"github.com/zapshift/parcel-delivery/internal/gateway"
	errs "github.com/zapshift/parcel-delivery/pkg/errors"
	"github.com/zapshift/parcel-delivery/pkg/logger"
)

// ParcelStore is the slice of parcel persistence the engine needs
type ParcelStore interface {
	MarkPaid(ctx context.Context, id uuid.UUID, trackingID string) error
}

// PaymentStore is the slice of payment persistence the engine needs
type PaymentStore interface {
	Create(ctx context.Context, p *payment.Payment) (inserted bool, err error)
	GetByTransactionID(ctx context.Context, transactionID string) (*payment.Payment, error)
}

// TrackingIDSource mints shipment codes
type TrackingIDSource interface {
	NewTrackingID() (string, error)
}

// Service is the payment reconciliation engine
type Service struct {
	gateway  gateway.Gateway
	parcels  ParcelStore
	payments PaymentStore
	tracking TrackingIDSource
	logger   *logger.Logger
	now      func() time.Time
}

// NewService creates a reconciliation engine
func NewService(gw gateway.Gateway, parcels ParcelStore, payments PaymentStore, tracking TrackingIDSource, log *logger.Logger) *Service {
	return &Service{
		gateway:  gw,
		parcels:  parcels,
		payments: payments,
		tracking: tracking,
		logger:   log,
		now:      time.Now,
	}
}

// Result reports the outcome of a reconciliation. Both sub-updates are
// reported individually so callers can see exactly what was mutated.
type Result struct {
	Success          bool   `json:"success"`
	AlreadyProcessed bool   `json:"alreadyProcessed"`
	TrackingID       string `json:"trackingId,omitempty"`
	TransactionID    string `json:"transactionId,omitempty"`
	ParcelUpdated    bool   `json:"parcelUpdated"`
	PaymentRecorded  bool   `json:"paymentRecorded"`
	Message          string `json:"message,omitempty"`

	AmountMinor int64  `json:"-"`
	Currency    string `json:"-"`
}

// Reconcile resolves the checkout session and applies its outcome at most
// once. An unpaid session yields Success=false with no mutation; a replay
// of an already-recorded session yields the stored tracking id with no new
// work done.
func (s *Service) Reconcile(ctx context.Context, sessionID string) (*Result, error) {
	sess, err := s.gateway.GetSession(ctx, sessionID)
	if err != nil {
		return nil, errs.Gateway("Failed to retrieve checkout session", err)
	}

	transactionID := sess.TransactionID

	if transactionID != "" {
		existing, err := s.payments.GetByTransactionID(ctx, transactionID)
		if err != nil && !errors.Is(err, payment.ErrPaymentNotFound) {
			return nil, errs.Internal("Failed to look up payment record", err)
		}
		if existing != nil {
			s.logger.Info("Reconciliation replayed, payment already recorded",
				logger.String("session_id", sessionID),
				logger.String("transaction_id", transactionID),
				logger.String("tracking_id", existing.TrackingID),
			)
			return &Result{
				Success:          true,
				AlreadyProcessed: true,
				TrackingID:       existing.TrackingID,
				TransactionID:    transactionID,
				Message:          "transaction already recorded",
			}, nil
		}
	}

	if !sess.Paid() {
		s.logger.Info("Checkout session not paid, nothing to reconcile",
			logger.String("session_id", sessionID),
			logger.String("payment_status", sess.PaymentStatus),
		)
		return &Result{
			Success:       false,
			TransactionID: transactionID,
			Message:       "checkout session is not paid",
		}, nil
	}

	if transactionID == "" {
		return nil, errs.Gateway("Paid session carries no payment intent", nil)
	}

	parcelID, err := uuid.Parse(sess.ParcelID)
	if err != nil {
		return nil, errs.Gateway("Session metadata carries no valid parcel id", err)
	}

	trackingID, err := s.tracking.NewTrackingID()
	if err != nil {
		return nil, errs.Internal("Failed to generate tracking id", err)
	}

	// Parcel first, payment second: if we crash in between, the retry
	// re-marks the parcel (converging to the same state) and then records
	// the payment, so the fence still holds without a cross-table
	// transaction.
	if err := s.parcels.MarkPaid(ctx, parcelID, trackingID); err != nil {
		if errors.Is(err, parcel.ErrParcelNotFound) {
			return nil, errs.NotFound("Parcel referenced by checkout session not found", err)
		}
		return nil, errs.Internal("Failed to update parcel payment state", err)
	}

	record := &payment.Payment{
		ID:            uuid.New(),
		TransactionID: transactionID,
		AmountMinor:   sess.AmountMinor,
		Currency:      sess.Currency,
		CustomerEmail: sess.CustomerEmail,
		ParcelID:      parcelID,
		ParcelName:    sess.ParcelName,
		Status:        payment.StatusPaid,
		TrackingID:    trackingID,
		PaidAt:        s.now(),
	}

	inserted, err := s.payments.Create(ctx, record)
	if err != nil {
		// the parcel update committed, so this must not look like success
		return nil, errs.Partial("Parcel marked paid but payment record failed",
			map[string]bool{"parcel_updated": true, "payment_recorded": false}, err)
	}

	if !inserted {
		// lost a concurrent race for the same transaction id: the winner's
		// record is authoritative, so re-mark the parcel with the winner's
		// tracking id (our own MarkPaid above stamped the losing one)
		existing, err := s.payments.GetByTransactionID(ctx, transactionID)
		if err != nil {
			return nil, errs.Internal("Failed to load winning payment record", err)
		}
		if err := s.parcels.MarkPaid(ctx, parcelID, existing.TrackingID); err != nil {
			return nil, errs.Internal("Failed to restore winning tracking id", err)
		}
		s.logger.Info("Concurrent reconciliation lost insert race",
			logger.String("session_id", sessionID),
			logger.String("transaction_id", transactionID),
		)
		return &Result{
			Success:          true,
			AlreadyProcessed: true,
			TrackingID:       existing.TrackingID,
			TransactionID:    transactionID,
			Message:          "transaction already recorded",
		}, nil
	}

	s.logger.Info("Payment reconciled",
		logger.String("session_id", sessionID),
		logger.String("transaction_id", transactionID),
		logger.String("tracking_id", trackingID),
		logger.Int64("amount_minor", sess.AmountMinor),
		logger.String("currency", sess.Currency),
	)

	return &Result{
		Success:         true,
		TrackingID:      trackingID,
		TransactionID:   transactionID,
		ParcelUpdated:   true,
		PaymentRecorded: true,
		Message:         "payment recorded",
		AmountMinor:     sess.AmountMinor,
		Currency:        sess.Currency,
	}, nil
}
