package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zapshift/parcel-delivery/internal/domain/parcel"
	"github.com/zapshift/parcel-delivery/internal/domain/payment"
	"github.com/zapshift/parcel-delivery/internal/gateway"
	errs "github.com/zapshift/parcel-delivery/pkg/errors"
	"github.com/zapshift/parcel-delivery/pkg/logger"
)

type fakeGateway struct {
	session *gateway.Session
	err     error
}

func (f *fakeGateway) CreateCheckoutSession(ctx context.Context, params gateway.CheckoutParams) (*gateway.CheckoutSession, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeGateway) GetSession(ctx context.Context, sessionID string) (*gateway.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

type fakeParcelStore struct {
	markPaidCalls int
	lastTracking  string
	err           error
}

func (f *fakeParcelStore) MarkPaid(ctx context.Context, id uuid.UUID, trackingID string) error {
	f.markPaidCalls++
	f.lastTracking = trackingID
	return f.err
}

type fakePaymentStore struct {
	byTransaction map[string]*payment.Payment
	createErr     error
	insertLost    bool
	createCalls   int

	// missFirstLookup makes the first GetByTransactionID report not-found,
	// simulating a concurrent writer landing between the replay check and
	// the insert.
	missFirstLookup bool
	lookupCalls     int
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{byTransaction: make(map[string]*payment.Payment)}
}

func (f *fakePaymentStore) Create(ctx context.Context, p *payment.Payment) (bool, error) {
	f.createCalls++
	if f.createErr != nil {
		return false, f.createErr
	}
	if f.insertLost {
		return false, nil
	}
	if _, ok := f.byTransaction[p.TransactionID]; ok {
		return false, nil
	}
	f.byTransaction[p.TransactionID] = p
	return true, nil
}

func (f *fakePaymentStore) GetByTransactionID(ctx context.Context, transactionID string) (*payment.Payment, error) {
	f.lookupCalls++
	if f.missFirstLookup && f.lookupCalls == 1 {
		return nil, payment.ErrPaymentNotFound
	}
	p, ok := f.byTransaction[transactionID]
	if !ok {
		return nil, payment.ErrPaymentNotFound
	}
	return p, nil
}

type fixedTracking struct {
	id string
}

func (f fixedTracking) NewTrackingID() (string, error) {
	return f.id, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "json", Output: "stdout"})
	require.NoError(t, err)
	return log
}

func paidSession(parcelID uuid.UUID) *gateway.Session {
	return &gateway.Session{
		ID:            "cs_test_1",
		TransactionID: "pi_123",
		PaymentStatus: gateway.PaymentStatusPaid,
		AmountMinor:   1250,
		Currency:      "usd",
		CustomerEmail: "sender@example.com",
		ParcelID:      parcelID.String(),
		ParcelName:    "Books",
	}
}

func TestReconcilePaidSession(t *testing.T) {
	parcelID := uuid.New()
	parcels := &fakeParcelStore{}
	payments := newFakePaymentStore()
	svc := NewService(&fakeGateway{session: paidSession(parcelID)}, parcels, payments, fixedTracking{id: "PRC-2026-AAAA1111"}, testLogger(t))

	result, err := svc.Reconcile(context.Background(), "cs_test_1")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.False(t, result.AlreadyProcessed)
	assert.True(t, result.ParcelUpdated)
	assert.True(t, result.PaymentRecorded)
	assert.Equal(t, "PRC-2026-AAAA1111", result.TrackingID)
	assert.Equal(t, "pi_123", result.TransactionID)
	assert.Equal(t, int64(1250), result.AmountMinor)

	assert.Equal(t, 1, parcels.markPaidCalls)
	assert.Equal(t, "PRC-2026-AAAA1111", parcels.lastTracking)

	recorded := payments.byTransaction["pi_123"]
	require.NotNil(t, recorded)
	assert.Equal(t, parcelID, recorded.ParcelID)
	assert.Equal(t, payment.StatusPaid, recorded.Status)
}

func TestReconcileReplayReturnsStoredResult(t *testing.T) {
	parcelID := uuid.New()
	parcels := &fakeParcelStore{}
	payments := newFakePaymentStore()
	payments.byTransaction["pi_123"] = &payment.Payment{
		TransactionID: "pi_123",
		TrackingID:    "PRC-2026-FIRSTONE",
		ParcelID:      parcelID,
	}
	svc := NewService(&fakeGateway{session: paidSession(parcelID)}, parcels, payments, fixedTracking{id: "PRC-2026-NEVERUSE"}, testLogger(t))

	result, err := svc.Reconcile(context.Background(), "cs_test_1")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.True(t, result.AlreadyProcessed)
	assert.Equal(t, "PRC-2026-FIRSTONE", result.TrackingID)

	// no new work done on a replay
	assert.Equal(t, 0, parcels.markPaidCalls)
	assert.Equal(t, 0, payments.createCalls)
}

func TestReconcileUnpaidSessionMutatesNothing(t *testing.T) {
	parcelID := uuid.New()
	sess := paidSession(parcelID)
	sess.PaymentStatus = "unpaid"
	parcels := &fakeParcelStore{}
	payments := newFakePaymentStore()
	svc := NewService(&fakeGateway{session: sess}, parcels, payments, fixedTracking{id: "PRC-2026-AAAA1111"}, testLogger(t))

	result, err := svc.Reconcile(context.Background(), "cs_test_1")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 0, parcels.markPaidCalls)
	assert.Equal(t, 0, payments.createCalls)
}

func TestReconcileGatewayError(t *testing.T) {
	svc := NewService(&fakeGateway{err: errors.New("provider down")}, &fakeParcelStore{}, newFakePaymentStore(), fixedTracking{id: "x"}, testLogger(t))

	_, err := svc.Reconcile(context.Background(), "cs_test_1")
	require.Error(t, err)
	assert.Equal(t, "GATEWAY_ERROR", errs.GetAppError(err).Code)
}

func TestReconcilePaidSessionWithoutIntentIsGatewayError(t *testing.T) {
	sess := paidSession(uuid.New())
	sess.TransactionID = ""
	svc := NewService(&fakeGateway{session: sess}, &fakeParcelStore{}, newFakePaymentStore(), fixedTracking{id: "x"}, testLogger(t))

	_, err := svc.Reconcile(context.Background(), "cs_test_1")
	require.Error(t, err)
	assert.Equal(t, "GATEWAY_ERROR", errs.GetAppError(err).Code)
}

func TestReconcileBadParcelMetadata(t *testing.T) {
	sess := paidSession(uuid.New())
	sess.ParcelID = "not-a-uuid"
	svc := NewService(&fakeGateway{session: sess}, &fakeParcelStore{}, newFakePaymentStore(), fixedTracking{id: "x"}, testLogger(t))

	_, err := svc.Reconcile(context.Background(), "cs_test_1")
	require.Error(t, err)
	assert.Equal(t, "GATEWAY_ERROR", errs.GetAppError(err).Code)
}

func TestReconcileParcelMissing(t *testing.T) {
	parcels := &fakeParcelStore{err: parcel.ErrParcelNotFound}
	svc := NewService(&fakeGateway{session: paidSession(uuid.New())}, parcels, newFakePaymentStore(), fixedTracking{id: "x"}, testLogger(t))

	_, err := svc.Reconcile(context.Background(), "cs_test_1")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", errs.GetAppError(err).Code)
}

func TestReconcileLostInsertRace(t *testing.T) {
	parcelID := uuid.New()
	parcels := &fakeParcelStore{}
	payments := newFakePaymentStore()
	payments.insertLost = true
	payments.missFirstLookup = true
	payments.byTransaction["pi_123"] = &payment.Payment{
		TransactionID: "pi_123",
		TrackingID:    "PRC-2026-WINNER00",
	}
	svc := NewService(&fakeGateway{session: paidSession(parcelID)}, parcels, payments, fixedTracking{id: "PRC-2026-LOSER000"}, testLogger(t))

	result, err := svc.Reconcile(context.Background(), "cs_test_1")
	require.NoError(t, err)

	// the concurrent winner's record is authoritative
	assert.True(t, result.Success)
	assert.True(t, result.AlreadyProcessed)
	assert.Equal(t, "PRC-2026-WINNER00", result.TrackingID)
	assert.Equal(t, 1, payments.createCalls)

	// the loser's MarkPaid stamped its own code first; the winner's must be
	// the one left on the parcel
	assert.Equal(t, 2, parcels.markPaidCalls)
	assert.Equal(t, "PRC-2026-WINNER00", parcels.lastTracking)
}

func TestReconcilePartialFailureOnPaymentInsert(t *testing.T) {
	parcelID := uuid.New()
	parcels := &fakeParcelStore{}
	payments := newFakePaymentStore()
	payments.createErr = errors.New("connection reset")
	svc := NewService(&fakeGateway{session: paidSession(parcelID)}, parcels, payments, fixedTracking{id: "PRC-2026-AAAA1111"}, testLogger(t))

	_, err := svc.Reconcile(context.Background(), "cs_test_1")
	require.Error(t, err)

	appErr := errs.GetAppError(err)
	assert.Equal(t, "PARTIAL_FAILURE", appErr.Code)
	assert.Equal(t, map[string]bool{"parcel_updated": true, "payment_recorded": false}, appErr.SubUpdates)
	assert.Equal(t, 1, parcels.markPaidCalls)
}
