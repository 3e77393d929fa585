package lifecycle

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zapshift/parcel-delivery/internal/domain/parcel"
	"github.com/zapshift/parcel-delivery/internal/domain/rider"
	errs "github.com/zapshift/parcel-delivery/pkg/errors"
	"github.com/zapshift/parcel-delivery/pkg/logger"
)

type fakeParcelStore struct {
	parcels     map[uuid.UUID]*parcel.Parcel
	assignCalls int
	statusCalls int
	lastAssign  parcel.Assignee
	lastStatus  parcel.DeliveryStatus
}

func newFakeParcelStore() *fakeParcelStore {
	return &fakeParcelStore{parcels: make(map[uuid.UUID]*parcel.Parcel)}
}

func (f *fakeParcelStore) Create(ctx context.Context, p *parcel.Parcel) error {
	f.parcels[p.ID] = p
	return nil
}

func (f *fakeParcelStore) GetByID(ctx context.Context, id uuid.UUID) (*parcel.Parcel, error) {
	p, ok := f.parcels[id]
	if !ok {
		return nil, parcel.ErrParcelNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeParcelStore) Assign(ctx context.Context, id uuid.UUID, a parcel.Assignee) error {
	f.assignCalls++
	f.lastAssign = a
	p, ok := f.parcels[id]
	if !ok {
		return parcel.ErrParcelNotFound
	}
	p.DeliveryStatus = parcel.DeliveryDriverAssign
	p.RiderID = &a.ID
	p.RiderName = &a.Name
	p.RiderEmail = &a.Email
	return nil
}

func (f *fakeParcelStore) SetDeliveryStatus(ctx context.Context, id uuid.UUID, status parcel.DeliveryStatus) error {
	f.statusCalls++
	f.lastStatus = status
	p, ok := f.parcels[id]
	if !ok {
		return parcel.ErrParcelNotFound
	}
	p.DeliveryStatus = status
	return nil
}

type fakeRiderStore struct {
	riders      map[uuid.UUID]*rider.Rider
	promoted    bool
	decideCalls int
	lastStatus  rider.Status
}

func newFakeRiderStore() *fakeRiderStore {
	return &fakeRiderStore{riders: make(map[uuid.UUID]*rider.Rider)}
}

func (f *fakeRiderStore) GetByID(ctx context.Context, id uuid.UUID) (*rider.Rider, error) {
	r, ok := f.riders[id]
	if !ok {
		return nil, rider.ErrRiderNotFound
	}
	return r, nil
}

func (f *fakeRiderStore) Decide(ctx context.Context, id uuid.UUID, status rider.Status) (bool, error) {
	f.decideCalls++
	f.lastStatus = status
	if r, ok := f.riders[id]; ok {
		r.Status = status
	}
	return f.promoted, nil
}

func (f *fakeRiderStore) SetWorkStatus(ctx context.Context, id uuid.UUID, ws rider.WorkStatus) error {
	r, ok := f.riders[id]
	if !ok {
		return rider.ErrRiderNotFound
	}
	r.WorkStatus = ws
	return nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "json", Output: "stdout"})
	require.NoError(t, err)
	return log
}

func newTestService(t *testing.T) (*Service, *fakeParcelStore, *fakeRiderStore) {
	parcels := newFakeParcelStore()
	riders := newFakeRiderStore()
	return NewService(parcels, riders, testLogger(t)), parcels, riders
}

func seedParcel(f *fakeParcelStore, paid bool, status parcel.DeliveryStatus) *parcel.Parcel {
	p := &parcel.Parcel{
		ID:             uuid.New(),
		SenderEmail:    "sender@example.com",
		Name:           "Books",
		CostMinor:      1250,
		District:       "Dhaka",
		PaymentStatus:  parcel.PaymentUnpaid,
		DeliveryStatus: status,
	}
	if paid {
		p.PaymentStatus = parcel.PaymentPaid
		tid := "PRC-2026-AAAA1111"
		p.TrackingID = &tid
	}
	f.parcels[p.ID] = p
	return p
}

func seedRider(f *fakeRiderStore, status rider.Status) *rider.Rider {
	r := &rider.Rider{
		ID:       uuid.New(),
		Name:     "Rahim",
		Email:    "rahim@example.com",
		District: "Dhaka",
		Status:   status,
	}
	f.riders[r.ID] = r
	return r
}

func TestCreateParcelDefaults(t *testing.T) {
	svc, parcels, _ := newTestService(t)

	p := &parcel.Parcel{
		SenderEmail: "sender@example.com",
		Name:        "Books",
		CostMinor:   1250,
		District:    "Dhaka",
	}
	require.NoError(t, svc.CreateParcel(context.Background(), p))

	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, parcel.PaymentUnpaid, p.PaymentStatus)
	assert.Equal(t, parcel.DeliveryCreated, p.DeliveryStatus)
	assert.Nil(t, p.TrackingID)
	assert.Nil(t, p.RiderID)
	assert.False(t, p.CreatedAt.IsZero())
	assert.Contains(t, parcels.parcels, p.ID)
}

func TestCreateParcelValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	tests := []struct {
		name   string
		parcel parcel.Parcel
	}{
		{name: "missing sender", parcel: parcel.Parcel{Name: "x", CostMinor: 1, District: "d"}},
		{name: "missing name", parcel: parcel.Parcel{SenderEmail: "a@b.c", CostMinor: 1, District: "d"}},
		{name: "zero cost", parcel: parcel.Parcel{SenderEmail: "a@b.c", Name: "x", District: "d"}},
		{name: "missing district", parcel: parcel.Parcel{SenderEmail: "a@b.c", Name: "x", CostMinor: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.parcel
			err := svc.CreateParcel(context.Background(), &p)
			require.Error(t, err)
			assert.Equal(t, "VALIDATION_ERROR", errs.GetAppError(err).Code)
		})
	}
}

func TestAssignRider(t *testing.T) {
	svc, parcels, riders := newTestService(t)
	p := seedParcel(parcels, true, parcel.DeliveryPendingPickup)
	r := seedRider(riders, rider.StatusApproved)

	got, err := svc.AssignRider(context.Background(), p.ID, parcel.Assignee{
		ID: r.ID, Name: r.Name, Email: r.Email,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, parcels.assignCalls)
	assert.Equal(t, parcel.DeliveryDriverAssign, got.DeliveryStatus)
	require.NotNil(t, got.RiderEmail)
	assert.Equal(t, r.Email, *got.RiderEmail)
}

func TestAssignRiderRequiresPayment(t *testing.T) {
	svc, parcels, riders := newTestService(t)
	p := seedParcel(parcels, false, parcel.DeliveryCreated)
	r := seedRider(riders, rider.StatusApproved)

	_, err := svc.AssignRider(context.Background(), p.ID, parcel.Assignee{ID: r.ID, Name: r.Name, Email: r.Email})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", errs.GetAppError(err).Code)
	assert.Equal(t, 0, parcels.assignCalls)
}

func TestAssignRiderRejectsUnapprovedRider(t *testing.T) {
	svc, parcels, riders := newTestService(t)
	p := seedParcel(parcels, true, parcel.DeliveryPendingPickup)
	r := seedRider(riders, rider.StatusPending)

	_, err := svc.AssignRider(context.Background(), p.ID, parcel.Assignee{ID: r.ID, Name: r.Name, Email: r.Email})
	require.Error(t, err)
	assert.Equal(t, 0, parcels.assignCalls)
}

func TestAssignRiderRejectsDeliveredParcel(t *testing.T) {
	svc, parcels, riders := newTestService(t)
	p := seedParcel(parcels, true, parcel.DeliveryDelivered)
	r := seedRider(riders, rider.StatusApproved)

	_, err := svc.AssignRider(context.Background(), p.ID, parcel.Assignee{ID: r.ID, Name: r.Name, Email: r.Email})
	require.Error(t, err)
	assert.Equal(t, 0, parcels.assignCalls)
}

func TestUpdateDeliveryStatusForwardOnly(t *testing.T) {
	tests := []struct {
		name    string
		paid    bool
		from    parcel.DeliveryStatus
		to      parcel.DeliveryStatus
		wantErr string
	}{
		{name: "forward move", paid: true, from: parcel.DeliveryDriverAssign, to: parcel.DeliveryInDelivery},
		{name: "skip ahead", paid: true, from: parcel.DeliveryDriverAssign, to: parcel.DeliveryDelivered},
		{name: "backward move rejected", paid: true, from: parcel.DeliveryInDelivery, to: parcel.DeliveryPendingPickup, wantErr: "CONFLICT"},
		{name: "unpaid cannot reach in-delivery", paid: false, from: parcel.DeliveryCreated, to: parcel.DeliveryInDelivery, wantErr: "CONFLICT"},
		{name: "unknown status", paid: true, from: parcel.DeliveryCreated, to: "lost", wantErr: "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, parcels, _ := newTestService(t)
			p := seedParcel(parcels, tt.paid, tt.from)

			got, err := svc.UpdateDeliveryStatus(context.Background(), p.ID, tt.to)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, errs.GetAppError(err).Code)
				assert.Equal(t, 0, parcels.statusCalls)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, got.DeliveryStatus)
			assert.Equal(t, 1, parcels.statusCalls)
		})
	}
}

func TestUpdateDeliveryStatusReleasesRiderOnDelivery(t *testing.T) {
	svc, parcels, riders := newTestService(t)
	r := seedRider(riders, rider.StatusApproved)
	r.WorkStatus = rider.WorkInDelivery
	p := seedParcel(parcels, true, parcel.DeliveryInDelivery)
	p.RiderID = &r.ID

	_, err := svc.UpdateDeliveryStatus(context.Background(), p.ID, parcel.DeliveryDelivered)
	require.NoError(t, err)
	assert.Equal(t, rider.WorkAvailable, r.WorkStatus)
}

func TestUpdateDeliveryStatusSameStatusIsNoOp(t *testing.T) {
	svc, parcels, _ := newTestService(t)
	p := seedParcel(parcels, true, parcel.DeliveryInDelivery)

	got, err := svc.UpdateDeliveryStatus(context.Background(), p.ID, parcel.DeliveryInDelivery)
	require.NoError(t, err)
	assert.Equal(t, parcel.DeliveryInDelivery, got.DeliveryStatus)
	assert.Equal(t, 0, parcels.statusCalls)
}

func TestDecideRiderApproval(t *testing.T) {
	svc, _, riders := newTestService(t)
	r := seedRider(riders, rider.StatusPending)
	riders.promoted = true

	result, err := svc.DecideRider(context.Background(), r.ID, rider.StatusApproved)
	require.NoError(t, err)

	assert.Equal(t, rider.StatusApproved, result.Status)
	assert.True(t, result.UserPromoted)
	assert.Equal(t, r.Email, result.RiderEmail)
}

func TestDecideRiderRejectionSkipsPromotion(t *testing.T) {
	svc, _, riders := newTestService(t)
	r := seedRider(riders, rider.StatusPending)
	riders.promoted = false

	result, err := svc.DecideRider(context.Background(), r.ID, rider.StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, rider.StatusRejected, result.Status)
	assert.False(t, result.UserPromoted)
}

func TestDecideRiderApprovalWithoutUserIsPartial(t *testing.T) {
	svc, _, riders := newTestService(t)
	r := seedRider(riders, rider.StatusPending)
	riders.promoted = false

	result, err := svc.DecideRider(context.Background(), r.ID, rider.StatusApproved)
	require.Error(t, err)
	require.NotNil(t, result)

	appErr := errs.GetAppError(err)
	assert.Equal(t, "PARTIAL_FAILURE", appErr.Code)
	assert.Equal(t, map[string]bool{"rider_updated": true, "user_promoted": false}, appErr.SubUpdates)
	assert.True(t, result.Status == rider.StatusApproved)
	assert.False(t, result.UserPromoted)
}

func TestDecideRiderRejectsNonDecisionStatus(t *testing.T) {
	svc, _, riders := newTestService(t)
	r := seedRider(riders, rider.StatusPending)

	_, err := svc.DecideRider(context.Background(), r.ID, rider.StatusPending)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", errs.GetAppError(err).Code)
	assert.Equal(t, 0, riders.decideCalls)
}
