package parcel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeliveryStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from DeliveryStatus
		to   DeliveryStatus
		want bool
	}{
		{name: "created to pending-pickup", from: DeliveryCreated, to: DeliveryPendingPickup, want: true},
		{name: "pending-pickup to driver-assign", from: DeliveryPendingPickup, to: DeliveryDriverAssign, want: true},
		{name: "driver-assign to in-delivery", from: DeliveryDriverAssign, to: DeliveryInDelivery, want: true},
		{name: "in-delivery to delivered", from: DeliveryInDelivery, to: DeliveryDelivered, want: true},
		{name: "skip ahead", from: DeliveryCreated, to: DeliveryDelivered, want: true},
		{name: "same status replay", from: DeliveryInDelivery, to: DeliveryInDelivery, want: true},
		{name: "backward", from: DeliveryDelivered, to: DeliveryInDelivery, want: false},
		{name: "delivered cannot reset", from: DeliveryDelivered, to: DeliveryCreated, want: false},
		{name: "unknown target", from: DeliveryCreated, to: "lost", want: false},
		{name: "unknown source", from: "lost", to: DeliveryCreated, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestDeliveryStatusRequiresPayment(t *testing.T) {
	assert.False(t, DeliveryCreated.RequiresPayment())
	assert.False(t, DeliveryPendingPickup.RequiresPayment())
	assert.True(t, DeliveryDriverAssign.RequiresPayment())
	assert.True(t, DeliveryInDelivery.RequiresPayment())
	assert.True(t, DeliveryDelivered.RequiresPayment())
}

func TestParcelIsPaid(t *testing.T) {
	p := &Parcel{PaymentStatus: PaymentUnpaid}
	assert.False(t, p.IsPaid())
	p.PaymentStatus = PaymentPaid
	assert.True(t, p.IsPaid())
}
