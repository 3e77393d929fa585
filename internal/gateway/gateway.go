// Package gateway wraps the hosted checkout provider. The core only ever
// talks to the Gateway interface; the Stripe implementation lives next to it.
package gateway

import "context"

// PaymentStatusPaid is the session payment status reported once the hosted
// checkout completed successfully.
const PaymentStatusPaid = "paid"

// CheckoutParams describe the hosted checkout session to create
type CheckoutParams struct {
	AmountMinor   int64
	Currency      string
	ParcelID      string
	ParcelName    string
	CustomerEmail string
}

// CheckoutSession is a freshly created hosted checkout flow
type CheckoutSession struct {
	ID  string
	URL string
}

// Session is the resolved state of a checkout session. TransactionID is the
// provider's payment-intent id; it is empty while the provider has not
// attached one yet.
type Session struct {
	ID            string
	TransactionID string
	PaymentStatus string
	AmountMinor   int64
	Currency      string
	CustomerEmail string
	ParcelID      string
	ParcelName    string
}

// Paid reports whether the session's checkout settled
func (s *Session) Paid() bool {
	return s.PaymentStatus == PaymentStatusPaid
}

// Gateway creates checkout sessions and resolves them by id
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	GetSession(ctx context.Context, sessionID string) (*Session, error)
}
