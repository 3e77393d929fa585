package gateway

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeConfig holds Stripe gateway configuration
type StripeConfig struct {
	SecretKey  string
	SiteDomain string
	Currency   string
}

// StripeGateway implements Gateway on Stripe hosted checkout
type StripeGateway struct {
	api        *client.API
	siteDomain string
	currency   string
}

// NewStripeGateway creates a Stripe-backed gateway with its own API client
// (no package-level key, the client is injected wherever it is used).
func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)

	currency := cfg.Currency
	if currency == "" {
		currency = "usd"
	}

	return &StripeGateway{
		api:        api,
		siteDomain: cfg.SiteDomain,
		currency:   currency,
	}
}

// CreateCheckoutSession creates a hosted checkout session for a parcel.
// The parcel id and name travel in the session metadata so reconciliation
// can find the parcel without any extra lookup table.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	currency := p.Currency
	if currency == "" {
		currency = g.currency
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(p.CustomerEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(p.AmountMinor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Parcel delivery for %s", p.ParcelName)),
					},
				},
			},
		},
		SuccessURL: stripe.String(g.siteDomain + "/dashboard/payment-success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(g.siteDomain + "/dashboard/payment-cancelled"),
	}
	params.Context = ctx
	params.AddMetadata("parcelId", p.ParcelID)
	params.AddMetadata("parcelName", p.ParcelName)

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// GetSession resolves a checkout session by id
func (g *StripeGateway) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session %s: %w", sessionID, err)
	}

	out := &Session{
		ID:            sess.ID,
		PaymentStatus: string(sess.PaymentStatus),
		AmountMinor:   sess.AmountTotal,
		Currency:      string(sess.Currency),
		CustomerEmail: sess.CustomerEmail,
		ParcelID:      sess.Metadata["parcelId"],
		ParcelName:    sess.Metadata["parcelName"],
	}
	if sess.PaymentIntent != nil {
		out.TransactionID = sess.PaymentIntent.ID
	}
	if out.CustomerEmail == "" && sess.CustomerDetails != nil {
		out.CustomerEmail = sess.CustomerDetails.Email
	}

	return out, nil
}
