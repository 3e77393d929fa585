package monitoring

import (
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// Config holds New Relic configuration
type Config struct {
	LicenseKey string
	AppName    string
	Enabled    bool
	LogLevel   string
}

// Agent wraps the New Relic application
type Agent struct {
	*newrelic.Application
	enabled bool
}

// New creates a new New Relic agent. A disabled agent is returned when no
// license key is configured, and every recording method is a no-op on it.
func New(cfg Config) (*Agent, error) {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return &Agent{nil, false}, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(true),
		newrelic.ConfigDistributedTracerEnabled(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create New Relic application: %w", err)
	}

	return &Agent{app, true}, nil
}

// IsEnabled returns whether New Relic is enabled
func (a *Agent) IsEnabled() bool {
	return a.enabled
}

// Shutdown gracefully shuts down the New Relic agent
func (a *Agent) Shutdown(timeout time.Duration) {
	if !a.enabled || a.Application == nil {
		return
	}
	a.Application.Shutdown(timeout)
}

// RecordCustomEvent records a custom event
func (a *Agent) RecordCustomEvent(eventType string, params map[string]interface{}) {
	if !a.enabled || a.Application == nil {
		return
	}
	a.Application.RecordCustomEvent(eventType, params)
}

// Custom event helpers

// RecordParcelCreated records a new parcel booking
func (a *Agent) RecordParcelCreated(district string, costMinor int64) {
	a.RecordCustomEvent("ParcelCreated", map[string]interface{}{
		"district":   district,
		"cost_minor": costMinor,
		"timestamp":  time.Now().Unix(),
	})
}

// RecordCheckoutSessionCreated records a hosted checkout session
func (a *Agent) RecordCheckoutSessionCreated(amountMinor int64, currency string) {
	a.RecordCustomEvent("CheckoutSessionCreated", map[string]interface{}{
		"amount_minor": amountMinor,
		"currency":     currency,
	})
}

// RecordPaymentReconciled records the outcome of a reconciliation
func (a *Agent) RecordPaymentReconciled(amountMinor int64, currency string, alreadyProcessed bool) {
	a.RecordCustomEvent("PaymentReconciled", map[string]interface{}{
		"amount_minor":      amountMinor,
		"currency":          currency,
		"already_processed": alreadyProcessed,
	})
}

// RecordRiderDecision records an admin approval or rejection
func (a *Agent) RecordRiderDecision(status string) {
	a.RecordCustomEvent("RiderDecision", map[string]interface{}{
		"status": status,
	})
}

// RecordParcelAssigned records a rider assignment
func (a *Agent) RecordParcelAssigned(district string) {
	a.RecordCustomEvent("ParcelAssigned", map[string]interface{}{
		"district": district,
	})
}
