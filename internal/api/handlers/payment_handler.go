package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/zapshift/parcel-delivery/internal/api/dto"
	"github.com/zapshift/parcel-delivery/internal/api/middleware"
	"github.com/zapshift/parcel-delivery/internal/domain/parcel"
	"github.com/zapshift/parcel-delivery/internal/gateway"
	"github.com/zapshift/parcel-delivery/internal/service/reconcile"
	"github.com/zapshift/parcel-delivery/pkg/cache"
	"github.com/zapshift/parcel-delivery/pkg/errors"
	"github.com/zapshift/parcel-delivery/pkg/logger"
	"github.com/zapshift/parcel-delivery/pkg/money"
	"github.com/zapshift/parcel-delivery/pkg/websocket"
)

// CreateCheckoutSession handles POST /create-checkout-session: opens a
// hosted checkout flow for an unpaid parcel and returns its URL.
func (h *Handlers) CreateCheckoutSession(c *gin.Context) {
	var req dto.CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errors.Validation("Invalid request body", err))
		return
	}

	parcelID, err := uuid.Parse(req.ParcelID)
	if err != nil {
		h.respondError(c, errors.Validation("Invalid parcel id", err))
		return
	}
	amountMinor, err := money.FromNumber(req.Cost)
	if err != nil {
		h.respondError(c, errors.Validation("Invalid cost", err))
		return
	}

	p, err := h.parcels.GetByID(c.Request.Context(), parcelID)
	if err != nil {
		if err == parcel.ErrParcelNotFound {
			h.respondError(c, errors.ErrParcelNotFound)
			return
		}
		h.respondError(c, errors.Internal("Failed to load parcel", err))
		return
	}
	if p.IsPaid() {
		h.respondError(c, errors.Conflict("Parcel is already paid", nil))
		return
	}

	sess, err := h.gateway.CreateCheckoutSession(c.Request.Context(), gateway.CheckoutParams{
		AmountMinor:   amountMinor,
		Currency:      h.currency,
		ParcelID:      p.ID.String(),
		ParcelName:    req.ParcelName,
		CustomerEmail: req.SenderEmail,
	})
	if err != nil {
		h.respondError(c, errors.Gateway("Failed to create checkout session", err))
		return
	}

	h.monitor.RecordCheckoutSessionCreated(amountMinor, h.currency)
	h.logger.Info("Checkout session created",
		logger.String("session_id", sess.ID),
		logger.String("parcel_id", p.ID.String()),
	)
	c.JSON(http.StatusOK, gin.H{"url": sess.URL})
}

// PaymentSuccess handles PATCH /payment-success?session_id=...: resolves
// the checkout session and applies it exactly once. Replays are served from
// the cache when possible and are harmless either way.
func (h *Handlers) PaymentSuccess(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		h.respondError(c, errors.Validation("session_id is required", nil))
		return
	}

	ctx := c.Request.Context()
	key := cache.ReconcileResultKey(sessionID)

	if h.redis != nil {
		raw, err := h.redis.Get(ctx, key).Result()
		if err == nil {
			var cached reconcile.Result
			if json.Unmarshal([]byte(raw), &cached) == nil {
				cached.AlreadyProcessed = true
				c.JSON(http.StatusOK, cached)
				return
			}
		} else if err != redis.Nil {
			h.logger.Warn("Reconcile cache lookup failed", logger.Err(err))
		}
	}

	result, err := h.reconciler.Reconcile(ctx, sessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if result.Success {
		h.monitor.RecordPaymentReconciled(result.AmountMinor, result.Currency, result.AlreadyProcessed)
		if h.redis != nil {
			if raw, err := json.Marshal(result); err == nil {
				if err := h.redis.Set(ctx, key, raw, h.reconcileTTL).Err(); err != nil {
					h.logger.Warn("Failed to cache reconcile result", logger.Err(err))
				}
			}
		}
	}

	if result.Success && !result.AlreadyProcessed && h.hub != nil {
		h.hub.BroadcastToParcel(websocket.Message{
			Type: "payment_confirmed",
			Data: result,
		}, result.TrackingID)
	}

	c.JSON(http.StatusOK, result)
}

// ListPayments handles GET /payments: the caller's own payment history.
// Requesting another user's email is forbidden.
func (h *Handlers) ListPayments(c *gin.Context) {
	caller := middleware.CallerEmail(c)
	if caller == "" {
		h.respondError(c, errors.Unauthorized("Authentication required", nil))
		return
	}

	email := c.Query("email")
	if email == "" {
		email = caller
	}
	if email != caller {
		h.respondError(c, errors.Forbidden("forbidden access", nil))
		return
	}

	payments, err := h.payments.ListByEmail(c.Request.Context(), email)
	if err != nil {
		h.respondError(c, errors.Internal("Failed to list payments", err))
		return
	}

	c.JSON(http.StatusOK, dto.NewPaymentResponses(payments))
}
