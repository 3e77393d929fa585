package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zapshift/parcel-delivery/internal/api/dto"
	"github.com/zapshift/parcel-delivery/internal/domain/rider"
	"github.com/zapshift/parcel-delivery/pkg/cache"
	"github.com/zapshift/parcel-delivery/pkg/errors"
	"github.com/zapshift/parcel-delivery/pkg/logger"
	"github.com/zapshift/parcel-delivery/pkg/websocket"
)

// CreateRider handles POST /riders: submits a rider application
func (h *Handlers) CreateRider(c *gin.Context) {
	var req dto.CreateRiderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errors.Validation("Invalid request body", err))
		return
	}

	now := time.Now()
	r := &rider.Rider{
		ID:         uuid.New(),
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		District:   req.District,
		Status:     rider.StatusPending,
		WorkStatus: rider.WorkUnavailable,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.riders.Create(c.Request.Context(), r); err != nil {
		h.respondError(c, errors.Internal("Failed to create rider", err))
		return
	}

	h.logger.Info("Rider application submitted",
		logger.String("rider_id", r.ID.String()),
		logger.String("email", r.Email),
		logger.String("district", r.District),
	)
	if h.hub != nil {
		h.hub.BroadcastToType("dashboard", websocket.Message{Type: "rider_applied", Data: r})
	}
	c.JSON(http.StatusCreated, gin.H{"insertedId": r.ID})
}

// ListRiders handles GET /riders with optional status, district and
// workStatus filters.
func (h *Handlers) ListRiders(c *gin.Context) {
	var f rider.Filter
	if s := c.Query("status"); s != "" {
		status := rider.Status(s)
		if !status.IsValid() {
			h.respondError(c, errors.Validation("unknown rider status", nil))
			return
		}
		f.Status = status
	}
	if ws := c.Query("workStatus"); ws != "" {
		workStatus := rider.WorkStatus(ws)
		if !workStatus.IsValid() {
			h.respondError(c, errors.Validation("unknown work status", nil))
			return
		}
		f.WorkStatus = workStatus
	}
	f.District = c.Query("district")

	riders, err := h.riders.List(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, errors.Internal("Failed to list riders", err))
		return
	}
	if riders == nil {
		riders = []*rider.Rider{}
	}

	c.JSON(http.StatusOK, riders)
}

// DecideRider handles PATCH /riders/:id (admin): approve or reject an
// application. Approval promotes the matching user to the rider role, so
// any cached role for that email is invalidated.
func (h *Handlers) DecideRider(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.respondError(c, errors.Validation("Invalid rider id", err))
		return
	}

	var req dto.DecideRiderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errors.Validation("Invalid request body", err))
		return
	}

	result, err := h.lifecycle.DecideRider(c.Request.Context(), id, rider.Status(req.Status))
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.monitor.RecordRiderDecision(string(result.Status))
	if h.redis != nil && result.UserPromoted {
		if err := h.redis.Del(c.Request.Context(), cache.RoleKey(result.RiderEmail)).Err(); err != nil {
			h.logger.Warn("Failed to invalidate cached role",
				logger.String("email", result.RiderEmail),
				logger.Err(err),
			)
		}
	}

	c.JSON(http.StatusOK, result)
}

// DeleteRider handles DELETE /riders/:id (admin)
func (h *Handlers) DeleteRider(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.respondError(c, errors.Validation("Invalid rider id", err))
		return
	}

	if err := h.riders.Delete(c.Request.Context(), id); err != nil {
		if err == rider.ErrRiderNotFound {
			h.respondError(c, errors.ErrRiderNotFound)
			return
		}
		h.respondError(c, errors.Internal("Failed to delete rider", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"deletedCount": 1})
}
