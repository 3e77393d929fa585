package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zapshift/parcel-delivery/internal/api/dto"
	"github.com/zapshift/parcel-delivery/internal/api/middleware"
	"github.com/zapshift/parcel-delivery/internal/domain/parcel"
	"github.com/zapshift/parcel-delivery/pkg/errors"
	"github.com/zapshift/parcel-delivery/pkg/money"
	"github.com/zapshift/parcel-delivery/pkg/websocket"
)

// ListParcels handles GET /parcels with optional email, district and
// deliveryStatus filters.
func (h *Handlers) ListParcels(c *gin.Context) {
	f := parcel.Filter{
		SenderEmail: c.Query("email"),
		District:    c.Query("district"),
	}
	if s := c.Query("deliveryStatus"); s != "" {
		status := parcel.DeliveryStatus(s)
		if !status.IsValid() {
			h.respondError(c, errors.Validation("unknown delivery status", nil))
			return
		}
		f.DeliveryStatus = status
	}

	parcels, err := h.parcels.List(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, errors.Internal("Failed to list parcels", err))
		return
	}

	c.JSON(http.StatusOK, dto.NewParcelResponses(parcels))
}

// CreateParcel handles POST /parcels
func (h *Handlers) CreateParcel(c *gin.Context) {
	var req dto.CreateParcelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errors.Validation("Invalid request body", err))
		return
	}

	costMinor, err := money.FromNumber(req.Cost)
	if err != nil {
		h.respondError(c, errors.Validation("Invalid cost", err))
		return
	}

	p := &parcel.Parcel{
		SenderEmail: req.SenderEmail,
		Name:        req.ParcelName,
		CostMinor:   costMinor,
		District:    req.District,
	}
	if err := h.lifecycle.CreateParcel(c.Request.Context(), p); err != nil {
		h.respondError(c, err)
		return
	}

	h.monitor.RecordParcelCreated(p.District, p.CostMinor)
	c.JSON(http.StatusCreated, gin.H{"insertedId": p.ID})
}

// GetParcel handles GET /parcels/:id
func (h *Handlers) GetParcel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.respondError(c, errors.Validation("Invalid parcel id", err))
		return
	}

	p, err := h.parcels.GetByID(c.Request.Context(), id)
	if err != nil {
		if err == parcel.ErrParcelNotFound {
			h.respondError(c, errors.ErrParcelNotFound)
			return
		}
		h.respondError(c, errors.Internal("Failed to load parcel", err))
		return
	}

	c.JSON(http.StatusOK, dto.NewParcelResponse(p))
}

// DeleteParcel handles DELETE /parcels/:id (admin)
func (h *Handlers) DeleteParcel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.respondError(c, errors.Validation("Invalid parcel id", err))
		return
	}

	if err := h.parcels.Delete(c.Request.Context(), id); err != nil {
		if err == parcel.ErrParcelNotFound {
			h.respondError(c, errors.ErrParcelNotFound)
			return
		}
		h.respondError(c, errors.Internal("Failed to delete parcel", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"deletedCount": 1})
}

// AssignRider handles PATCH /parcels/:id (admin): hand the parcel to a rider
func (h *Handlers) AssignRider(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.respondError(c, errors.Validation("Invalid parcel id", err))
		return
	}

	var req dto.AssignRiderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errors.Validation("Invalid request body", err))
		return
	}
	riderID, err := uuid.Parse(req.RiderID)
	if err != nil {
		h.respondError(c, errors.Validation("Invalid rider id", err))
		return
	}

	p, err := h.lifecycle.AssignRider(c.Request.Context(), id, parcel.Assignee{
		ID:    riderID,
		Name:  req.RiderName,
		Email: req.RiderEmail,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.monitor.RecordParcelAssigned(p.District)
	h.broadcastParcelEvent("rider_assigned", p)
	c.JSON(http.StatusOK, dto.NewParcelResponse(p))
}

// UpdateParcelStatus handles PATCH /parcels/:id/status (rider or admin)
func (h *Handlers) UpdateParcelStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.respondError(c, errors.Validation("Invalid parcel id", err))
		return
	}

	var req dto.UpdateParcelStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errors.Validation("Invalid request body", err))
		return
	}

	p, err := h.lifecycle.UpdateDeliveryStatus(c.Request.Context(), id, parcel.DeliveryStatus(req.DeliveryStatus))
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.broadcastParcelEvent("status_updated", p)
	c.JSON(http.StatusOK, dto.NewParcelResponse(p))
}

// ListRiderParcels handles GET /parcels/rider: parcels assigned to the
// authenticated rider, optionally narrowed by delivery status. A rider can
// only see their own assignments.
func (h *Handlers) ListRiderParcels(c *gin.Context) {
	caller := middleware.CallerEmail(c)
	if caller == "" {
		h.respondError(c, errors.Unauthorized("Authentication required", nil))
		return
	}
	if email := c.Query("email"); email != "" && email != caller {
		h.respondError(c, errors.Forbidden("forbidden access", nil))
		return
	}

	f := parcel.Filter{RiderEmail: caller}
	if s := c.Query("deliveryStatus"); s != "" {
		status := parcel.DeliveryStatus(s)
		if !status.IsValid() {
			h.respondError(c, errors.Validation("unknown delivery status", nil))
			return
		}
		f.DeliveryStatus = status
	}

	parcels, err := h.parcels.List(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, errors.Internal("Failed to list rider parcels", err))
		return
	}

	c.JSON(http.StatusOK, dto.NewParcelResponses(parcels))
}

// broadcastParcelEvent pushes a live tracking update to clients watching
// this parcel by id or tracking id.
func (h *Handlers) broadcastParcelEvent(eventType string, p *parcel.Parcel) {
	if h.hub == nil {
		return
	}
	subjects := []string{p.ID.String()}
	if p.TrackingID != nil {
		subjects = append(subjects, *p.TrackingID)
	}
	h.hub.BroadcastToParcel(websocket.Message{
		Type: eventType,
		Data: dto.NewParcelResponse(p),
	}, subjects...)
}
