package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/zapshift/parcel-delivery/internal/domain/parcel"
	"github.com/zapshift/parcel-delivery/internal/domain/payment"
	"github.com/zapshift/parcel-delivery/internal/domain/rider"
	"github.com/zapshift/parcel-delivery/internal/domain/user"
	"github.com/zapshift/parcel-delivery/internal/gateway"
	"github.com/zapshift/parcel-delivery/internal/service/lifecycle"
	"github.com/zapshift/parcel-delivery/internal/service/reconcile"
	"github.com/zapshift/parcel-delivery/pkg/errors"
	"github.com/zapshift/parcel-delivery/pkg/logger"
	"github.com/zapshift/parcel-delivery/pkg/monitoring"
	"github.com/zapshift/parcel-delivery/pkg/websocket"
)

// Handlers bundles every HTTP handler with its dependencies
type Handlers struct {
	lifecycle  *lifecycle.Service
	reconciler *reconcile.Service
	gateway    gateway.Gateway

	parcels  parcel.Repository
	payments payment.Repository
	riders   rider.Repository
	users    user.Repository

	redis        *redis.Client
	logger       *logger.Logger
	monitor      *monitoring.Agent
	hub          *websocket.Hub
	reconcileTTL time.Duration
	currency     string
}

// Dependencies wires the handler set
type Dependencies struct {
	Lifecycle  *lifecycle.Service
	Reconciler *reconcile.Service
	Gateway    gateway.Gateway

	Parcels  parcel.Repository
	Payments payment.Repository
	Riders   rider.Repository
	Users    user.Repository

	Redis        *redis.Client
	Logger       *logger.Logger
	Monitor      *monitoring.Agent
	Hub          *websocket.Hub
	ReconcileTTL time.Duration
	Currency     string
}

func New(deps Dependencies) *Handlers {
	return &Handlers{
		lifecycle:    deps.Lifecycle,
		reconciler:   deps.Reconciler,
		gateway:      deps.Gateway,
		parcels:      deps.Parcels,
		payments:     deps.Payments,
		riders:       deps.Riders,
		users:        deps.Users,
		redis:        deps.Redis,
		logger:       deps.Logger,
		monitor:      deps.Monitor,
		hub:          deps.Hub,
		reconcileTTL: deps.ReconcileTTL,
		currency:     deps.Currency,
	}
}

// respondError translates an error into the standard envelope. Partial
// failures carry a sub_updates map so callers can see which write landed.
func (h *Handlers) respondError(c *gin.Context, err error) {
	appErr := errors.GetAppError(err)
	body := gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	}
	if len(appErr.SubUpdates) > 0 {
		body["sub_updates"] = appErr.SubUpdates
	}
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			logger.String("code", appErr.Code),
			logger.String("path", c.FullPath()),
			logger.Err(err),
		)
	}
	c.JSON(appErr.Status, body)
}

// Health reports process liveness
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"time":        time.Now().UTC(),
		"connections": h.hub.ActiveConnections(),
	})
}

// Banner is the root greeting kept for uptime probes
func (h *Handlers) Banner(c *gin.Context) {
	c.String(http.StatusOK, "Parcel is being delivered!!")
}
