// Package routes wires the HTTP surface onto gin.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/zapshift/parcel-delivery/internal/api/handlers"
	"github.com/zapshift/parcel-delivery/internal/api/middleware"
	"github.com/zapshift/parcel-delivery/pkg/monitoring"
)

// Setup registers all routes on the router
func Setup(router *gin.Engine, h *handlers.Handlers, guard *middleware.Guard, monitor *monitoring.Agent) {
	if monitor != nil && monitor.IsEnabled() {
		router.Use(nrgin.Middleware(monitor.Application))
	}

	router.GET("/", h.Banner)
	router.GET("/health", h.Health)
	router.GET("/ws", h.HandleWebSocket)

	// public
	router.GET("/parcels", h.ListParcels)
	router.POST("/parcels", h.CreateParcel)
	router.GET("/parcels/:id", h.GetParcel)
	router.POST("/create-checkout-session", h.CreateCheckoutSession)
	router.PATCH("/payment-success", h.PaymentSuccess)
	router.POST("/riders", h.CreateRider)
	router.GET("/riders", h.ListRiders)
	router.POST("/users", h.CreateUser)
	router.GET("/users/:email/role", h.GetUserRole)

	// authenticated
	authed := router.Group("/")
	authed.Use(guard.Authenticate())
	{
		authed.GET("/payments", h.ListPayments)
		authed.GET("/parcels/rider", h.ListRiderParcels)
		authed.PATCH("/parcels/:id/status", h.UpdateParcelStatus)
	}

	// admin only
	admin := router.Group("/")
	admin.Use(guard.Authenticate(), guard.RequireAdmin())
	{
		admin.GET("/users", h.SearchUsers)
		admin.PATCH("/users/:id/role", h.UpdateUserRole)
		admin.PATCH("/parcels/:id", h.AssignRider)
		admin.DELETE("/parcels/:id", h.DeleteParcel)
		admin.PATCH("/riders/:id", h.DecideRider)
		admin.DELETE("/riders/:id", h.DeleteRider)
	}
}
