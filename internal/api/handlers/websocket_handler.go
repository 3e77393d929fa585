package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/zapshift/parcel-delivery/pkg/logger"
	"github.com/zapshift/parcel-delivery/pkg/websocket"
)

var upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// the browser dashboard connects cross-origin
		return true
	},
}

// HandleWebSocket handles GET /ws: upgrades the connection and registers a
// live tracking client. Clients subscribe to parcel ids or tracking ids
// after connecting.
func (h *Handlers) HandleWebSocket(c *gin.Context) {
	email := c.Query("email")
	clientType := c.DefaultQuery("type", "dashboard")
	switch clientType {
	case "sender", "rider", "dashboard":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION_ERROR", "message": "unknown client type"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket connection", logger.Err(err))
		return
	}

	client := websocket.NewClient(h.hub, conn, email, clientType, h.logger)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
