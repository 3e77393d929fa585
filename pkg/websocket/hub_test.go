package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zapshift/parcel-delivery/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "json", Output: "stdout"})
	require.NoError(t, err)
	return log
}

func addClient(h *Hub, clientType string) *Client {
	c := NewClient(h, nil, "user@example.com", clientType, h.logger)
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	return c
}

func TestBroadcastToParcelReachesSubscribersOnly(t *testing.T) {
	h := NewHub(testLogger(t))
	subscribed := addClient(h, "sender")
	subscribed.Subscribe("PRC-2026-AAAA1111")
	other := addClient(h, "sender")
	other.Subscribe("PRC-2026-BBBB2222")

	h.BroadcastToParcel(Message{Type: "status_updated"}, "PRC-2026-AAAA1111")

	assert.Len(t, subscribed.Send, 1)
	assert.Len(t, other.Send, 0)
}

func TestBroadcastToTypeFiltersByClientType(t *testing.T) {
	h := NewHub(testLogger(t))
	dashboard := addClient(h, "dashboard")
	rider := addClient(h, "rider")

	h.BroadcastToType("dashboard", Message{Type: "rider_applied"})

	assert.Len(t, dashboard.Send, 1)
	assert.Len(t, rider.Send, 0)
}

func TestActiveConnections(t *testing.T) {
	h := NewHub(testLogger(t))
	assert.Equal(t, 0, h.ActiveConnections())
	addClient(h, "sender")
	addClient(h, "rider")
	assert.Equal(t, 2, h.ActiveConnections())
}
