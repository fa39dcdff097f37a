package handlers

import (
	"log"
	"net/http"

	"go-pos-console/internal/realtime"

	"github.com/gin-gonic/gin"
)

// GetSystemStatus feeds the status bar: which terminal this is and whether
// anyone is signed in.
func (h *Handler) GetSystemStatus(c *gin.Context) {
	windows := 0
	if h.Hub != nil {
		windows = h.Hub.Count()
	}
	c.JSON(http.StatusOK, gin.H{
		"device_id":      h.DeviceID,
		"session":        h.Session.Snapshot().Status(),
		"windows":        windows,
		"assistant":      h.Assistant.Enabled(),
		"registration":   h.AllowRegistration,
		"active_tickets": len(h.Workspace.Snapshot().Tickets),
	})
}

// ServeWS upgrades to a WebSocket that receives session and ticket pushes.
// The first two messages are the current state of each.
func (h *Handler) ServeWS(c *gin.Context) {
	if h.Hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Realtime updates are disabled"})
		return
	}
	conn, err := realtime.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}
	h.Hub.Attach(conn,
		realtime.Message{Type: "session", Data: h.Session.Snapshot()},
		realtime.Message{Type: "tickets", Data: h.Workspace.Snapshot()},
	)
}
