package handlers

import (
	"github.com/gin-gonic/gin"

	"driverhire/pkg/websocket"
)

type RealtimeHandler struct {
	ws *websocket.Handler
}

func NewRealtimeHandler(ws *websocket.Handler) *RealtimeHandler {
	return &RealtimeHandler{ws: ws}
}

// DriverLocation is a stub: live tracking is not offered, so the socket
// reports that once and closes.
func (h *RealtimeHandler) DriverLocation(c *gin.Context) {
	h.ws.Notify(c, websocket.Message{
		Type:   "driver_location",
		RoomID: "booking:" + c.Param("ref"),
		Data: map[string]interface{}{
			"available": false,
			"message":   "Live driver tracking is not available yet.",
		},
	})
}
