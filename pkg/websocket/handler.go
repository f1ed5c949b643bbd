package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"driverhire/pkg/logger"
)

type Options struct {
	ReadBufferSize  int
	WriteBufferSize int
	PingInterval    time.Duration
	PongTimeout     time.Duration
	AllowedOrigins  []string
}

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	opts     Options
	logger   *logger.Logger
}

func NewHandler(opts Options, log *logger.Logger) *Handler {
	if opts.PongTimeout <= 0 {
		opts.PongTimeout = 60 * time.Second
	}
	if opts.PingInterval <= 0 || opts.PingInterval >= opts.PongTimeout {
		opts.PingInterval = (opts.PongTimeout * 9) / 10
	}

	hub := NewHub(log)
	go hub.Run()

	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  opts.ReadBufferSize,
			WriteBufferSize: opts.WriteBufferSize,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
		opts:   opts,
		logger: log,
	}
}

// Subscribe upgrades the request and attaches the connection to roomID.
// The optional greeting is written before any room traffic.
func (h *Handler) Subscribe(c *gin.Context, roomID string, greeting *Message) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	client := newClient(h.hub, conn, roomID, h.opts)
	if greeting != nil {
		greeting.RoomID = roomID
		greeting.Timestamp = getCurrentTimestamp()
		if data, err := json.Marshal(greeting); err == nil {
			client.send <- data
		}
	}
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// Notify upgrades the request, writes a single message and closes.
func (h *Handler) Notify(c *gin.Context, message Message) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	message.Timestamp = getCurrentTimestamp()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(message); err != nil {
		return
	}
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Handler) GetHub() *Hub {
	return h.hub
}

func (h *Handler) Close() {
	h.hub.Stop()
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
