package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"driverhire/pkg/logger"
)

// Hub fans room-scoped messages out to connected clients.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	rooms      map[string]map[*Client]bool
	mutex      sync.RWMutex
	logger     *logger.Logger
	done       chan struct{}
}

type Message struct {
	Type      string                 `json:"type"`
	RoomID    string                 `json:"room_id,omitempty"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		logger:     log,
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.sendToRoom(message.RoomID, message)

		case <-h.done:
			return
		}
	}
}

// Stop ends the run loop. Connected clients are left to their pumps.
func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[client] = true
	h.joinRoom(client, client.RoomID)
	h.logger.WithField("room_id", client.RoomID).Debug("Websocket client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.dropClient(client)
}

func (h *Hub) dropClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	if room, exists := h.rooms[client.RoomID]; exists {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, client.RoomID)
		}
	}
	h.logger.WithField("room_id", client.RoomID).Debug("Websocket client unregistered")
}

func (h *Hub) sendToRoom(roomID string, message Message) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	room, exists := h.rooms[roomID]
	if !exists {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to encode websocket message")
		return
	}
	for client := range room {
		select {
		case client.send <- data:
		default:
			h.dropClient(client)
		}
	}
}

// Publish queues a message for every client in the room. It never blocks
// the caller; when the queue is full the message is dropped.
func (h *Hub) Publish(roomID, messageType string, data map[string]interface{}) {
	message := Message{
		Type:      messageType,
		RoomID:    roomID,
		Timestamp: getCurrentTimestamp(),
		Data:      data,
	}
	select {
	case h.broadcast <- message:
	default:
		h.logger.WithField("room_id", roomID).Warn("Websocket broadcast queue full, message dropped")
	}
}

// RoomSize reports how many clients are subscribed to a room.
func (h *Hub) RoomSize(roomID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.rooms[roomID])
}

func (h *Hub) joinRoom(client *Client, roomID string) {
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
}

func getCurrentTimestamp() int64 {
	return time.Now().Unix()
}
