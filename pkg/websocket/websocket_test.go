package websocket

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"driverhire/pkg/logger"
)

func newTestServer(t *testing.T) (*Handler, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHandler(Options{ReadBufferSize: 1024, WriteBufferSize: 1024, AllowedOrigins: []string{"*"}}, logger.NewNop())

	router := gin.New()
	router.GET("/rooms/:id", func(c *gin.Context) {
		h.Subscribe(c, c.Param("id"), &Message{Type: "hello", Data: map[string]interface{}{"ok": true}})
	})
	router.GET("/notify", func(c *gin.Context) {
		h.Notify(c, Message{Type: "driver_location", Data: map[string]interface{}{"available": false}})
	})
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		h.Close()
	})
	return h, srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestPublishReachesOnlyTheRoom(t *testing.T) {
	h, srv := newTestServer(t)
	conn := dial(t, srv, "/rooms/flow-1")
	other := dial(t, srv, "/rooms/flow-2")

	if msg := readMessage(t, conn); msg.Type != "hello" || msg.RoomID != "flow-1" {
		t.Fatalf("greeting = %+v", msg)
	}
	readMessage(t, other)

	deadline := time.Now().Add(2 * time.Second)
	for h.GetHub().RoomSize("flow-1") == 0 || h.GetHub().RoomSize("flow-2") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("clients never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	h.GetHub().Publish("flow-1", "fare_update", map[string]interface{}{"seq": 3})

	msg := readMessage(t, conn)
	if msg.Type != "fare_update" || msg.Data["seq"] != float64(3) {
		t.Fatalf("message = %+v", msg)
	}

	other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := other.ReadMessage(); err == nil {
		t.Fatal("message leaked into another room")
	}
}

func TestNotifyWritesOnceAndCloses(t *testing.T) {
	_, srv := newTestServer(t)
	conn := dial(t, srv, "/notify")

	if msg := readMessage(t, conn); msg.Type != "driver_location" || msg.Data["available"] != false {
		t.Fatalf("message = %+v", msg)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("err = %v, want normal closure", err)
	}
}
