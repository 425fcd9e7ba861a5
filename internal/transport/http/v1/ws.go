package v1

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/dmulondo/sema-core/internal/domain"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsSendBuffer   = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Dashboards are served from a separate origin.
		return true
	},
}

var errBufferFull = errors.New("send buffer full")

// wsClient adapts a websocket connection to the hub's Sink interface.
// Send never blocks: a full buffer reports an error and the hub evicts
// the connection.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (w *wsClient) Send(data []byte) error {
	select {
	case w.send <- data:
		return nil
	default:
		return errBufferFull
	}
}

func (w *wsClient) Close() error {
	w.once.Do(func() {
		close(w.send)
	})
	return nil
}

// HandleWebSocket upgrades a dashboard connection and registers it with
// the hub. Event types to subscribe to beyond the user/session routing
// can be passed as a comma-separated `subscribe` parameter.
// GET /v1/ws?user_id=&session_id=&subscribe=
func (h *Handler) HandleWebSocket(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket: %v", err)
		return err
	}

	var subscriptions []domain.EventType
	if raw := c.QueryParam("subscribe"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				subscriptions = append(subscriptions, domain.EventType(part))
			}
		}
	}

	client := &wsClient{conn: ws, send: make(chan []byte, wsSendBuffer)}
	conn := h.hub.AddConnection(c.QueryParam("user_id"), c.QueryParam("session_id"), subscriptions, client)

	go h.writePump(client, ws)
	go h.readPump(conn.ID, ws)

	return nil
}

// writePump drains the send buffer onto the socket and keeps the
// connection alive with pings.
func (h *Handler) writePump(client *wsClient, ws *websocket.Conn) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if !ok {
				// Hub closed the sink.
				ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Failed to write message: %v", err)
				return
			}

		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes client frames to detect disconnects and refresh the
// connection's activity clock for the idle sweeper.
func (h *Handler) readPump(connID string, ws *websocket.Conn) {
	defer func() {
		h.hub.RemoveConnection(connID)
		ws.Close()
	}()

	ws.SetReadDeadline(time.Now().Add(wsReadTimeout))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(wsReadTimeout))
		h.hub.Touch(connID)
		return nil
	})

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		h.hub.Touch(connID)
	}
}
