package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"feastly/internal/events"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the token, not the origin, authorises the stream
	},
}

// trackingConn streams one order's events to a websocket client
type trackingConn struct {
	conn        *websocket.Conn
	events      <-chan events.Event
	unsubscribe func()
	done        chan struct{}
}

// TrackOrder upgrades to a websocket and streams the order's status changes.
// The first message is the order's current state.
func (a *API) TrackOrder(c *gin.Context) {
	order, ok := a.loadVisibleOrder(c)
	if !ok {
		return
	}

	ch, unsubscribe := a.hub.Subscribe(order.ID)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		unsubscribe()
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	tc := &trackingConn{
		conn:        conn,
		events:      ch,
		unsubscribe: unsubscribe,
		done:        make(chan struct{}),
	}

	current := events.NewEvent(events.OrderSnapshot, order)
	go tc.writePump(current)
	go tc.readPump()
}

// readPump discards client messages and notices when the client goes away
func (t *trackingConn) readPump() {
	defer func() {
		close(t.done)
		t.unsubscribe()
	}()

	t.conn.SetReadLimit(512)
	t.conn.SetReadDeadline(time.Now().Add(pongWait))
	t.conn.SetPongHandler(func(string) error {
		t.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := t.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
	}
}

// writePump sends the initial snapshot, then every event and a periodic ping
func (t *trackingConn) writePump(first events.Event) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		t.conn.Close()
	}()

	if err := t.write(first); err != nil {
		return
	}

	for {
		select {
		case evt, ok := <-t.events:
			if !ok {
				t.conn.SetWriteDeadline(time.Now().Add(writeWait))
				t.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := t.write(evt); err != nil {
				return
			}
		case <-ticker.C:
			t.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := t.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-t.done:
			return
		}
	}
}

func (t *trackingConn) write(evt events.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return err
	}
	t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteMessage(websocket.TextMessage, data)
}
