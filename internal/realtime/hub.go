// Package realtime pushes accepted tracking events to connected
// dashboards over websockets, so counters update without polling.
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/v3/websocket"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/tallyhq/tally/internal/logging"
)

// Hub owns the set of connected dashboard clients. All membership
// changes and broadcasts go through its run loop, so no lock is needed.
type Hub struct {
	register    chan *client
	unregister  chan *client
	broadcast   chan []byte
	clientCount chan chan int
	done        chan struct{}
	closeOnce   sync.Once
}

type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(int, []byte) error
	Close() error
}

type client struct {
	hub  *Hub
	conn wsConn
	send chan []byte
}

type pingTicker interface {
	C() <-chan time.Time
	Stop()
}

type realPingTicker struct {
	*time.Ticker
}

func (t *realPingTicker) C() <-chan time.Time {
	return t.Ticker.C
}

var pingTickerFactory = func() pingTicker {
	return &realPingTicker{time.NewTicker(30 * time.Second)}
}

// NewHub creates a hub and starts its run loop.
func NewHub() *Hub {
	h := &Hub{
		register:    make(chan *client),
		unregister:  make(chan *client),
		broadcast:   make(chan []byte, 256),
		clientCount: make(chan chan int),
		done:        make(chan struct{}),
	}

	go h.run()
	return h
}

func (h *Hub) run() {
	clients := make(map[*client]struct{})
	for {
		select {
		case c := <-h.register:
			clients[c] = struct{}{}
		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
				_ = c.conn.Close()
			}
		case message := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- message:
				default:
					close(c.send)
					delete(clients, c)
				}
			}
		case response := <-h.clientCount:
			response <- len(clients)
		case <-h.done:
			for c := range clients {
				close(c.send)
				_ = c.conn.Close()
			}
			return
		}
	}
}

// Close stops the run loop and disconnects all clients. The hub cannot
// be reused afterwards.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

// Publish broadcasts an accepted event to all connected dashboards.
// Slow hubs drop the payload rather than stall ingestion.
func (h *Hub) Publish(event any) {
	msg, err := json.Marshal(event)
	if err != nil {
		logging.L().Warn("failed to encode realtime payload", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		logging.L().Warn("dropping realtime payload", zap.String("reason", "slow consumers"))
	}
}

// ClientCount returns the number of connected dashboards.
func (h *Hub) ClientCount() int {
	response := make(chan int)
	select {
	case h.clientCount <- response:
		return <-response
	case <-h.done:
		return 0
	}
}

// Handler returns the fiber handler upgrading connections into the hub.
func (h *Hub) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		c := &client{
			hub:  h,
			conn: conn,
			send: make(chan []byte, 256),
		}

		select {
		case h.register <- c:
		case <-h.done:
			_ = conn.Close()
			return
		}

		go c.writePump()
		c.readPump()
	})
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *client) writePump() {
	ticker := pingTickerFactory()
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C():
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
