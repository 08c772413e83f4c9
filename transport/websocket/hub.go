package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/gamerooms/game/engine"
	"github.com/wricardo/mcp-training/gamerooms/game/players"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	// Outbound messages buffered per client before it is considered too slow.
	sendBuffer = 256
)

var (
	ErrClientClosed = errors.New("client connection closed")
	ErrSlowClient   = errors.New("client send buffer full")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Dispatcher receives connection lifecycle and inbound messages
type Dispatcher interface {
	Connect(ctx context.Context, conn players.Sender) *players.Handle
	Handle(ctx context.Context, playerID string, raw []byte) error
	Disconnect(ctx context.Context, playerID string)
}

// Client is one WebSocket connection. It implements players.Sender.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	playerID string

	mu     sync.Mutex
	closed bool
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{hub: hub, conn: conn, send: make(chan []byte, sendBuffer)}
}

// Send queues msg for the write pump without blocking. A client whose buffer
// is full is closed.
func (c *Client) Send(msg interface{}) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		c.closeLocked()
		return ErrSlowClient
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub tracks live connections and feeds their messages to the dispatcher
type Hub struct {
	dispatcher Dispatcher
	log        *zap.Logger

	// Registered clients, owned by Run
	clients map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	done  chan struct{}
	count atomic.Int64
}

// NewHub creates a hub delivering messages to d
func NewHub(d Dispatcher, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		dispatcher: d,
		log:        log,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop. Cancelling ctx closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.count.Store(int64(len(h.clients)))
			h.log.Debug("client registered", zap.String("player", client.playerID), zap.Int("clients", len(h.clients)))

		case client := <-h.unregister:
			if h.clients[client] {
				delete(h.clients, client)
				client.close()
				h.count.Store(int64(len(h.clients)))
				h.log.Debug("client unregistered", zap.String("player", client.playerID), zap.Int("clients", len(h.clients)))
			}

		case <-ctx.Done():
			for client := range h.clients {
				client.close()
			}
			h.clients = make(map[*Client]bool)
			h.count.Store(0)
			return
		}
	}
}

// Count returns the number of registered connections
func (h *Hub) Count() int {
	return int(h.count.Load())
}

// ServeWS upgrades the request and starts the connection's pumps
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.done:
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(h, conn)
	client.playerID = h.dispatcher.Connect(r.Context(), client).ID
	select {
	case h.register <- client:
	case <-h.done:
		h.dispatcher.Disconnect(context.Background(), client.playerID)
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump pumps messages from the WebSocket connection to the dispatcher
func (c *Client) readPump() {
	ctx := context.Background()
	defer func() {
		c.hub.dispatcher.Disconnect(ctx, c.playerID)
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
			c.close()
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Info("websocket closed", zap.String("player", c.playerID), zap.Error(err))
			}
			break
		}
		if err := c.hub.dispatcher.Handle(ctx, c.playerID, message); errors.Is(err, engine.ErrPlayerNotFound) {
			c.hub.log.Warn("dropping connection without a player", zap.String("player", c.playerID))
			break
		}
	}
}

// writePump pumps queued messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The channel was closed
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
