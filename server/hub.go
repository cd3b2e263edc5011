package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"GeminiStream/core/player"
	"GeminiStream/logger"
	"GeminiStream/model"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// MessageType names a websocket message.
type MessageType string

const (
	MsgTypeState MessageType = "state" // server -> client
	MsgTypePing  MessageType = "ping"  // heartbeat
	MsgTypePong  MessageType = "pong"  // heartbeat reply
	MsgTypeError MessageType = "error" // command failed

	MsgTypeSettings MessageType = "settings" // settings changed

	// transport commands client -> server
	MsgTypePlay     MessageType = "play"
	MsgTypePause    MessageType = "pause"
	MsgTypeNext     MessageType = "nexttrack"
	MsgTypePrevious MessageType = "previoustrack"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 64
)

// WSMessage is the websocket envelope.
type WSMessage struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Client is one websocket connection.
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans controller state out to every connected UI and feeds their
// transport commands back into the controller.
type Hub struct {
	controller *player.Controller
	clients    map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu   sync.RWMutex
	done chan struct{}

	upgrader websocket.Upgrader
}

// NewHub creates a hub bound to controller.
func NewHub(controller *player.Controller) *Hub {
	return &Hub{
		controller: controller,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run is the hub loop, forwarding controller snapshots until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	states := h.controller.Subscribe()
	defer h.controller.Unsubscribe(states)

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logger.Info("[Hub] client registered", logger.String("client", client.ID))
			// new clients get the current state right away
			if data, err := encodeState(h.controller.State()); err == nil {
				select {
				case client.send <- data:
				default:
				}
			}

		case client := <-h.unregister:
			h.removeClient(client)

		case st, ok := <-states:
			if !ok {
				return
			}
			data, err := encodeState(st)
			if err != nil {
				logger.Warn("[Hub] failed to encode state", logger.ErrorField(err))
				continue
			}
			h.fanOut(data)

		case msg := <-h.broadcast:
			h.fanOut(msg)

		case <-ctx.Done():
			h.cleanup()
			close(h.done)
			return
		}
	}
}

// Broadcast queues a message for every connected client.
func (h *Hub) Broadcast(typ MessageType, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(&WSMessage{Type: typ, Data: data, Timestamp: time.Now().UnixMilli()})
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- msg:
	default:
		logger.Warn("[Hub] broadcast channel full, dropping message", logger.String("type", string(typ)))
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) fanOut(data []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- data:
		default:
			// send buffer full, drop the client
			h.removeClient(c)
		}
	}
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		logger.Info("[Hub] client unregistered", logger.String("client", c.ID))
	}
}

// cleanup closes every connection.
func (h *Hub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
	}
	h.clients = make(map[*Client]bool)
}

func encodeState(st model.PlaybackState) ([]byte, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&WSMessage{Type: MsgTypeState, Data: data, Timestamp: time.Now().UnixMilli()})
}

// ServeWS upgrades the request and starts the client pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("[Hub/ServeWS] upgrade failed", logger.ErrorField(err))
		return
	}

	client := &Client{
		ID:   uuid.New().String(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	case <-r.Context().Done():
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump reads client messages until the connection closes.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
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
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("[Hub/readPump] websocket read error", logger.ErrorField(err), logger.String("client", c.ID))
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warn("[Hub/readPump] invalid message format", logger.ErrorField(err))
			continue
		}
		c.handle(&msg)
	}
}

func (c *Client) handle(msg *WSMessage) {
	switch msg.Type {
	case MsgTypePing:
		c.reply(&WSMessage{Type: MsgTypePong})
	case MsgTypePlay, MsgTypePause, MsgTypeNext, MsgTypePrevious:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.hub.controller.HandleMediaCommand(ctx, player.MediaCommand(msg.Type)); err != nil {
			data, _ := json.Marshal(err.Error())
			c.reply(&WSMessage{Type: MsgTypeError, Data: data})
		}
	default:
		logger.Debug("[Hub/readPump] ignoring message", logger.String("type", string(msg.Type)))
	}
}

func (c *Client) reply(msg *WSMessage) {
	msg.Timestamp = time.Now().UnixMilli()
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	// hold the read lock, removeClient waits for it before closing send
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; ok {
		select {
		case c.send <- data:
		default: // buffer full, drop
		}
	}
}

// writePump writes queued messages and pings.
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
				// hub closed the channel
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
