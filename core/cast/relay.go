package cast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"GeminiStream/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// RelayMessageType names a relay message.
type RelayMessageType string

const (
	MsgTypePresentPicker RelayMessageType = "present_picker" // player -> relay
	MsgTypeLoadMedia     RelayMessageType = "load_media"     // player -> relay
	MsgTypeResult        RelayMessageType = "result"         // relay -> player, answers a request id
	MsgTypeSession       RelayMessageType = "session"        // relay -> player, session state change
)

const (
	relayWriteWait = 10 * time.Second
	relayReadLimit = 64 * 1024
)

// RelayMessage is the JSON envelope exchanged with the relay.
type RelayMessage struct {
	Type      RelayMessageType `json:"type"`
	ID        string           `json:"id,omitempty"`
	Data      json.RawMessage  `json:"data,omitempty"`
	OK        bool             `json:"ok,omitempty"`
	Error     string           `json:"error,omitempty"`
	Connected bool             `json:"connected,omitempty"`
	Timestamp int64            `json:"timestamp"`
}

var errRelayClosed = errors.New("cast: relay connection closed")

// RelayBridge forwards cast requests over a websocket to a companion
// process that owns the platform cast SDK (for example a phone app).
// Every request carries a uuid and waits for the matching result.
type RelayBridge struct {
	url    string
	dialer *websocket.Dialer

	mu           sync.Mutex
	conn         *websocket.Conn
	pending      map[string]chan RelayMessage
	sessionUp    bool
	sessionReady chan struct{}

	writeMu sync.Mutex
}

// NewRelayBridge creates a bridge for the relay at url (ws:// or wss://).
// The connection is opened lazily on first use.
func NewRelayBridge(url string) *RelayBridge {
	return &RelayBridge{
		url:          url,
		dialer:       websocket.DefaultDialer,
		pending:      make(map[string]chan RelayMessage),
		sessionReady: make(chan struct{}),
	}
}

func (b *RelayBridge) PresentDevicePicker(ctx context.Context) error {
	return b.call(ctx, MsgTypePresentPicker, nil)
}

func (b *RelayBridge) LoadMedia(ctx context.Context, media MediaDescriptor) error {
	if media.MimeType == "" {
		media.MimeType = MimeType
	}
	return b.call(ctx, MsgTypeLoadMedia, media)
}

// WaitConnected blocks until the relay reports a connected cast session.
func (b *RelayBridge) WaitConnected(ctx context.Context) error {
	b.mu.Lock()
	if b.sessionUp {
		b.mu.Unlock()
		return nil
	}
	ready := b.sessionReady
	b.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drops the relay connection. Pending requests fail.
func (b *RelayBridge) Close() error {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (b *RelayBridge) connect(ctx context.Context) (*websocket.Conn, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil {
		return b.conn, nil
	}

	conn, _, err := b.dialer.DialContext(ctx, b.url, nil)
	if err != nil {
		logger.Warn("[Cast/connect] Relay unreachable", logger.String("url", b.url), logger.ErrorField(err))
		return nil, fmt.Errorf("%w: dial relay: %v", ErrUnavailable, err)
	}
	conn.SetReadLimit(relayReadLimit)
	b.conn = conn
	go b.readPump(conn)

	logger.Info("[Cast/connect] Connected to cast relay", logger.String("url", b.url))
	return conn, nil
}

func (b *RelayBridge) call(ctx context.Context, typ RelayMessageType, payload interface{}) error {
	conn, err := b.connect(ctx)
	if err != nil {
		return err
	}

	msg := RelayMessage{
		Type:      typ,
		ID:        uuid.New().String(),
		Timestamp: time.Now().UnixMilli(),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", typ, err)
		}
		msg.Data = data
	}

	result := make(chan RelayMessage, 1)
	b.mu.Lock()
	b.pending[msg.ID] = result
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, msg.ID)
		b.mu.Unlock()
	}()

	if err := b.write(conn, &msg); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}

	select {
	case res, ok := <-result:
		if !ok {
			return errRelayClosed
		}
		if !res.OK {
			return &RejectedError{Op: string(typ), Reason: res.Error}
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *RelayBridge) write(conn *websocket.Conn, msg *RelayMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(relayWriteWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// readPump dispatches relay replies and session updates until the connection drops.
func (b *RelayBridge) readPump(conn *websocket.Conn) {
	defer b.dropConn(conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("[Cast/readPump] Relay read error", logger.ErrorField(err))
			}
			return
		}

		var msg RelayMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warn("[Cast/readPump] Invalid relay message", logger.ErrorField(err))
			continue
		}

		switch msg.Type {
		case MsgTypeResult:
			b.mu.Lock()
			ch, ok := b.pending[msg.ID]
			b.mu.Unlock()
			if !ok {
				logger.Debug("[Cast/readPump] Result for unknown request", logger.String("id", msg.ID))
				continue
			}
			select {
			case ch <- msg:
			default:
			}
		case MsgTypeSession:
			b.setSession(msg.Connected)
		default:
			logger.Debug("[Cast/readPump] Ignoring relay message", logger.String("type", string(msg.Type)))
		}
	}
}

func (b *RelayBridge) setSession(connected bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case connected && !b.sessionUp:
		b.sessionUp = true
		close(b.sessionReady)
	case !connected && b.sessionUp:
		b.sessionUp = false
		b.sessionReady = make(chan struct{})
	}
	logger.Info("[Cast/session] Cast session state changed", logger.Bool("connected", connected))
}

func (b *RelayBridge) dropConn(conn *websocket.Conn) {
	conn.Close()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == conn {
		b.conn = nil
	}
	for id, ch := range b.pending {
		close(ch)
		delete(b.pending, id)
	}
	if b.sessionUp {
		b.sessionUp = false
		b.sessionReady = make(chan struct{})
	}
}
