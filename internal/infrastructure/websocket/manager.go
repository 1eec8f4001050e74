package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"vetclinic/internal/infrastructure/metrics"
	"vetclinic/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	// SendBufferSize is the per-connection outbound queue. Events published to a
	// client whose queue is full are dropped for that client.
	SendBufferSize = 256
)

// RoomAuthorizer decides whether a user may subscribe to a conversation channel.
type RoomAuthorizer interface {
	AuthorizeJoin(ctx context.Context, userID, conversationID string) error
}

type RoomAuthorizerFunc func(ctx context.Context, userID, conversationID string) error

func (f RoomAuthorizerFunc) AuthorizeJoin(ctx context.Context, userID, conversationID string) error {
	return f(ctx, userID, conversationID)
}

// Client represents a WebSocket connection client
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	// guarded by Manager.mutex
	rooms  map[string]struct{}
	closed bool
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, SendBufferSize),
		rooms:  make(map[string]struct{}),
	}
}

// Manager tracks connected clients and the channels they are subscribed to.
// A channel is either a conversation id or a user id.
type Manager struct {
	clients    map[*Client]struct{}
	rooms      map[string]map[*Client]struct{}
	authorizer RoomAuthorizer
	metrics    *metrics.Realtime
	mutex      sync.RWMutex
}

func NewManager(m *metrics.Realtime) *Manager {
	return &Manager{
		clients: make(map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
		metrics: m,
	}
}

// SetRoomAuthorizer installs the join check. Without one every join is refused.
func (m *Manager) SetRoomAuthorizer(a RoomAuthorizer) {
	m.mutex.Lock()
	m.authorizer = a
	m.mutex.Unlock()
}

// Register adds the client and subscribes it to its personal channel.
func (m *Manager) Register(client *Client) {
	m.mutex.Lock()
	m.clients[client] = struct{}{}
	m.joinLocked(client, client.UserID)
	m.mutex.Unlock()

	if m.metrics != nil {
		m.metrics.ConnectedClients.Inc()
	}
	logger.Debug("WebSocket: client registered: %s", client.UserID)
}

// Unregister drops every subscription of the client and closes its send queue.
func (m *Manager) Unregister(client *Client) {
	m.mutex.Lock()
	if _, ok := m.clients[client]; !ok {
		m.mutex.Unlock()
		return
	}
	for room := range client.rooms {
		m.leaveLocked(client, room)
	}
	delete(m.clients, client)
	if !client.closed {
		client.closed = true
		close(client.Send)
	}
	m.mutex.Unlock()

	if m.metrics != nil {
		m.metrics.ConnectedClients.Dec()
	}
	logger.Debug("WebSocket: client unregistered: %s", client.UserID)
}

func (m *Manager) Join(client *Client, channel string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, ok := m.clients[client]; !ok {
		return
	}
	m.joinLocked(client, channel)
}

func (m *Manager) Leave(client *Client, channel string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.leaveLocked(client, channel)
}

func (m *Manager) joinLocked(client *Client, channel string) {
	if _, ok := client.rooms[channel]; ok {
		return
	}
	members, ok := m.rooms[channel]
	if !ok {
		members = make(map[*Client]struct{})
		m.rooms[channel] = members
	}
	members[client] = struct{}{}
	client.rooms[channel] = struct{}{}
	if m.metrics != nil {
		m.metrics.ChannelMembers.Inc()
	}
}

func (m *Manager) leaveLocked(client *Client, channel string) {
	if _, ok := client.rooms[channel]; !ok {
		return
	}
	delete(client.rooms, channel)
	if members, ok := m.rooms[channel]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(m.rooms, channel)
		}
	}
	if m.metrics != nil {
		m.metrics.ChannelMembers.Dec()
	}
}

// ChannelSize reports how many local clients are subscribed to channel.
func (m *Manager) ChannelSize(channel string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms[channel])
}

// Publish encodes the event and delivers it to the local subscribers of channel.
func (m *Manager) Publish(ctx context.Context, channel, event string, payload interface{}) error {
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		return err
	}
	m.Deliver(channel, event, frame)
	return nil
}

// Deliver queues an already encoded frame on every local subscriber of channel.
// It never blocks: a subscriber with a full queue misses the event.
func (m *Manager) Deliver(channel, event string, frame []byte) {
	if m.metrics != nil {
		m.metrics.EventsPublished.WithLabelValues(event).Inc()
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for client := range m.rooms[channel] {
		select {
		case client.Send <- frame:
			if m.metrics != nil {
				m.metrics.EventsDelivered.WithLabelValues(event).Inc()
			}
		default:
			if m.metrics != nil {
				m.metrics.EventsDropped.WithLabelValues(event).Inc()
			}
			logger.With("user", client.UserID, "event", event, "channel", channel).Warn("WebSocket: send queue full, event dropped")
		}
	}
}

func (m *Manager) roomAuthorizer() RoomAuthorizer {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.authorizer
}

// ReadPump reads client events until the connection fails, then unregisters the client.
func (c *Client) ReadPump(ctx context.Context, m *Manager) {
	defer func() {
		m.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.With("user", c.UserID, "error", err).Warn("WebSocket: unexpected close")
			}
			return
		}
		m.HandleClientMessage(ctx, c, message)
	}
}

// WritePump drains the send queue onto the connection and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("WebSocket: write error for %s: %v", c.UserID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// EncodeFrame builds the JSON frame written to clients for event.
func EncodeFrame(event string, payload interface{}) ([]byte, error) {
	return json.Marshal(Frame{
		Event:     event,
		Data:      payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
