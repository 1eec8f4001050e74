package websocket

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"

	"vetclinic/pkg/errors"
	"vetclinic/pkg/logger"
)

// Client to server events
const (
	EventJoinConversation  = "joinConversation"
	EventLeaveConversation = "leaveConversation"
	EventPing              = "ping"
)

// Server to client events
const (
	EventNewMessage      = "new message"
	EventNewNotification = "new notification"
	EventMessagesRead    = "messages read"
	EventMessageRead     = "message read"
	EventPong            = "pong"
	EventError           = "error"
)

// Frame is the envelope written to clients.
type Frame struct {
	Event     string      `json:"event"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// ClientMessage is the envelope read from clients.
type ClientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type ConversationRoomData struct {
	ConversationID string `json:"conversationId"`
}

type ErrorData struct {
	Event   string `json:"event,omitempty"`
	Message string `json:"message"`
}

// HandleClientMessage processes incoming WebSocket messages
func (m *Manager) HandleClientMessage(ctx context.Context, client *Client, raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Debug("WebSocket: invalid frame from %s: %v", client.UserID, err)
		m.sendError(client, "", "invalid message format")
		return
	}

	switch msg.Event {
	case EventJoinConversation:
		m.handleJoin(ctx, client, msg)
	case EventLeaveConversation:
		m.handleLeave(client, msg)
	case EventPing:
		m.sendToClient(client, EventPong, map[string]string{"status": "alive"})
	default:
		m.sendError(client, msg.Event, "unknown event")
	}
}

func (m *Manager) handleJoin(ctx context.Context, client *Client, msg ClientMessage) {
	conversationID, ok := m.roomID(client, msg)
	if !ok {
		return
	}

	authorizer := m.roomAuthorizer()
	if authorizer == nil {
		m.sendError(client, msg.Event, "joining conversations is not available")
		return
	}
	if err := authorizer.AuthorizeJoin(ctx, client.UserID, conversationID); err != nil {
		logger.Debug("WebSocket: join %s refused for %s: %v", conversationID, client.UserID, err)
		reason := "not allowed to join this conversation"
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			reason = appErr.Message
		}
		m.sendError(client, msg.Event, reason)
		return
	}

	m.Join(client, conversationID)
	logger.Debug("WebSocket: %s joined conversation %s", client.UserID, conversationID)
}

func (m *Manager) handleLeave(client *Client, msg ClientMessage) {
	conversationID, ok := m.roomID(client, msg)
	if !ok {
		return
	}
	// the personal channel stays subscribed for the life of the connection
	if conversationID == client.UserID {
		return
	}
	m.Leave(client, conversationID)
}

func (m *Manager) roomID(client *Client, msg ClientMessage) (string, bool) {
	var data ConversationRoomData
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			m.sendError(client, msg.Event, "invalid conversationId")
			return "", false
		}
	}
	id := strings.TrimSpace(data.ConversationID)
	if id == "" {
		m.sendError(client, msg.Event, "conversationId is required")
		return "", false
	}
	return id, true
}

func (m *Manager) sendToClient(client *Client, event string, payload interface{}) {
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		logger.Error("WebSocket: failed to encode %s for %s: %v", event, client.UserID, err)
		return
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if client.closed {
		return
	}
	select {
	case client.Send <- frame:
	default:
		logger.Warn("WebSocket: send queue full for %s, dropped %q", client.UserID, event)
	}
}

func (m *Manager) sendError(client *Client, event, message string) {
	m.sendToClient(client, EventError, ErrorData{Event: event, Message: message})
}
