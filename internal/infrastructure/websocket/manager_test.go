package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetclinic/internal/infrastructure/metrics"
	"vetclinic/pkg/errors"
)

func newTestHub(t *testing.T) (*Manager, *metrics.Realtime) {
	t.Helper()
	m := metrics.NewRealtime(prometheus.NewRegistry())
	hub := NewManager(m)
	hub.SetRoomAuthorizer(RoomAuthorizerFunc(func(_ context.Context, userID, conversationID string) error {
		if conversationID == "conv-1" && (userID == "alice" || userID == "bob") {
			return nil
		}
		return errors.Forbidden("you are not a participant in this conversation", nil)
	}))
	return hub, m
}

func serveHub(t *testing.T, hub *Manager) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(r.URL.Query().Get("uid"), conn)
		hub.Register(client)
		go client.ReadPump(context.Background(), hub)
		go client.WritePump()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, uid string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?uid=" + uid
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var f Frame
	require.NoError(t, json.Unmarshal(raw, &f))
	return f
}

func send(t *testing.T, conn *websocket.Conn, event string, data interface{}) {
	t.Helper()
	payload := map[string]interface{}{"event": event}
	if data != nil {
		payload["data"] = data
	}
	require.NoError(t, conn.WriteJSON(payload))
}

func TestPersonalChannelDelivery(t *testing.T) {
	hub, _ := newTestHub(t)
	srv := serveHub(t, hub)
	conn := dial(t, srv, "alice")

	require.Eventually(t, func() bool { return hub.ChannelSize("alice") == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), "alice", EventNewNotification, map[string]string{"title": "Appointment approved"}))

	f := readFrame(t, conn)
	assert.Equal(t, EventNewNotification, f.Event)
	assert.Equal(t, "Appointment approved", f.Data.(map[string]interface{})["title"])
}

func TestJoinConversationThenReceive(t *testing.T) {
	hub, _ := newTestHub(t)
	srv := serveHub(t, hub)
	conn := dial(t, srv, "bob")

	send(t, conn, EventJoinConversation, ConversationRoomData{ConversationID: "conv-1"})
	require.Eventually(t, func() bool { return hub.ChannelSize("conv-1") == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), "conv-1", EventNewMessage, map[string]string{"content": "hi"}))
	f := readFrame(t, conn)
	assert.Equal(t, EventNewMessage, f.Event)

	send(t, conn, EventLeaveConversation, ConversationRoomData{ConversationID: "conv-1"})
	require.Eventually(t, func() bool { return hub.ChannelSize("conv-1") == 0 }, time.Second, 10*time.Millisecond)
}

func TestJoinRefusedForNonParticipant(t *testing.T) {
	hub, _ := newTestHub(t)
	srv := serveHub(t, hub)
	conn := dial(t, srv, "mallory")

	send(t, conn, EventJoinConversation, ConversationRoomData{ConversationID: "conv-1"})

	f := readFrame(t, conn)
	assert.Equal(t, EventError, f.Event)
	data := f.Data.(map[string]interface{})
	assert.Equal(t, EventJoinConversation, data["event"])
	assert.Equal(t, "you are not a participant in this conversation", data["message"])
	assert.Equal(t, 0, hub.ChannelSize("conv-1"))
}

func TestPingAndUnknownEvent(t *testing.T) {
	hub, _ := newTestHub(t)
	srv := serveHub(t, hub)
	conn := dial(t, srv, "alice")

	send(t, conn, EventPing, nil)
	assert.Equal(t, EventPong, readFrame(t, conn).Event)

	send(t, conn, "typing", nil)
	assert.Equal(t, EventError, readFrame(t, conn).Event)

	send(t, conn, EventJoinConversation, nil)
	f := readFrame(t, conn)
	assert.Equal(t, EventError, f.Event)
	assert.Equal(t, "conversationId is required", f.Data.(map[string]interface{})["message"])
}

func TestDisconnectUnsubscribes(t *testing.T) {
	hub, m := newTestHub(t)
	srv := serveHub(t, hub)
	conn := dial(t, srv, "alice")

	require.Eventually(t, func() bool { return hub.ChannelSize("alice") == 1 }, time.Second, 10*time.Millisecond)
	conn.Close()

	require.Eventually(t, func() bool { return hub.ChannelSize("alice") == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.ConnectedClients))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.ChannelMembers))
}

func TestFullQueueDropsInsteadOfBlocking(t *testing.T) {
	hub, m := newTestHub(t)
	client := &Client{UserID: "alice", Send: make(chan []byte, 1), rooms: make(map[string]struct{})}
	hub.Register(client)

	require.NoError(t, hub.Publish(context.Background(), "alice", EventNewNotification, "first"))
	require.NoError(t, hub.Publish(context.Background(), "alice", EventNewNotification, "second"))

	assert.Len(t, client.Send, 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventsDropped.WithLabelValues(EventNewNotification)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.EventsPublished.WithLabelValues(EventNewNotification)))

	hub.Unregister(client)
	hub.Unregister(client)
	_, open := <-client.Send
	assert.True(t, open, "queued frame is still readable")
	_, open = <-client.Send
	assert.False(t, open)
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	hub, _ := newTestHub(t)
	assert.NoError(t, hub.Publish(context.Background(), "nobody", EventNewMessage, nil))
}
