package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/collectionmap/internal/server/events"
	"github.com/agentstation/collectionmap/internal/server/sse"
	ws "github.com/agentstation/collectionmap/internal/server/websocket"
)

func TestBrokerToWebSocket(t *testing.T) {
	logger := zerolog.Nop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := ws.NewHub(&logger)
	broker := events.NewBroker(&logger)
	broker.Subscribe(NewWebSocketSubscriber(hub))
	go hub.Run(ctx)
	go broker.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err == nil {
			hub.Serve(conn)
		}
	}))
	defer srv.Close()

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer conn.Close()

	var msg ws.Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "client.connected", msg.Type)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	broker.Publish(events.UploadExpired, map[string]any{"uploadId": "u1"})

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, string(events.UploadExpired), msg.Type)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, map[string]any{"uploadId": "u1"}, msg.Data)
}

func TestSSESubscriberKeepsEventID(t *testing.T) {
	logger := zerolog.Nop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := sse.NewBroadcaster(&logger)
	go b.Run(ctx)

	srv := httptest.NewServer(b)
	defer srv.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	sub := NewSSESubscriber(b)
	require.NoError(t, sub.Send(events.Event{ID: "evt-7", Type: events.UploadCreated, Data: map[string]string{"uploadId": "u7"}}))

	var body strings.Builder
	buf := make([]byte, 512)
	require.Eventually(t, func() bool {
		n, _ := resp.Body.Read(buf)
		body.Write(buf[:n])
		return strings.Contains(body.String(), "id: evt-7")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, body.String(), "event: upload.created\nid: evt-7\ndata: {\"uploadId\":\"u7\"}\n\n")
}
