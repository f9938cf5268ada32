package serve

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faisalx96/llm-eval-sub000/internal/eval/hub"
	"github.com/faisalx96/llm-eval-sub000/pkg/api"
)

func dialTestServer(t *testing.T, h *hub.Hub, query string) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(NewSubscriberServer(h, nil))
	url := "ws" + strings.TrimPrefix(server.URL, "http") + query
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return ws, func() {
		ws.Close()
		server.Close()
	}
}

func readEvent(t *testing.T, ws *websocket.Conn) *api.Event {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var event api.Event
	require.NoError(t, ws.ReadJSON(&event))
	return &event
}

func TestSubscriberReceivesJobEvents(t *testing.T) {
	h := hub.New(hub.Config{})
	ws, cleanup := dialTestServer(t, h, "?job=job-1")
	defer cleanup()

	connected := readEvent(t, ws)
	assert.Equal(t, api.EventConnected, connected.Type)
	assert.NotEmpty(t, connected.Payload["connection_id"])

	h.BroadcastToJob("job-1", api.NewEvent("job-1", api.EventProgress, map[string]interface{}{
		"item_index": 0,
	}))
	event := readEvent(t, ws)
	assert.Equal(t, api.EventProgress, event.Type)
	assert.Equal(t, "job-1", event.JobId)

	// An event for another job must not reach this subscriber.
	h.BroadcastToJob("job-2", api.NewEvent("job-2", api.EventProgress, nil))
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var unexpected api.Event
	assert.Error(t, ws.ReadJSON(&unexpected))
}

func TestInboundSubscribeAction(t *testing.T) {
	h := hub.New(hub.Config{})
	ws, cleanup := dialTestServer(t, h, "")
	defer cleanup()

	connected := readEvent(t, ws)
	require.Equal(t, api.EventConnected, connected.Type)

	require.NoError(t, ws.WriteJSON(map[string]string{"action": "unsubscribe", "job_id": hub.AllJobs}))
	require.NoError(t, ws.WriteJSON(map[string]string{"action": "subscribe", "job_id": "job-9"}))
	// Inbound frames are handled in order, so the status reply means both
	// subscription changes have been applied.
	require.NoError(t, ws.WriteJSON(map[string]string{"action": "status"}))
	status := readEvent(t, ws)
	require.Equal(t, api.EventStatus, status.Type)

	h.BroadcastToJob("job-9", api.NewEvent("job-9", api.EventCompleted, nil))
	event := readEvent(t, ws)
	assert.Equal(t, api.EventCompleted, event.Type)
	assert.Equal(t, "job-9", event.JobId)
}

func TestDisconnectDetachesConnection(t *testing.T) {
	h := hub.New(hub.Config{})
	ws, cleanup := dialTestServer(t, h, "")
	defer cleanup()

	connected := readEvent(t, ws)
	require.Equal(t, api.EventConnected, connected.Type)
	require.Equal(t, 1, h.NumConnections())

	ws.Close()
	assert.Eventually(t, func() bool {
		return h.NumConnections() == 0
	}, 5*time.Second, 10*time.Millisecond)
}
