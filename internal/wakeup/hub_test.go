package wakeup

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"choiros-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub, org string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, org)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestBroadcastReachesOnlyTheOrganization(t *testing.T) {
	hub := NewHub(nil)
	alto := dialHub(t, hub, "alto")
	bass := dialHub(t, hub, "bass")

	require.Eventually(t, func() bool {
		return hub.Connected("alto") == 1 && hub.Connected("bass") == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, hub.Broadcast("alto", "manual"))

	var msg models.SyncMessage
	alto.SetReadDeadline(time.Now().Add(time.Second))
	require.NoError(t, alto.ReadJSON(&msg))
	assert.Equal(t, models.MessageSyncAttendance, msg.Type)

	bass.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	_, _, err := bass.ReadMessage()
	assert.Error(t, err)
}

func TestDisconnectedStationIsForgotten(t *testing.T) {
	hub := NewHub(nil)
	conn := dialHub(t, hub, "alto")
	require.Eventually(t, func() bool { return hub.Connected("alto") == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Connected("alto") == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, hub.Broadcast("alto", "manual"))
}
