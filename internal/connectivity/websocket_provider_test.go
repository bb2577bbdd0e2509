package connectivity

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"choiros-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocketProviderOnlineAndWake(t *testing.T) {
	upgrader := websocket.Upgrader{}
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.WriteJSON(models.SyncMessage{Type: models.MessageSyncAttendance}))
		<-release
	}))
	defer srv.Close()

	header := http.Header{}
	header.Set("Authorization", "Bearer tok")
	p := NewWebSocketProvider("ws"+strings.TrimPrefix(srv.URL, "http"), header, 50*time.Millisecond)

	var wakes atomic.Int32
	p.OnWake(func() { wakes.Add(1) })
	p.Start()
	defer p.Stop()

	assert.Eventually(t, p.Online, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return wakes.Load() == 1 }, time.Second, 5*time.Millisecond)

	close(release)
	assert.Eventually(t, func() bool { return !p.Online() }, time.Second, 5*time.Millisecond)
}

func TestWebSocketProviderOfflineWhenUnreachable(t *testing.T) {
	p := NewWebSocketProvider("ws://127.0.0.1:1/ws/agents", nil, 20*time.Millisecond)
	p.Start()
	time.Sleep(30 * time.Millisecond)
	assert.False(t, p.Online())
	p.Stop()
}
