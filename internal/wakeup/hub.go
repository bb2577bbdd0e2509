package wakeup

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"choiros-backend/internal/metrics"
	"choiros-backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	writeWait  = 10 * time.Second
	sendBuffer = 4
)

// Hub keeps the websocket connections of check-in stations grouped by
// organization and pushes SYNC_ATTENDANCE to them.
type Hub struct {
	upgrader websocket.Upgrader
	metrics  *metrics.Metrics

	mu    sync.RWMutex
	conns map[string]map[string]*agentConn
}

type agentConn struct {
	id   string
	org  string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// stations are not browsers; auth is the bearer token
			CheckOrigin: func(*http.Request) bool { return true },
		},
		metrics: m,
		conns:   make(map[string]map[string]*agentConn),
	}
}

// ServeWS upgrades the request and registers the station under org.
// The caller has already authenticated the station.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, org string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WakeupHub] Upgrade failed: %v", err)
		return
	}

	c := &agentConn{
		id:   uuid.NewString(),
		org:  org,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	h.register(c)
	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) register(c *agentConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[c.org] == nil {
		h.conns[c.org] = make(map[string]*agentConn)
	}
	h.conns[c.org][c.id] = c
	log.Printf("[WakeupHub] Station %s connected to %s (%d online)", c.id[:8], c.org, len(h.conns[c.org]))
}

func (h *Hub) unregister(c *agentConn) {
	c.once.Do(func() {
		h.mu.Lock()
		delete(h.conns[c.org], c.id)
		if len(h.conns[c.org]) == 0 {
			delete(h.conns, c.org)
		}
		h.mu.Unlock()
		close(c.done)
		c.conn.Close()
		log.Printf("[WakeupHub] Station %s disconnected from %s", c.id[:8], c.org)
	})
}

// Broadcast asks every station of org to run a sync pass and returns how
// many stations the message was queued for.
func (h *Hub) Broadcast(org, trigger string) int {
	data, _ := json.Marshal(models.SyncMessage{Type: models.MessageSyncAttendance})

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, c := range h.conns[org] {
		select {
		case c.send <- data:
			sent++
		default:
			// one wake-up already pending is as good as two
		}
	}
	h.metrics.WakeupSent(trigger, sent)
	log.Printf("[WakeupHub] %s: sync requested on %d station(s) of %s", trigger, sent, org)
	return sent
}

// Connected returns the number of stations online for org.
func (h *Hub) Connected(org string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[org])
}

// readPump discards station input and detects dead connections.
func (h *Hub) readPump(c *agentConn) {
	defer h.unregister(c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	c.conn.SetPingHandler(func(appData string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		// control writes may run concurrently with the write pump
		return c.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *agentConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.unregister(c)
	}()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
