package connectivity

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"choiros-backend/internal/models"

	"github.com/gorilla/websocket"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsWriteWait  = 10 * time.Second
)

// WebSocketProvider holds a connection to the server's station hub. The
// station is online while the connection is up. SYNC_ATTENDANCE pushed by
// the server is passed to the wake handler.
type WebSocketProvider struct {
	*notifier
	url     string
	header  http.Header
	dialer  *websocket.Dialer
	onWake  func()
	maxWait time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWebSocketProvider(url string, header http.Header, maxWait time.Duration) *WebSocketProvider {
	if maxWait <= 0 {
		maxWait = time.Minute
	}
	return &WebSocketProvider{
		notifier: newNotifier(false),
		url:      url,
		header:   header,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		maxWait:  maxWait,
	}
}

// OnWake sets the handler for server-pushed sync requests. Call before Start.
func (p *WebSocketProvider) OnWake(fn func()) {
	p.onWake = fn
}

// Start connects in the background and keeps reconnecting until Stop.
func (p *WebSocketProvider) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	p.wg.Add(1)
	go p.run(ctx)
}

func (p *WebSocketProvider) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.set(false)
}

func (p *WebSocketProvider) run(ctx context.Context) {
	defer p.wg.Done()

	initial := time.Second
	if initial > p.maxWait {
		initial = p.maxWait
	}
	wait := initial
	for {
		conn, _, err := p.dialer.DialContext(ctx, p.url, p.header)
		if err == nil {
			wait = initial
			p.set(true)
			p.serve(ctx, conn)
			p.set(false)
		} else if ctx.Err() == nil {
			log.Printf("[Connectivity] Hub dial failed, retrying in %s: %v", wait, err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		wait *= 2
		if wait > p.maxWait {
			wait = p.maxWait
		}
	}
}

// serve reads until the connection fails or ctx is cancelled.
func (p *WebSocketProvider) serve(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)

	var writeMu sync.Mutex
	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				writeMu.Lock()
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(wsWriteWait))
				writeMu.Unlock()
				conn.Close()
				return
			case <-ticker.C:
				writeMu.Lock()
				err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
				writeMu.Unlock()
				if err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("[Connectivity] Hub connection lost: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsPongWait))

		var msg models.SyncMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("[Connectivity] Ignoring malformed hub message: %v", err)
			continue
		}
		if msg.Type == models.MessageSyncAttendance && p.onWake != nil {
			log.Println("[Connectivity] Server requested a sync pass")
			p.onWake()
		}
	}
}
