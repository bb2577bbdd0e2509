package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"choiros-backend/internal/events"
	"choiros-backend/internal/models"
	"choiros-backend/internal/repositories"
	"choiros-backend/internal/services"

	"github.com/gorilla/websocket"
)

// StationHandler is the local API of a check-in station, used by the kiosk
// UI running on the same device.
type StationHandler struct {
	Capture     *services.CheckInCapture
	Coordinator *services.SyncCoordinator
	Store       repositories.PendingStore
	Online      services.OnlineChecker
	Bus         *events.Bus

	upgrader websocket.Upgrader
}

func NewStationHandler(
	capture *services.CheckInCapture,
	coordinator *services.SyncCoordinator,
	store repositories.PendingStore,
	online services.OnlineChecker,
	bus *events.Bus,
) *StationHandler {
	return &StationHandler{
		Capture:     capture,
		Coordinator: coordinator,
		Store:       store,
		Online:      online,
		Bus:         bus,
		upgrader:    websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
	}
}

// GetStatus returns connectivity, queue size and scanner state.
// GET /api/status
func (h *StationHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	count, err := h.Store.Count(r.Context())
	if err != nil {
		http.Error(w, "Failed to read pending store: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, models.PendingOverview{
		Online:       h.Online.Online(),
		PendingCount: count,
		ScannerState: h.Capture.State(),
		LastSync:     h.Coordinator.LastPass(),
	})
}

// ListPending returns the queued check-ins in capture order.
// GET /api/pending
func (h *StationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListAll(r.Context())
	if err != nil {
		http.Error(w, "Failed to read pending store: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// TriggerSync runs a sync pass and returns its summary.
// POST /api/sync
func (h *StationHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	result, err := h.Coordinator.SyncPending(r.Context())
	if err != nil {
		http.Error(w, "Sync failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// StartScanner activates the scanner.
// POST /api/scanner/start
func (h *StationHandler) StartScanner(w http.ResponseWriter, r *http.Request) {
	h.Capture.Start()
	writeJSON(w, http.StatusOK, map[string]string{"state": h.Capture.State()})
}

// StopScanner deactivates the scanner.
// POST /api/scanner/stop
func (h *StationHandler) StopScanner(w http.ResponseWriter, r *http.Request) {
	h.Capture.Stop()
	writeJSON(w, http.StatusOK, map[string]string{"state": h.Capture.State()})
}

type scanRequest struct {
	Code string `json:"code"`
}

// Scan submits one decoded QR text. The body is either {"code": "..."} or
// the raw scanned text.
// POST /api/scanner/scan
func (h *StationHandler) Scan(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	code := string(body)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req scanRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		code = req.Code
	}

	result, err := h.Capture.Decode(r.Context(), code)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result)
	case errors.Is(err, services.ErrNotScanning):
		writeError(w, http.StatusConflict, "not_scanning", err.Error())
	case errors.Is(err, services.ErrInvalidCode):
		writeError(w, http.StatusUnprocessableEntity, "invalid_code", services.MsgInvalidCode)
	case errors.Is(err, services.ErrExpiredCode):
		writeError(w, http.StatusUnprocessableEntity, "expired_code", services.MsgExpiredCode)
	case errors.Is(err, services.ErrSendFailed):
		writeError(w, http.StatusBadGateway, "send_failed", services.MsgSendFailed)
	case errors.Is(err, services.ErrStoreFailed):
		writeError(w, http.StatusInternalServerError, "store_failed", services.MsgStoreFailed)
	default:
		writeError(w, http.StatusInternalServerError, models.ErrCodeInternal, err.Error())
	}
}

// StreamEvents pushes ATTENDANCE_SYNCED messages to the kiosk UI.
// GET /ws/events
func (h *StationHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Station] Event stream upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	msgs, unsubscribe := h.Bus.Subscribe(32)
	defer unsubscribe()

	// the UI never sends; reading only detects the close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}
