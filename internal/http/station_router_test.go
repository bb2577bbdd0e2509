package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"choiros-backend/internal/connectivity"
	"choiros-backend/internal/events"
	"choiros-backend/internal/handlers"
	"choiros-backend/internal/health"
	"choiros-backend/internal/models"
	"choiros-backend/internal/repositories"
	"choiros-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type switchableSender struct {
	down  atomic.Bool
	calls atomic.Int32
}

func (s *switchableSender) RecordAttendance(_ context.Context, req models.RecordAttendanceRequest) (*models.RecordAttendanceResponse, error) {
	s.calls.Add(1)
	if s.down.Load() {
		return nil, errors.New("connection refused")
	}
	return &models.RecordAttendanceResponse{Attendance: &models.Attendance{EventID: req.EventID, UserID: req.UserID}}, nil
}

type stationFixture struct {
	router  http.Handler
	online  *connectivity.ManualProvider
	sender  *switchableSender
	store   *repositories.MemoryPendingStore
	monitor *connectivity.Monitor
	coord   *services.SyncCoordinator
}

func newStationFixture(t *testing.T) *stationFixture {
	t.Helper()
	store := repositories.NewMemoryPendingStore()
	sender := &switchableSender{}
	bus := events.NewBus()
	online := connectivity.NewManualProvider(true)

	coord := services.NewSyncCoordinator(store, sender, bus, nil, time.Second, 0)
	monitor := connectivity.NewMonitor(online, coord.Trigger, nil)
	capture := services.NewCheckInCapture(monitor, sender, store, nil, 42, time.Second)

	coord.Start()
	monitor.Start()
	t.Cleanup(func() {
		monitor.Stop()
		coord.Stop()
	})

	station := handlers.NewStationHandler(capture, coord, store, monitor, bus)
	return &stationFixture{
		router:  NewStationRouter(station, health.NewHealthChecker(), nil),
		online:  online,
		sender:  sender,
		store:   store,
		monitor: monitor,
		coord:   coord,
	}
}

func (f *stationFixture) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func validCode(eventID int64) string {
	b, _ := json.Marshal(models.CheckInPayload{
		Type:       models.CheckInPayloadType,
		EventID:    eventID,
		Timestamp:  time.Now().UnixMilli(),
		ValidUntil: time.Now().Add(time.Hour).UnixMilli(),
	})
	return string(b)
}

func TestStationOfflineCaptureThenReconnect(t *testing.T) {
	f := newStationFixture(t)
	f.online.Set(false)
	require.Eventually(t, func() bool { return !f.monitor.Online() }, time.Second, 5*time.Millisecond)

	for _, eventID := range []int64{7, 8} {
		require.Equal(t, http.StatusOK, f.post(t, "/api/scanner/start", "").Code)
		rec := f.post(t, "/api/scanner/scan", validCode(eventID))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"outcome":"queued"`)
	}
	assert.Zero(t, f.sender.calls.Load())

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	var overview models.PendingOverview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &overview))
	assert.False(t, overview.Online)
	assert.Equal(t, 2, overview.PendingCount)
	assert.Equal(t, services.CaptureIdle, overview.ScannerState)

	f.online.Set(true)
	assert.Eventually(t, func() bool {
		n, _ := f.store.Count(context.Background())
		return n == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(2), f.sender.calls.Load())
}

func TestStationScanRejections(t *testing.T) {
	f := newStationFixture(t)

	rec := f.post(t, "/api/scanner/scan", validCode(7))
	assert.Equal(t, http.StatusConflict, rec.Code)

	f.post(t, "/api/scanner/start", "")
	rec = f.post(t, "/api/scanner/scan", "hello")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), services.MsgInvalidCode)

	f.post(t, "/api/scanner/start", "")
	f.sender.down.Store(true)
	req := httptest.NewRequest(http.MethodPost, "/api/scanner/scan", strings.NewReader(`{"code":`+jsonString(validCode(7))+`}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	n, _ := f.store.Count(context.Background())
	assert.Zero(t, n)
}

func TestStationManualSyncAndEventStream(t *testing.T) {
	f := newStationFixture(t)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/events", nil)
	require.NoError(t, err)
	defer conn.Close()

	rec := &models.PendingAttendanceRecord{EventID: 7, UserID: 42, CheckInAt: time.Now()}
	require.NoError(t, f.store.Enqueue(context.Background(), rec))

	// the stream subscribes asynchronously after the upgrade
	time.Sleep(50 * time.Millisecond)

	resp := f.post(t, "/api/sync", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var result models.SyncResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Synced)

	var msg models.SyncMessage
	conn.SetReadDeadline(time.Now().Add(time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, models.MessageAttendanceSynced, msg.Type)
	assert.Equal(t, rec.LocalID, msg.RecordID)
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
