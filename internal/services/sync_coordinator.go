package services

import (
	"context"
	"log"
	"sync"
	"time"

	"choiros-backend/internal/events"
	"choiros-backend/internal/metrics"
	"choiros-backend/internal/models"
	"choiros-backend/internal/repositories"

	"github.com/google/uuid"
)

// AttendanceSender delivers one check-in to the server.
type AttendanceSender interface {
	RecordAttendance(ctx context.Context, req models.RecordAttendanceRequest) (*models.RecordAttendanceResponse, error)
}

// SyncCoordinator drains the pending store against the server.
//
// A pass snapshots the store, sends each record once in store order, removes
// acknowledged records and leaves failed ones for the next pass. Passes are
// serialized: a trigger arriving mid-pass waits for the running pass to
// finish, so one station never sends the same record twice concurrently.
type SyncCoordinator struct {
	store       repositories.PendingStore
	sender      AttendanceSender
	bus         *events.Bus
	metrics     *metrics.Metrics
	callTimeout time.Duration
	interval    time.Duration

	passMu   sync.Mutex
	lastMu   sync.RWMutex
	lastPass *models.SyncResult

	triggerCh chan struct{}
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewSyncCoordinator creates a coordinator. callTimeout bounds each send;
// interval > 0 adds a periodic pass to the background loop.
func NewSyncCoordinator(
	store repositories.PendingStore,
	sender AttendanceSender,
	bus *events.Bus,
	m *metrics.Metrics,
	callTimeout, interval time.Duration,
) *SyncCoordinator {
	if callTimeout <= 0 {
		callTimeout = 10 * time.Second
	}
	return &SyncCoordinator{
		store:       store,
		sender:      sender,
		bus:         bus,
		metrics:     m,
		callTimeout: callTimeout,
		interval:    interval,
		triggerCh:   make(chan struct{}, 1),
		stopCh:      make(chan struct{}),
	}
}

// Start launches the background loop serving Trigger and the periodic pass.
func (s *SyncCoordinator) Start() {
	s.wg.Add(1)
	go s.loop()
	log.Printf("[SyncCoordinator] Started (interval: %s, call timeout: %s)", s.interval, s.callTimeout)
}

// Stop waits for the running pass, if any, and ends the loop.
func (s *SyncCoordinator) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	log.Println("[SyncCoordinator] Stopped")
}

// Trigger asks the background loop for a pass without waiting for it.
// Triggers arriving while one is already queued are coalesced.
func (s *SyncCoordinator) Trigger() {
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

// LastPass returns the result of the most recent completed pass.
func (s *SyncCoordinator) LastPass() *models.SyncResult {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	return s.lastPass
}

func (s *SyncCoordinator) loop() {
	defer s.wg.Done()

	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-s.stopCh:
			return
		case <-s.triggerCh:
		case <-tick:
		}
		if _, err := s.SyncPending(context.Background()); err != nil {
			log.Printf("[SyncCoordinator] Pass aborted: %v", err)
		}
	}
}

// SyncPending runs one pass and returns its summary. The only error is a
// failure to read the pending store; per-record failures are counted in the
// result and logged.
func (s *SyncCoordinator) SyncPending(ctx context.Context) (*models.SyncResult, error) {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	result := &models.SyncResult{PassID: uuid.NewString(), StartedAt: time.Now()}

	records, err := s.store.ListAll(ctx)
	if err != nil {
		s.metrics.SyncPass("error", time.Since(result.StartedAt))
		return nil, err
	}
	if len(records) > 0 {
		log.Printf("[SyncCoordinator] Pass %s: %d pending record(s)", result.PassID[:8], len(records))
	}

	for _, rec := range records {
		result.Attempted++
		if s.syncOne(ctx, rec) {
			result.Synced++
		} else {
			result.Failed++
		}
	}

	result.Duration = time.Since(result.StartedAt)
	s.metrics.SyncPass("complete", result.Duration)
	if n, err := s.store.Count(ctx); err == nil {
		s.metrics.SetPending(n)
	}
	if result.Attempted > 0 {
		log.Printf("[SyncCoordinator] Pass %s done in %s: %d synced, %d left for retry",
			result.PassID[:8], result.Duration.Round(time.Millisecond), result.Synced, result.Failed)
	}

	s.lastMu.Lock()
	s.lastPass = result
	s.lastMu.Unlock()
	return result, nil
}

// syncOne sends a single record and reports whether it left the queue.
func (s *SyncCoordinator) syncOne(ctx context.Context, rec models.PendingAttendanceRecord) bool {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	req := rec.ToRequest()
	req.Source = models.AttendanceSourceQueued
	_, err := s.sender.RecordAttendance(callCtx, req)
	cancel()

	if err != nil {
		log.Printf("[SyncCoordinator] Record %d (event %d, user %d) not synced: %v",
			rec.LocalID, rec.EventID, rec.UserID, err)
		s.metrics.SyncRecord("failed")
		return false
	}

	if err := s.store.Remove(ctx, rec.LocalID); err != nil {
		// delivered but still queued: the next pass resends it and the
		// server answers with the existing row
		log.Printf("[SyncCoordinator] Record %d synced but not removed: %v", rec.LocalID, err)
		s.metrics.SyncRecord("unremoved")
		return false
	}

	s.metrics.SyncRecord("synced")
	if s.bus != nil {
		s.bus.Publish(models.SyncMessage{Type: models.MessageAttendanceSynced, RecordID: rec.LocalID})
	}
	return true
}
