package repositories

import (
	"context"
	"sort"
	"sync"

	"choiros-backend/internal/models"
)

// MemoryPendingStore keeps pending records in process memory. Records do
// not survive a restart, so it is meant for tests and kiosk demos.
type MemoryPendingStore struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]models.PendingAttendanceRecord
}

func NewMemoryPendingStore() *MemoryPendingStore {
	return &MemoryPendingStore{records: make(map[int64]models.PendingAttendanceRecord)}
}

func (s *MemoryPendingStore) Enqueue(_ context.Context, rec *models.PendingAttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	rec.LocalID = s.nextID
	rec.Synced = false
	s.records[rec.LocalID] = *rec
	return nil
}

func (s *MemoryPendingStore) ListAll(_ context.Context) ([]models.PendingAttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.PendingAttendanceRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	// ids are allocated monotonically, so id order is insertion order
	sort.Slice(out, func(i, j int) bool { return out[i].LocalID < out[j].LocalID })
	return out, nil
}

func (s *MemoryPendingStore) Remove(_ context.Context, localID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, localID)
	return nil
}

func (s *MemoryPendingStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records), nil
}
