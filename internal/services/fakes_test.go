package services

import (
	"context"
	"errors"
	"sync"

	"choiros-backend/internal/models"
	"choiros-backend/internal/repositories"
)

var errServerDown = errors.New("connection refused")

// fakeSender records every call and fails for the events listed in failFor.
type fakeSender struct {
	mu      sync.Mutex
	calls   []models.RecordAttendanceRequest
	failFor map[int64]bool
	failAll bool
	block   chan struct{}
}

func newFakeSender() *fakeSender {
	return &fakeSender{failFor: make(map[int64]bool)}
}

func (f *fakeSender) RecordAttendance(ctx context.Context, req models.RecordAttendanceRequest) (*models.RecordAttendanceResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	fail := f.failAll || f.failFor[req.EventID]
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, errServerDown
	}
	return &models.RecordAttendanceResponse{
		Attendance: &models.Attendance{EventID: req.EventID, UserID: req.UserID},
	}, nil
}

func (f *fakeSender) Calls() []models.RecordAttendanceRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.RecordAttendanceRequest, len(f.calls))
	copy(out, f.calls)
	return out
}

type staticOnline bool

func (s staticOnline) Online() bool { return bool(s) }

// failingStore rejects every write.
type failingStore struct {
	repositories.PendingStore
}

func (failingStore) Enqueue(context.Context, *models.PendingAttendanceRecord) error {
	return errors.New("disk full")
}

func (failingStore) Count(context.Context) (int, error) { return 0, nil }

// removeFailingStore accepts everything but never deletes.
type removeFailingStore struct {
	*repositories.MemoryPendingStore
}

func (removeFailingStore) Remove(context.Context, int64) error {
	return errors.New("read-only")
}
