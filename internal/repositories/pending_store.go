package repositories

import (
	"context"
	"errors"
	"fmt"

	"choiros-backend/internal/models"
)

// ErrPendingStore wraps every failure of the local pending store so callers
// can tell "could not save the check-in" apart from network errors.
var ErrPendingStore = errors.New("pending store")

// PendingStore is the durable queue of check-ins a station has not yet
// delivered. Records come back from ListAll in insertion order.
type PendingStore interface {
	// Enqueue assigns rec.LocalID and returns once the record is durable.
	Enqueue(ctx context.Context, rec *models.PendingAttendanceRecord) error
	// ListAll returns a snapshot of every pending record.
	ListAll(ctx context.Context) ([]models.PendingAttendanceRecord, error)
	// Remove deletes a record. Removing an absent record is not an error.
	Remove(ctx context.Context, localID int64) error
	// Count returns the number of pending records.
	Count(ctx context.Context) (int, error)
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPendingStore, op, err)
}
