package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"choiros-backend/internal/models"
	"choiros-backend/internal/repositories"

	"github.com/skip2/go-qrcode"
)

// WakeupScheduler arranges for stations to flush before a code expires.
type WakeupScheduler interface {
	ScheduleSyncWakeup(org string, eventID int64, validUntil time.Time) error
}

// CheckInCodeService produces the QR codes members scan at an event.
type CheckInCodeService struct {
	Events    EventFinder
	Scheduler WakeupScheduler

	nowFunc func() time.Time
}

func NewCheckInCodeService(events EventFinder, scheduler WakeupScheduler) *CheckInCodeService {
	return &CheckInCodeService{Events: events, Scheduler: scheduler, nowFunc: time.Now}
}

// Generate builds the code for a tenant event. Scheduling the wake-up is
// best effort; a failure is logged and the code is still returned.
func (s *CheckInCodeService) Generate(ctx context.Context, org *models.Organization, eventID int64) (*models.CheckInPayload, error) {
	event, err := s.Events.GetByID(ctx, org.ID, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}

	payload := models.NewCheckInPayload(event, s.nowFunc())
	if s.Scheduler != nil {
		if err := s.Scheduler.ScheduleSyncWakeup(org.Slug, event.ID, payload.ValidUntilTime()); err != nil {
			log.Printf("[CheckInCode] Wake-up for event %d not scheduled: %v", event.ID, err)
		}
	}
	return &payload, nil
}

// RenderPNG encodes the payload JSON as a QR code image of size pixels.
func RenderPNG(payload *models.CheckInPayload, size int) ([]byte, error) {
	if size <= 0 {
		size = 512
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(string(data), qrcode.Medium, size)
}
