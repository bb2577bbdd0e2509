package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"choiros-backend/internal/metrics"
	"choiros-backend/internal/models"
	"choiros-backend/internal/repositories"
)

// Scanner states
const (
	CaptureIdle     = "idle"
	CaptureScanning = "scanning"
)

// Capture outcomes
const (
	OutcomeSent   = "sent"
	OutcomeQueued = "queued"
)

// Messages shown on the station screen.
const (
	MsgInvalidCode = "QR code non valido"
	MsgExpiredCode = "QR code scaduto"
	MsgStoreFailed = "Impossibile salvare il check-in"
	MsgSendFailed  = "Check-in non riuscito, riprova"
	MsgSent        = "Check-in registrato"
	MsgQueued      = "Check-in salvato, verrà inviato appena online"
)

var (
	ErrNotScanning  = errors.New("scanner is not active")
	ErrInvalidCode  = errors.New(MsgInvalidCode)
	ErrExpiredCode  = errors.New(MsgExpiredCode)
	ErrStoreFailed  = errors.New(MsgStoreFailed)
	ErrSendFailed   = errors.New(MsgSendFailed)
	ErrNoMemberUser = errors.New("station has no member configured")
)

// OnlineChecker reports the current connectivity state.
type OnlineChecker interface {
	Online() bool
}

// CaptureResult describes an accepted check-in.
type CaptureResult struct {
	Outcome    string    `json:"outcome"`
	EventID    int64     `json:"event_id"`
	EventTitle string    `json:"event_title,omitempty"`
	LocalID    int64     `json:"local_id,omitempty"`
	CheckInAt  time.Time `json:"check_in_at"`
	Message    string    `json:"message"`
}

// CheckInCapture turns scanned codes into check-ins. Online it sends them
// straight to the server; offline it puts them in the pending store.
//
// A failed online send is reported and not queued: the member retries by
// scanning again, and queueing as well would deliver the check-in twice.
type CheckInCapture struct {
	connectivity OnlineChecker
	sender       AttendanceSender
	store        repositories.PendingStore
	metrics      *metrics.Metrics
	userID       int64
	callTimeout  time.Duration
	nowFunc      func() time.Time

	mu    sync.Mutex
	state string
}

func NewCheckInCapture(
	connectivity OnlineChecker,
	sender AttendanceSender,
	store repositories.PendingStore,
	m *metrics.Metrics,
	userID int64,
	callTimeout time.Duration,
) *CheckInCapture {
	if callTimeout <= 0 {
		callTimeout = 10 * time.Second
	}
	return &CheckInCapture{
		connectivity: connectivity,
		sender:       sender,
		store:        store,
		metrics:      m,
		userID:       userID,
		callTimeout:  callTimeout,
		nowFunc:      time.Now,
		state:        CaptureIdle,
	}
}

// State returns idle or scanning.
func (c *CheckInCapture) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start activates the scanner. Scanning never resumes by itself after a
// rejected code; the member has to start it again.
func (c *CheckInCapture) Start() {
	c.setState(CaptureScanning)
}

// Stop deactivates the scanner.
func (c *CheckInCapture) Stop() {
	c.setState(CaptureIdle)
}

func (c *CheckInCapture) setState(state string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

// DecodeCheckInPayload parses scanned text and checks the discriminator.
// It does not check expiry.
func DecodeCheckInPayload(raw string) (*models.CheckInPayload, error) {
	var payload models.CheckInPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &payload); err != nil {
		return nil, ErrInvalidCode
	}
	if payload.Type != models.CheckInPayloadType || payload.EventID <= 0 {
		return nil, ErrInvalidCode
	}
	return &payload, nil
}

// Decode handles one scanned code. Rejected codes return the scanner to
// idle before any storage or network call is made.
func (c *CheckInCapture) Decode(ctx context.Context, raw string) (*CaptureResult, error) {
	c.mu.Lock()
	if c.state != CaptureScanning {
		c.mu.Unlock()
		return nil, ErrNotScanning
	}
	// first decodable payload ends the scan, whatever its verdict
	c.state = CaptureIdle
	c.mu.Unlock()

	if c.userID <= 0 {
		return nil, ErrNoMemberUser
	}

	now := c.nowFunc()
	payload, err := DecodeCheckInPayload(raw)
	if err != nil {
		log.Printf("[Capture] Rejected scan: not a check-in code")
		c.metrics.CheckIn("invalid")
		return nil, err
	}
	if payload.IsExpired(now) {
		log.Printf("[Capture] Rejected scan: code for event %d expired at %s",
			payload.EventID, payload.ValidUntilTime().Format(time.RFC3339))
		c.metrics.CheckIn("expired")
		return nil, ErrExpiredCode
	}

	result := &CaptureResult{
		EventID:    payload.EventID,
		EventTitle: payload.EventTitle,
		CheckInAt:  now.UTC(),
	}

	if c.connectivity.Online() {
		return c.send(ctx, result)
	}
	return c.enqueue(ctx, result)
}

func (c *CheckInCapture) send(ctx context.Context, result *CaptureResult) (*CaptureResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	at := result.CheckInAt
	_, err := c.sender.RecordAttendance(callCtx, models.RecordAttendanceRequest{
		EventID:   result.EventID,
		UserID:    c.userID,
		CheckInAt: &at,
		Source:    models.AttendanceSourceDirect,
	})
	if err != nil {
		log.Printf("[Capture] Direct check-in for event %d failed: %v", result.EventID, err)
		c.metrics.CheckIn("failed")
		return nil, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	result.Outcome = OutcomeSent
	result.Message = MsgSent
	c.metrics.CheckIn(OutcomeSent)
	log.Printf("[Capture] Event %d: check-in sent", result.EventID)
	return result, nil
}

func (c *CheckInCapture) enqueue(ctx context.Context, result *CaptureResult) (*CaptureResult, error) {
	rec := &models.PendingAttendanceRecord{
		EventID:   result.EventID,
		UserID:    c.userID,
		CheckInAt: result.CheckInAt,
	}
	if err := c.store.Enqueue(ctx, rec); err != nil {
		log.Printf("[Capture] Could not queue check-in for event %d: %v", result.EventID, err)
		c.metrics.CheckIn("failed")
		return nil, fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}

	if n, err := c.store.Count(ctx); err == nil {
		c.metrics.SetPending(n)
	}
	result.Outcome = OutcomeQueued
	result.LocalID = rec.LocalID
	result.Message = MsgQueued
	c.metrics.CheckIn(OutcomeQueued)
	log.Printf("[Capture] Event %d: offline, queued as record %d", result.EventID, rec.LocalID)
	return result, nil
}
