package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"choiros-backend/internal/metrics"
	"choiros-backend/internal/models"
	"choiros-backend/internal/repositories"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrNotMember     = errors.New("user is not a member of this organization")
	ErrNotPermitted  = errors.New("members may only record their own attendance")
)

type EventFinder interface {
	GetByID(ctx context.Context, orgID, eventID int64) (*models.Event, error)
}

type MembershipFinder interface {
	Get(ctx context.Context, orgID, userID int64) (*models.Membership, error)
}

type AttendanceStore interface {
	Insert(ctx context.Context, a *models.Attendance) (bool, error)
	ListByEvent(ctx context.Context, eventID int64) ([]models.AttendanceListItem, error)
}

// Actor is the authenticated caller of an attendance operation.
type Actor struct {
	UserID     int64
	Role       string
	Superadmin bool
}

func (a Actor) canManage() bool {
	return a.Superadmin || a.Role == models.RoleDirector || a.Role == models.RoleAdmin
}

type AttendanceService struct {
	Events       EventFinder
	Memberships  MembershipFinder
	Attendance   AttendanceStore
	Metrics      *metrics.Metrics
	MaxClockSkew time.Duration

	nowFunc func() time.Time
}

func NewAttendanceService(events EventFinder, memberships MembershipFinder, attendance AttendanceStore, maxClockSkew time.Duration) *AttendanceService {
	return &AttendanceService{
		Events:       events,
		Memberships:  memberships,
		Attendance:   attendance,
		MaxClockSkew: maxClockSkew,
		nowFunc:      time.Now,
	}
}

// SetMetrics enables attendance counters
func (s *AttendanceService) SetMetrics(m *metrics.Metrics) {
	s.Metrics = m
}

// RecordAttendance stores a check-in for req.UserID at req.EventID. A zero
// UserID means the caller checks in themselves. Recording the same
// (event, user) twice is not an error: the stored row comes back with
// Duplicate set, so stations can safely retry.
func (s *AttendanceService) RecordAttendance(ctx context.Context, orgID int64, actor Actor, req models.RecordAttendanceRequest) (*models.RecordAttendanceResponse, error) {
	if req.UserID == 0 {
		req.UserID = actor.UserID
	}
	if req.UserID != actor.UserID && !actor.canManage() {
		return nil, ErrNotPermitted
	}

	if _, err := s.Events.GetByID(ctx, orgID, req.EventID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.Metrics.AttendanceRecorded("event_not_found")
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}

	if _, err := s.Memberships.Get(ctx, orgID, req.UserID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.Metrics.AttendanceRecorded("not_member")
			return nil, ErrNotMember
		}
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}

	now := s.nowFunc().UTC()
	source := req.Source
	if source == "" {
		source = models.AttendanceSourceDirect
	}
	a := &models.Attendance{
		EventID:    req.EventID,
		UserID:     req.UserID,
		CheckInAt:  s.checkInTime(req.CheckInAt, now),
		ReceivedAt: now,
		Source:     source,
	}

	created, err := s.Attendance.Insert(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("failed to store attendance: %w", err)
	}

	if created {
		s.Metrics.AttendanceRecorded("created")
		log.Printf("[Attendance] Event %d: user %d checked in (%s)", a.EventID, a.UserID, a.Source)
	} else {
		s.Metrics.AttendanceRecorded("duplicate")
	}
	return &models.RecordAttendanceResponse{Attendance: a, Duplicate: !created}, nil
}

// checkInTime keeps the capture time reported by the station unless it is
// missing or further ahead of the server clock than MaxClockSkew.
func (s *AttendanceService) checkInTime(reported *time.Time, now time.Time) time.Time {
	if reported == nil || reported.IsZero() {
		return now
	}
	if reported.Sub(now) > s.MaxClockSkew {
		log.Printf("[Attendance] Check-in time %s is ahead of server clock, using %s",
			reported.Format(time.RFC3339), now.Format(time.RFC3339))
		return now
	}
	return reported.UTC()
}

// ListEventAttendance returns the check-ins of a tenant event
func (s *AttendanceService) ListEventAttendance(ctx context.Context, orgID, eventID int64) ([]models.AttendanceListItem, error) {
	if _, err := s.Events.GetByID(ctx, orgID, eventID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	return s.Attendance.ListByEvent(ctx, eventID)
}
