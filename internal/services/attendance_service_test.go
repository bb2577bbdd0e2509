package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"choiros-backend/internal/models"
	"choiros-backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memEvents map[int64]*models.Event

func (m memEvents) GetByID(_ context.Context, orgID, eventID int64) (*models.Event, error) {
	e, ok := m[eventID]
	if !ok || e.OrganizationID != orgID {
		return nil, repositories.ErrNotFound
	}
	return e, nil
}

type memMemberships map[int64]string

func (m memMemberships) Get(_ context.Context, orgID, userID int64) (*models.Membership, error) {
	role, ok := m[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &models.Membership{OrganizationID: orgID, UserID: userID, Role: role}, nil
}

type memAttendance struct {
	nextID int64
	rows   map[[2]int64]models.Attendance
	err    error
}

func newMemAttendance() *memAttendance {
	return &memAttendance{rows: make(map[[2]int64]models.Attendance)}
}

func (m *memAttendance) Insert(_ context.Context, a *models.Attendance) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	key := [2]int64{a.EventID, a.UserID}
	if existing, ok := m.rows[key]; ok {
		*a = existing
		return false, nil
	}
	m.nextID++
	a.ID = m.nextID
	m.rows[key] = *a
	return true, nil
}

func (m *memAttendance) ListByEvent(_ context.Context, eventID int64) ([]models.AttendanceListItem, error) {
	var out []models.AttendanceListItem
	for _, a := range m.rows {
		if a.EventID == eventID {
			out = append(out, models.AttendanceListItem{Attendance: a})
		}
	}
	return out, nil
}

var serverNow = time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)

func newAttendanceService() (*AttendanceService, *memAttendance) {
	store := newMemAttendance()
	svc := NewAttendanceService(
		memEvents{7: {ID: 7, OrganizationID: 1, Title: "Prova"}},
		memMemberships{42: models.RoleMember, 43: models.RoleMember, 50: models.RoleDirector},
		store,
		5*time.Minute,
	)
	svc.nowFunc = func() time.Time { return serverNow }
	return svc, store
}

func member(id int64) Actor { return Actor{UserID: id, Role: models.RoleMember} }

func TestRecordAttendanceKeepsStationTime(t *testing.T) {
	svc, _ := newAttendanceService()
	at := serverNow.Add(-2 * time.Hour)

	res, err := svc.RecordAttendance(context.Background(), 1, member(42), models.RecordAttendanceRequest{
		EventID: 7, UserID: 42, CheckInAt: &at, Source: models.AttendanceSourceQueued,
	})
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.True(t, res.Attendance.CheckInAt.Equal(at))
	assert.True(t, res.Attendance.ReceivedAt.Equal(serverNow))
	assert.Equal(t, models.AttendanceSourceQueued, res.Attendance.Source)
}

func TestRecordAttendanceCheckInTimePolicy(t *testing.T) {
	cases := []struct {
		name     string
		reported *time.Time
		want     time.Time
	}{
		{"missing", nil, serverNow},
		{"within skew", ptr(serverNow.Add(4 * time.Minute)), serverNow.Add(4 * time.Minute)},
		{"too far ahead", ptr(serverNow.Add(time.Hour)), serverNow},
		{"days old", ptr(serverNow.Add(-72 * time.Hour)), serverNow.Add(-72 * time.Hour)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newAttendanceService()
			res, err := svc.RecordAttendance(context.Background(), 1, member(42), models.RecordAttendanceRequest{
				EventID: 7, UserID: 42, CheckInAt: tc.reported,
			})
			require.NoError(t, err)
			assert.True(t, res.Attendance.CheckInAt.Equal(tc.want), "got %s", res.Attendance.CheckInAt)
			assert.Equal(t, models.AttendanceSourceDirect, res.Attendance.Source)
		})
	}
}

func TestRecordAttendanceDuplicateReturnsExisting(t *testing.T) {
	svc, _ := newAttendanceService()
	ctx := context.Background()
	first := serverNow.Add(-time.Hour)
	second := serverNow.Add(-time.Minute)

	res1, err := svc.RecordAttendance(ctx, 1, member(42), models.RecordAttendanceRequest{EventID: 7, UserID: 42, CheckInAt: &first})
	require.NoError(t, err)
	res2, err := svc.RecordAttendance(ctx, 1, member(42), models.RecordAttendanceRequest{EventID: 7, UserID: 42, CheckInAt: &second})
	require.NoError(t, err)

	assert.True(t, res2.Duplicate)
	assert.Equal(t, res1.Attendance.ID, res2.Attendance.ID)
	assert.True(t, res2.Attendance.CheckInAt.Equal(first))
}

func TestRecordAttendanceRejections(t *testing.T) {
	cases := []struct {
		name  string
		org   int64
		actor Actor
		req   models.RecordAttendanceRequest
		want  error
	}{
		{"unknown event", 1, member(42), models.RecordAttendanceRequest{EventID: 99, UserID: 42}, ErrEventNotFound},
		{"event of another tenant", 2, member(42), models.RecordAttendanceRequest{EventID: 7, UserID: 42}, ErrEventNotFound},
		{"not a member", 1, member(77), models.RecordAttendanceRequest{EventID: 7, UserID: 77}, ErrNotMember},
		{"member for someone else", 1, member(42), models.RecordAttendanceRequest{EventID: 7, UserID: 43}, ErrNotPermitted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store := newAttendanceService()
			_, err := svc.RecordAttendance(context.Background(), tc.org, tc.actor, tc.req)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, store.rows)
		})
	}
}

func TestRecordAttendanceDirectorForMember(t *testing.T) {
	svc, _ := newAttendanceService()
	director := Actor{UserID: 50, Role: models.RoleDirector}

	res, err := svc.RecordAttendance(context.Background(), 1, director, models.RecordAttendanceRequest{EventID: 7, UserID: 43})
	require.NoError(t, err)
	assert.Equal(t, int64(43), res.Attendance.UserID)
}

func TestRecordAttendanceDefaultsToCaller(t *testing.T) {
	svc, store := newAttendanceService()

	res, err := svc.RecordAttendance(context.Background(), 1, member(42), models.RecordAttendanceRequest{EventID: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(42), res.Attendance.UserID)
	assert.Len(t, store.rows, 1)

	// a caller outside the tenant still needs a membership
	_, err = svc.RecordAttendance(context.Background(), 1, member(77), models.RecordAttendanceRequest{EventID: 7})
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestRecordAttendanceStoreError(t *testing.T) {
	svc, store := newAttendanceService()
	store.err = errors.New("connection reset")

	_, err := svc.RecordAttendance(context.Background(), 1, member(42), models.RecordAttendanceRequest{EventID: 7, UserID: 42})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEventNotFound)
	assert.NotErrorIs(t, err, ErrNotMember)
}

func ptr(t time.Time) *time.Time { return &t }
