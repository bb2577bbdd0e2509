package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"choiros-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAttendanceSendsRequest(t *testing.T) {
	checkIn := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orgs/coro-alpino/attendance", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req models.RecordAttendanceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(5), req.EventID)
		assert.Equal(t, int64(2), req.UserID)
		require.NotNil(t, req.CheckInAt)
		assert.True(t, req.CheckInAt.Equal(checkIn))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.RecordAttendanceResponse{
			Attendance: &models.Attendance{ID: 11, EventID: 5, UserID: 2, CheckInAt: checkIn},
		})
	}))
	defer srv.Close()

	c := NewAttendanceClient(srv.URL, "coro-alpino", "tok", time.Second)
	resp, err := c.RecordAttendance(context.Background(), models.RecordAttendanceRequest{
		EventID: 5, UserID: 2, CheckInAt: &checkIn,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), resp.Attendance.ID)
	assert.False(t, resp.Duplicate)
}

func TestRecordAttendanceClassifiesErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "event not found", status: 404, body: `{"error":"event not found","code":"event_not_found"}`, want: ErrEventNotFound},
		{name: "not member", status: 403, body: `{"error":"not a member","code":"not_member"}`, want: ErrNotMember},
		{name: "unauthorized", status: 401, body: `{"error":"missing token","code":"unauthorized"}`, want: ErrUnauthorized},
		{name: "validation", status: 400, body: `{"error":"bad","code":"validation_error"}`, want: ErrValidation},
		{name: "server error", status: 500, body: `oops`, want: ErrTransient},
		{name: "gateway", status: 502, body: ``, want: ErrTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewAttendanceClient(srv.URL, "org", "tok", time.Second)
			_, err := c.RecordAttendance(context.Background(), models.RecordAttendanceRequest{EventID: 1, UserID: 1})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
		})
	}
}

func TestNetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewAttendanceClient(url, "org", "", time.Second)
	_, err := c.RecordAttendance(context.Background(), models.RecordAttendanceRequest{EventID: 1, UserID: 1})
	assert.True(t, errors.Is(err, ErrTransient))
	assert.True(t, errors.Is(c.Ping(context.Background()), ErrTransient))
}

func TestLoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			json.NewEncoder(w).Encode(models.LoginResponse{Token: "fresh"})
		case "/api/orgs/org/events/3/checkin-code":
			assert.Equal(t, "Bearer fresh", r.Header.Get("Authorization"))
			assert.Equal(t, "png", r.URL.Query().Get("format"))
			w.Write([]byte("PNGDATA"))
		}
	}))
	defer srv.Close()

	c := NewAttendanceClient(srv.URL, "org", "", time.Second)
	_, err := c.Login(context.Background(), "a@b.it", "pw")
	require.NoError(t, err)

	data, err := c.CheckInCode(context.Background(), 3, true)
	require.NoError(t, err)
	assert.Equal(t, "PNGDATA", string(data))
}

func TestHubURL(t *testing.T) {
	assert.Equal(t, "wss://api.choiros.app/ws/agents?org=coro",
		NewAttendanceClient("https://api.choiros.app/", "coro", "", time.Second).HubURL())
	assert.Equal(t, "ws://localhost:8080/ws/agents?org=coro",
		NewAttendanceClient("http://localhost:8080", "coro", "", time.Second).HubURL())
}
