package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"choiros-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStationClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /api/status":
			json.NewEncoder(w).Encode(models.PendingOverview{Online: false, PendingCount: 2, ScannerState: "idle"})
		case "GET /api/pending":
			json.NewEncoder(w).Encode([]models.PendingAttendanceRecord{{LocalID: 1, EventID: 7, UserID: 42}})
		case "POST /api/sync":
			json.NewEncoder(w).Encode(models.SyncResult{PassID: "p1", Attempted: 1, Synced: 1})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewStationClient(srv.URL + "/")
	ctx := context.Background()

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, status.PendingCount)
	assert.False(t, status.Online)

	records, err := c.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(42), records[0].UserID)

	result, err := c.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Synced)
}

func TestStationClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewStationClient(srv.URL).Sync(context.Background())
	assert.ErrorContains(t, err, "500")
}
