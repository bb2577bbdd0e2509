package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"choiros-backend/internal/models"
)

// StationClient reads the local API of a check-in station.
type StationClient struct {
	baseURL string
	http    *http.Client
}

func NewStationClient(baseURL string) *StationClient {
	return &StationClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
}

func (c *StationClient) Status(ctx context.Context) (*models.PendingOverview, error) {
	var out models.PendingOverview
	return &out, c.call(ctx, http.MethodGet, "/api/status", &out)
}

func (c *StationClient) Pending(ctx context.Context) ([]models.PendingAttendanceRecord, error) {
	var out []models.PendingAttendanceRecord
	return out, c.call(ctx, http.MethodGet, "/api/pending", &out)
}

// Sync runs a pass on the station and waits for its summary.
func (c *StationClient) Sync(ctx context.Context) (*models.SyncResult, error) {
	var out models.SyncResult
	return &out, c.call(ctx, http.MethodPost, "/api/sync", &out)
}

func (c *StationClient) call(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("station unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("station returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
