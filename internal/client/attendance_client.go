package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"choiros-backend/internal/models"
)

// Error classes of the attendance API. Every *APIError unwraps to one.
var (
	ErrEventNotFound = errors.New("event not found")
	ErrNotMember     = errors.New("not a member of organization")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrValidation    = errors.New("invalid request")
	ErrTransient     = errors.New("transient server error")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d (%s): %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.Code == models.ErrCodeEventNotFound:
		return ErrEventNotFound
	case e.Code == models.ErrCodeNotMember:
		return ErrNotMember
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Status == http.StatusForbidden:
		return ErrForbidden
	case e.Status == http.StatusBadRequest:
		return ErrValidation
	default:
		return ErrTransient
	}
}

// AttendanceClient talks to the server on behalf of one station.
type AttendanceClient struct {
	baseURL string
	org     string
	token   string
	http    *http.Client
}

func NewAttendanceClient(baseURL, org, token string, timeout time.Duration) *AttendanceClient {
	return &AttendanceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		org:     org,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// RecordAttendance calls the record-attendance endpoint. Network failures
// are wrapped with ErrTransient.
func (c *AttendanceClient) RecordAttendance(ctx context.Context, req models.RecordAttendanceRequest) (*models.RecordAttendanceResponse, error) {
	var resp models.RecordAttendanceResponse
	path := "/api/orgs/" + url.PathEscape(c.org) + "/attendance"
	if err := c.doJSON(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ping checks that the server answers its health endpoint.
func (c *AttendanceClient) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode, Code: models.ErrCodeInternal, Message: "health check failed"}
	}
	return nil
}

// Login exchanges credentials for a bearer token and keeps it for later calls.
func (c *AttendanceClient) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	body := models.LoginRequest{Email: email, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &resp, nil
}

// CheckInCode fetches an event's check-in code, as JSON or as a PNG image.
func (c *AttendanceClient) CheckInCode(ctx context.Context, eventID int64, png bool) ([]byte, error) {
	path := fmt.Sprintf("/api/orgs/%s/events/%d/checkin-code", url.PathEscape(c.org), eventID)
	if png {
		path += "?format=png"
	}
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// HubURL is the websocket address of the station hub for this organization.
func (c *AttendanceClient) HubURL() string {
	base := c.baseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws/agents?org=" + url.QueryEscape(c.org)
}

// AuthHeader returns the Authorization header the client sends.
func (c *AttendanceClient) AuthHeader() http.Header {
	h := http.Header{}
	if c.token != "" {
		h.Set("Authorization", "Bearer "+c.token)
	}
	return h
}

func (c *AttendanceClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrTransient, err)
	}
	return nil
}

// do sends the request and turns non-2xx responses into *APIError.
func (c *AttendanceClient) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransient, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := &APIError{Status: resp.StatusCode}
	var errBody models.ErrorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &errBody) == nil && errBody.Error != "" {
		apiErr.Code = errBody.Code
		apiErr.Message = errBody.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return nil, apiErr
}
