package models

import "time"

// PendingAttendanceRecord is a check-in captured on a station that the server
// has not acknowledged yet. It lives in the local pending store until a sync
// pass transmits it, and is deleted rather than updated on acknowledgment.
type PendingAttendanceRecord struct {
	LocalID   int64     `json:"local_id"`
	EventID   int64     `json:"event_id"`
	UserID    int64     `json:"user_id"`
	CheckInAt time.Time `json:"check_in_at"`
	Synced    bool      `json:"synced"`
}

// ToRequest builds the record-attendance call for this record.
// LocalID is never sent to the server.
func (p PendingAttendanceRecord) ToRequest() RecordAttendanceRequest {
	at := p.CheckInAt
	return RecordAttendanceRequest{
		EventID:   p.EventID,
		UserID:    p.UserID,
		CheckInAt: &at,
	}
}

// SyncResult summarizes one sync pass over the pending store.
type SyncResult struct {
	PassID    string        `json:"pass_id"`
	Attempted int           `json:"attempted"`
	Synced    int           `json:"synced"`
	Failed    int           `json:"failed"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
}

// PendingOverview is what the station UI shows next to the scanner.
type PendingOverview struct {
	Online       bool       `json:"online"`
	PendingCount int        `json:"pending_count"`
	ScannerState string     `json:"scanner_state"`
	LastSync     *SyncResult `json:"last_sync,omitempty"`
}
