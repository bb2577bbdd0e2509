package models

import "time"

// Attendance sources
const (
	AttendanceSourceDirect = "direct"
	AttendanceSourceQueued = "queued"
)

// Attendance is a server-side check-in row. (event_id, user_id) is unique.
type Attendance struct {
	ID         int64     `json:"id"`
	EventID    int64     `json:"event_id"`
	UserID     int64     `json:"user_id"`
	CheckInAt  time.Time `json:"check_in_at"`
	ReceivedAt time.Time `json:"received_at"`
	Source     string    `json:"source"`
}

// RecordAttendanceRequest is the body of the record-attendance call.
// CheckInAt is optional; the server stamps its own time when absent.
// UserID defaults to the authenticated caller.
type RecordAttendanceRequest struct {
	EventID   int64      `json:"event_id" validate:"required,gt=0"`
	UserID    int64      `json:"user_id,omitempty" validate:"omitempty,gt=0"`
	CheckInAt *time.Time `json:"check_in_at,omitempty"`
	Source    string     `json:"source,omitempty" validate:"omitempty,oneof=direct queued"`
}

// RecordAttendanceResponse reports the stored row and whether it already existed.
type RecordAttendanceResponse struct {
	Attendance *Attendance `json:"attendance"`
	Duplicate  bool        `json:"duplicate"`
}

// AttendanceListItem is one row of an event attendance listing.
type AttendanceListItem struct {
	Attendance
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}
