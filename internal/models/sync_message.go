package models

// Message types exchanged between the server, stations and station UIs.
const (
	// MessageSyncAttendance asks a station to run a sync pass now.
	MessageSyncAttendance = "SYNC_ATTENDANCE"
	// MessageAttendanceSynced is broadcast after one pending record is acknowledged.
	MessageAttendanceSynced = "ATTENDANCE_SYNCED"
)

// SyncMessage is the envelope for both message types. RecordID is the local
// id of the synced record and is only set for MessageAttendanceSynced.
type SyncMessage struct {
	Type     string `json:"type"`
	RecordID int64  `json:"recordId,omitempty"`
}
