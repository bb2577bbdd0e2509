package models

import "time"

// CheckInPayloadType is the discriminator every check-in code must carry.
const CheckInPayloadType = "choiros-checkin"

// CheckInValidity is how long after the event start a code is accepted.
const CheckInValidity = 24 * time.Hour

// CheckInPayload is the JSON encoded into an event check-in QR code.
// Timestamps are epoch milliseconds.
type CheckInPayload struct {
	Type       string `json:"type"`
	EventID    int64  `json:"eventId"`
	EventTitle string `json:"eventTitle,omitempty"`
	Timestamp  int64  `json:"timestamp"`
	ValidUntil int64  `json:"validUntil"`
}

// NewCheckInPayload builds the code for an event, generated at now and valid
// until the event start plus CheckInValidity.
func NewCheckInPayload(event *Event, now time.Time) CheckInPayload {
	return CheckInPayload{
		Type:       CheckInPayloadType,
		EventID:    event.ID,
		EventTitle: event.Title,
		Timestamp:  now.UnixMilli(),
		ValidUntil: event.StartsAt.Add(CheckInValidity).UnixMilli(),
	}
}

// ValidUntilTime returns the expiry as a time.Time.
func (p CheckInPayload) ValidUntilTime() time.Time {
	return time.UnixMilli(p.ValidUntil)
}

// IsExpired reports whether the code is no longer accepted at now.
func (p CheckInPayload) IsExpired(now time.Time) bool {
	return now.After(p.ValidUntilTime())
}
