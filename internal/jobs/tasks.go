package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeSyncWakeup asks the stations of an organization to flush their
// pending check-ins before an event's code expires.
const TypeSyncWakeup = "attendance:sync_wakeup"

type SyncWakeupPayload struct {
	Organization string `json:"organization"`
	EventID      int64  `json:"event_id"`
}

func NewSyncWakeupTask(org string, eventID int64) (*asynq.Task, error) {
	payload, err := json.Marshal(SyncWakeupPayload{Organization: org, EventID: eventID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSyncWakeup, payload), nil
}

// syncWakeupTaskID is stable per event so regenerating a code does not
// stack wake-ups.
func syncWakeupTaskID(org string, eventID int64) string {
	return fmt.Sprintf("sync-wakeup-%s-%d", org, eventID)
}
