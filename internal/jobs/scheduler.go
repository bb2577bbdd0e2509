package jobs

import (
	"errors"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

// Scheduler enqueues delayed wake-up tasks.
type Scheduler struct {
	client *asynq.Client
	lead   time.Duration
}

func NewScheduler(client *asynq.Client, lead time.Duration) *Scheduler {
	return &Scheduler{client: client, lead: lead}
}

// ScheduleSyncWakeup runs the wake-up lead before validUntil. Codes already
// inside the lead window get an immediate wake-up. A task already scheduled
// for the event is kept.
func (s *Scheduler) ScheduleSyncWakeup(org string, eventID int64, validUntil time.Time) error {
	if s == nil || s.client == nil {
		return errors.New("asynq client is not initialized")
	}

	runAt := validUntil.Add(-s.lead)
	if !validUntil.After(time.Now()) {
		return nil
	}

	task, err := NewSyncWakeupTask(org, eventID)
	if err != nil {
		return err
	}

	taskID := syncWakeupTaskID(org, eventID)
	_, err = s.client.Enqueue(task,
		asynq.ProcessAt(runAt),
		asynq.TaskID(taskID),
		asynq.MaxRetry(3),
		asynq.Retention(24*time.Hour),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	if err != nil {
		log.Printf("[Jobs] Failed to schedule %s: %v", taskID, err)
		return err
	}
	log.Printf("[Jobs] Scheduled %s | RunAt=%s", taskID, runAt.Format(time.RFC3339))
	return nil
}
