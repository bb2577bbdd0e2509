package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
)

// Broadcaster pushes a sync request to the stations of an organization.
type Broadcaster interface {
	Broadcast(org, trigger string) int
}

// HandleSyncWakeup returns the asynq handler for TypeSyncWakeup.
func HandleSyncWakeup(b Broadcaster) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SyncWakeupPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			// retrying a malformed payload never helps
			return fmt.Errorf("decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
		}
		n := b.Broadcast(payload.Organization, "scheduled")
		log.Printf("[Jobs] Wake-up for event %d reached %d station(s)", payload.EventID, n)
		return nil
	}
}

// Worker runs the asynq server for wake-up tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

func NewWorker(redisOpt asynq.RedisConnOpt, concurrency int, b Broadcaster) *Worker {
	if concurrency <= 0 {
		concurrency = 5
	}
	srv := asynq.NewServer(redisOpt, asynq.Config{Concurrency: concurrency})
	mux := asynq.NewServeMux()
	mux.Handle(TypeSyncWakeup, HandleSyncWakeup(b))
	return &Worker{server: srv, mux: mux}
}

func (w *Worker) Start() error {
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	log.Println("[Jobs] Worker started")
	return nil
}

func (w *Worker) Stop() {
	w.server.Shutdown()
	log.Println("[Jobs] Worker stopped")
}
