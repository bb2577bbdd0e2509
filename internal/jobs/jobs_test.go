package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBroadcaster struct {
	orgs     []string
	triggers []string
}

func (r *recordingBroadcaster) Broadcast(org, trigger string) int {
	r.orgs = append(r.orgs, org)
	r.triggers = append(r.triggers, trigger)
	return 2
}

func TestHandleSyncWakeup(t *testing.T) {
	b := &recordingBroadcaster{}
	task, err := NewSyncWakeupTask("alto", 7)
	require.NoError(t, err)

	require.NoError(t, HandleSyncWakeup(b).ProcessTask(context.Background(), task))
	assert.Equal(t, []string{"alto"}, b.orgs)
	assert.Equal(t, []string{"scheduled"}, b.triggers)
}

func TestHandleSyncWakeupBadPayload(t *testing.T) {
	err := HandleSyncWakeup(&recordingBroadcaster{}).ProcessTask(context.Background(),
		asynq.NewTask(TypeSyncWakeup, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestScheduleSyncWakeup(t *testing.T) {
	mr := miniredis.RunT(t)
	opt := asynq.RedisClientOpt{Addr: mr.Addr()}
	client := asynq.NewClient(opt)
	defer client.Close()
	inspector := asynq.NewInspector(opt)
	defer inspector.Close()

	s := NewScheduler(client, time.Hour)
	validUntil := time.Now().Add(3 * time.Hour)

	require.NoError(t, s.ScheduleSyncWakeup("alto", 7, validUntil))
	// regenerating the code keeps the single task
	require.NoError(t, s.ScheduleSyncWakeup("alto", 7, validUntil))

	info, err := inspector.GetTaskInfo("default", syncWakeupTaskID("alto", 7))
	require.NoError(t, err)
	assert.Equal(t, TypeSyncWakeup, info.Type)
	assert.WithinDuration(t, validUntil.Add(-time.Hour), info.NextProcessAt, time.Second)
}

func TestScheduleSyncWakeupSkipsExpiredCodes(t *testing.T) {
	s := NewScheduler(asynq.NewClient(asynq.RedisClientOpt{Addr: "127.0.0.1:1"}), time.Hour)
	assert.NoError(t, s.ScheduleSyncWakeup("alto", 7, time.Now().Add(-time.Minute)))
}
