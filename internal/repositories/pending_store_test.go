package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"choiros-backend/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisPendingStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisPendingStore(client, "test"), mr
}

func pendingStores(t *testing.T) map[string]PendingStore {
	redisStore, _ := newRedisStore(t)
	return map[string]PendingStore{
		"memory": NewMemoryPendingStore(),
		"redis":  redisStore,
	}
}

func record(eventID, userID int64, at string) *models.PendingAttendanceRecord {
	ts, _ := time.Parse(time.RFC3339, at)
	return &models.PendingAttendanceRecord{EventID: eventID, UserID: userID, CheckInAt: ts}
}

func TestPendingStoreEnqueueThenList(t *testing.T) {
	for name, store := range pendingStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := record(5, 2, "2025-01-01T10:00:00Z")

			require.NoError(t, store.Enqueue(ctx, rec))
			assert.NotZero(t, rec.LocalID)

			all, err := store.ListAll(ctx)
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, rec.LocalID, all[0].LocalID)
			assert.Equal(t, int64(5), all[0].EventID)
			assert.Equal(t, int64(2), all[0].UserID)
			assert.True(t, all[0].CheckInAt.Equal(rec.CheckInAt))
			assert.False(t, all[0].Synced)
		})
	}
}

func TestPendingStoreKeepsEverythingNotRemoved(t *testing.T) {
	for name, store := range pendingStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var ids []int64
			for i := int64(1); i <= 5; i++ {
				rec := record(i, 7, "2025-03-01T19:00:00Z")
				require.NoError(t, store.Enqueue(ctx, rec))
				ids = append(ids, rec.LocalID)
			}
			require.NoError(t, store.Remove(ctx, ids[1]))
			require.NoError(t, store.Remove(ctx, ids[3]))

			all, err := store.ListAll(ctx)
			require.NoError(t, err)

			var got []int64
			for _, r := range all {
				got = append(got, r.LocalID)
			}
			assert.Equal(t, []int64{ids[0], ids[2], ids[4]}, got, "insertion order preserved")

			n, err := store.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 3, n)
		})
	}
}

func TestPendingStoreRemoveIsIdempotent(t *testing.T) {
	for name, store := range pendingStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := record(1, 1, "2025-01-01T10:00:00Z")
			require.NoError(t, store.Enqueue(ctx, rec))

			assert.NoError(t, store.Remove(ctx, rec.LocalID))
			assert.NoError(t, store.Remove(ctx, rec.LocalID))
			assert.NoError(t, store.Remove(ctx, 9999))

			all, err := store.ListAll(ctx)
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestPendingStoreNeverReusesIDs(t *testing.T) {
	for name, store := range pendingStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			first := record(1, 1, "2025-01-01T10:00:00Z")
			require.NoError(t, store.Enqueue(ctx, first))
			require.NoError(t, store.Remove(ctx, first.LocalID))

			second := record(1, 1, "2025-01-01T10:00:00Z")
			require.NoError(t, store.Enqueue(ctx, second))
			assert.Greater(t, second.LocalID, first.LocalID)
		})
	}
}

func TestRedisPendingStoreFailureIsWrapped(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.Close()

	err := store.Enqueue(context.Background(), record(1, 1, "2025-01-01T10:00:00Z"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPendingStore))

	_, err = store.ListAll(context.Background())
	assert.True(t, errors.Is(err, ErrPendingStore))
}

func TestRedisPendingStoreNamespacesAreIsolated(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	a := NewRedisPendingStore(client, "station-a")
	b := NewRedisPendingStore(client, "station-b")
	ctx := context.Background()

	require.NoError(t, a.Enqueue(ctx, record(1, 1, "2025-01-01T10:00:00Z")))

	n, err := b.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
