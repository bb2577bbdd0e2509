package repositories

import (
	"context"
	"encoding/json"
	"strconv"

	"choiros-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisPendingStore keeps the pending queue in a station-local Redis.
//
// Layout under choiros:pending:<namespace>:
//
//	seq      INCR counter allocating local ids
//	records  hash local_id -> record JSON
//	order    list of local ids in insertion order
//
// The namespace scopes the queue to a device, not a user: members sharing a
// station share its queue.
type RedisPendingStore struct {
	client     redis.UniversalClient
	seqKey     string
	recordsKey string
	orderKey   string
}

func NewRedisPendingStore(client redis.UniversalClient, namespace string) *RedisPendingStore {
	prefix := "choiros:pending:" + namespace + ":"
	return &RedisPendingStore{
		client:     client,
		seqKey:     prefix + "seq",
		recordsKey: prefix + "records",
		orderKey:   prefix + "order",
	}
}

func (s *RedisPendingStore) Enqueue(ctx context.Context, rec *models.PendingAttendanceRecord) error {
	id, err := s.client.Incr(ctx, s.seqKey).Result()
	if err != nil {
		return storeError("allocate id", err)
	}

	rec.LocalID = id
	rec.Synced = false
	data, err := json.Marshal(rec)
	if err != nil {
		return storeError("encode", err)
	}

	field := strconv.FormatInt(id, 10)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.recordsKey, field, data)
		pipe.RPush(ctx, s.orderKey, field)
		return nil
	})
	if err != nil {
		return storeError("enqueue", err)
	}
	return nil
}

func (s *RedisPendingStore) ListAll(ctx context.Context) ([]models.PendingAttendanceRecord, error) {
	ids, err := s.client.LRange(ctx, s.orderKey, 0, -1).Result()
	if err != nil {
		return nil, storeError("list order", err)
	}
	if len(ids) == 0 {
		return []models.PendingAttendanceRecord{}, nil
	}

	values, err := s.client.HMGet(ctx, s.recordsKey, ids...).Result()
	if err != nil {
		return nil, storeError("list records", err)
	}

	records := make([]models.PendingAttendanceRecord, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// removed between LRANGE and HMGET
			continue
		}
		var rec models.PendingAttendanceRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, storeError("decode", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *RedisPendingStore) Remove(ctx context.Context, localID int64) error {
	field := strconv.FormatInt(localID, 10)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, s.recordsKey, field)
		pipe.LRem(ctx, s.orderKey, 0, field)
		return nil
	})
	if err != nil {
		return storeError("remove", err)
	}
	return nil
}

func (s *RedisPendingStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.HLen(ctx, s.recordsKey).Result()
	if err != nil {
		return 0, storeError("count", err)
	}
	return int(n), nil
}
