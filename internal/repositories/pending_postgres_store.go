package repositories

import (
	"context"

	"choiros-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPendingStore keeps the pending queue in a station-local PostgreSQL
// (table pending_attendance). BIGSERIAL never hands out an id twice.
type PostgresPendingStore struct {
	pool      *pgxpool.Pool
	namespace string
}

func NewPostgresPendingStore(pool *pgxpool.Pool, namespace string) *PostgresPendingStore {
	return &PostgresPendingStore{pool: pool, namespace: namespace}
}

func (s *PostgresPendingStore) Enqueue(ctx context.Context, rec *models.PendingAttendanceRecord) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO pending_attendance (namespace, event_id, user_id, check_in_at)
		VALUES ($1, $2, $3, $4)
		RETURNING local_id`,
		s.namespace, rec.EventID, rec.UserID, rec.CheckInAt,
	).Scan(&rec.LocalID)
	if err != nil {
		return storeError("enqueue", err)
	}
	rec.Synced = false
	return nil
}

func (s *PostgresPendingStore) ListAll(ctx context.Context) ([]models.PendingAttendanceRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT local_id, event_id, user_id, check_in_at
		FROM pending_attendance
		WHERE namespace = $1
		ORDER BY local_id ASC`, s.namespace)
	if err != nil {
		return nil, storeError("list", err)
	}
	defer rows.Close()

	records := []models.PendingAttendanceRecord{}
	for rows.Next() {
		var rec models.PendingAttendanceRecord
		if err := rows.Scan(&rec.LocalID, &rec.EventID, &rec.UserID, &rec.CheckInAt); err != nil {
			return nil, storeError("scan", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list", err)
	}
	return records, nil
}

func (s *PostgresPendingStore) Remove(ctx context.Context, localID int64) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM pending_attendance
		WHERE namespace = $1 AND local_id = $2`, s.namespace, localID)
	if err != nil {
		return storeError("remove", err)
	}
	return nil
}

func (s *PostgresPendingStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM pending_attendance WHERE namespace = $1`, s.namespace).Scan(&n)
	if err != nil {
		return 0, storeError("count", err)
	}
	return n, nil
}
